package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/config"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/rerank"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/retriever"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/store"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/verification"
)

// app bundles the process-wide singletons: the gateways, the store, and
// the orchestrator built over them.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   llm.Client
	db       *store.DB
	searcher *retriever.HybridSearcher
	styles   *retriever.StyleRetriever
	pipeline *pipeline.Pipeline
	verify   *verification.Service
}

// newApp initializes every shared component once. The reranker is
// optional: when it cannot be reached the searchers run without it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("llm gateway: %w", err)
	}

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}

	var reranker rerank.Reranker
	if cfg.RerankerURL != "" {
		r, err := rerank.NewHTTPReranker(ctx, cfg.RerankerURL)
		if err != nil {
			logger.Warn("reranker unavailable, continuing without reranking", "error", err)
		} else {
			reranker = r
		}
	}

	searcher := retriever.NewHybridSearcher(client, db, reranker, retriever.SearchParams{
		KPerSource: cfg.SearchKPerSource,
		FinalK:     cfg.SearchFinalK,
		RRFK:       cfg.SearchRRFK,
		RerankTopK: cfg.RerankTopK,
	})
	styles := retriever.NewStyleRetriever(client, db, reranker)

	verify := verification.NewService(
		chains.NewStyleChecker(client),
		chains.NewHallucinationDetector(client),
		styles,
		searcher,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		db:       db,
		searcher: searcher,
		styles:   styles,
		pipeline: pipeline.New(client, searcher, styles, db, cfg, logger),
		verify:   verify,
	}, nil
}

// close releases the shared resources.
func (a *app) close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
