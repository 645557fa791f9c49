package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/config"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/draft"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/retriever"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/verification"
)

// retrieveTaskTimeout bounds each task of the retrieve fan-out.
const retrieveTaskTimeout = 60 * time.Second

// classifierOverrideConfidence is the confidence floor below which the
// classifier output wins over a requested category.
const classifierOverrideConfidence = 0.5

// ContentSearcher is the hybrid content search the retrieve stage fans
// out to.
type ContentSearcher interface {
	Search(ctx context.Context, queryText string, category types.ArticleType) ([]types.Passage, error)
}

// StyleSource retrieves the rulebook and the theme-matched excerpts.
type StyleSource interface {
	RetrieveProfile(ctx context.Context, category types.ArticleType) (string, error)
	RetrieveExcerpts(ctx context.Context, theme string, category types.ArticleType, topK int) ([]string, error)
}

// History persists finished generations. Writes are best-effort.
type History interface {
	SaveDraft(ctx context.Context, inputMaterial string, d types.Draft, markdown string) (uuid.UUID, error)
}

// Verifier runs the quality sub-pipeline in place.
type Verifier interface {
	Run(ctx context.Context, d *types.Draft, styleProfile string, passages []types.Passage, autoRewrite bool)
}

// The per-stage chain contracts, mirrored here so tests can substitute
// fakes for any stage.
type (
	inputParserChain interface {
		Run(ctx context.Context, inputMaterial string) (types.StructuredInput, error)
	}
	classifierChain interface {
		Run(ctx context.Context, input types.StructuredInput) (chains.Classification, error)
	}
	queryGenChain interface {
		Run(ctx context.Context, input types.StructuredInput, category types.ArticleType) (string, error)
	}
	styleAnalyzerChain interface {
		Run(ctx context.Context, passages []types.Passage, articleTypeJA string) (chains.StyleAnalysis, error)
	}
	structureAnalyzerChain interface {
		Run(ctx context.Context, passages []types.Passage, articleTypeJA string) (chains.StructureAnalysis, error)
	}
	outlineChain interface {
		Run(ctx context.Context, in chains.OutlineInputs) (types.Outline, error)
	}
	titleChain interface {
		Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string) ([]string, error)
	}
	leadChain interface {
		Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string, excerpts []string) (string, error)
	}
	sectionChain interface {
		Run(ctx context.Context, spec types.OutlineSection, input types.StructuredInput, articleTypeJA string, passages []types.Passage, styleProfile string) (types.Section, error)
	}
	closingChain interface {
		Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string) (string, error)
	}
)

// Deps bundles everything the orchestrator drives. Tests substitute
// fakes field by field.
type Deps struct {
	Parser     inputParserChain
	Classifier classifierChain
	QueryGen   queryGenChain
	StyleAna   styleAnalyzerChain
	StructAna  structureAnalyzerChain
	Outline    outlineChain
	Title      titleChain
	Lead       leadChain
	Section    sectionChain
	Closing    closingChain

	Searcher ContentSearcher
	Styles   StyleSource
	History  History
	Verifier Verifier
}

// Pipeline is the per-process orchestrator. It owns no request state;
// every Generate call owns its bundle, outline, and draft exclusively.
type Pipeline struct {
	deps   Deps
	cfg    *config.Config
	logger *slog.Logger
}

// New wires the orchestrator with real chains over the given gateway.
// When tier routing is disabled every chain runs on the high model.
func New(client llm.Client, searcher *retriever.HybridSearcher, styles *retriever.StyleRetriever, history History, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if !cfg.Flags.UseLiteModel {
		client = llm.ForceTier(client, llm.TierHigh)
	}

	verifier := verification.NewVerifier(
		chains.NewStyleChecker(client),
		chains.NewAutoRewriter(client),
		chains.NewHallucinationDetector(client),
		logger,
	)

	return NewFromDeps(Deps{
		Parser:     chains.NewInputParser(client),
		Classifier: chains.NewClassifier(client),
		QueryGen:   chains.NewQueryGenerator(client),
		StyleAna:   chains.NewStyleAnalyzer(client),
		StructAna:  chains.NewStructureAnalyzer(client),
		Outline:    chains.NewOutlineGenerator(client),
		Title:      chains.NewTitleGenerator(client),
		Lead:       chains.NewLeadGenerator(client),
		Section:    chains.NewSectionGenerator(client),
		Closing:    chains.NewClosingGenerator(client),
		Searcher:   searcher,
		Styles:     styles,
		History:    history,
		Verifier:   verifier,
	}, cfg, logger)
}

// NewFromDeps wires the orchestrator from pre-built dependencies.
func NewFromDeps(deps Deps, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, cfg: cfg, logger: logger}
}

// Result is the outcome of one successful generation.
type Result struct {
	Draft    types.Draft
	Markdown string
	DraftID  uuid.UUID
}

// Generate runs the nine-stage pipeline for one request. Progress and
// terminal events are sent to events (which may be nil); the channel is
// not closed. The requested category may be "auto" or empty to defer to
// the classifier.
func (p *Pipeline) Generate(ctx context.Context, inputMaterial, requestedType string, events chan<- Event) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	result, err := p.run(ctx, inputMaterial, requestedType, events)
	if err != nil {
		err = p.classifyFailure(ctx, err)
		p.emitTerminal(events, errorEvent(err))
		return nil, err
	}

	p.emitTerminal(events, completeEvent(result.Markdown, result.DraftID.String()))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, inputMaterial, requestedType string, events chan<- Event) (*Result, error) {
	// Stage 1: parse the raw material into a structured brief.
	p.emit(ctx, events, progressEvent(StageInputParse))
	input, err := p.deps.Parser.Run(ctx, inputMaterial)
	if err != nil {
		return nil, fmt.Errorf("input parse: %w", err)
	}

	// Stage 2: classify the category.
	p.emit(ctx, events, progressEvent(StageClassify))
	classification, err := p.deps.Classifier.Run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	category := resolveCategory(requestedType, classification)
	categoryJA := category.LabelJA()

	// Stage 3: build the hybrid-search query.
	p.emit(ctx, events, progressEvent(StageQueryGen))
	query := strings.Join(input.Keywords, " ")
	if p.cfg.Flags.UseQueryGenerator {
		query, err = p.deps.QueryGen.Run(ctx, input, category)
		if err != nil {
			return nil, fmt.Errorf("query generation: %w", err)
		}
	}
	if strings.TrimSpace(query) == "" {
		query = input.Theme
	}

	// Stage 4: fan out to content search and style retrieval.
	p.emit(ctx, events, progressEvent(StageRetrieve))
	bundle, err := p.retrieve(ctx, query, input.Theme, category)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	// Stage 5: analyze style and structure of the references.
	p.emit(ctx, events, progressEvent(StageAnalyze))
	styleAna, structAna, err := p.analyze(ctx, bundle.Passages, categoryJA)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	// Stage 6: plan the outline.
	p.emit(ctx, events, progressEvent(StageOutline))
	outline, err := p.deps.Outline.Run(ctx, chains.OutlineInputs{
		Input:         input,
		ArticleTypeJA: categoryJA,
		Style:         styleAna,
		Structure:     structAna,
		StyleProfile:  bundle.Profile,
		StyleExcerpts: bundle.Excerpts,
		Passages:      bundle.Passages,
	})
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}

	// Stage 7: generate title, lead, sections, and closing.
	p.emit(ctx, events, progressEvent(StageContents))
	d, err := p.generateContents(ctx, input, categoryJA, outline, bundle)
	if err != nil {
		return nil, fmt.Errorf("contents: %w", err)
	}
	d.Category = category
	d.Theme = input.Theme
	d.DesiredLength = input.DesiredLength

	// Stage 8: verify quality; degradation only, never failure.
	p.emit(ctx, events, progressEvent(StageQuality))
	p.deps.Verifier.Run(ctx, d, bundle.Profile, bundle.Passages, p.cfg.Flags.UseAutoRewrite)

	// Stage 9: assemble the artifact and persist best-effort.
	p.emit(ctx, events, progressEvent(StageAssemble))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	draft.Finalize(d)
	markdown := draft.RenderMarkdown(d)

	var draftID uuid.UUID
	if p.deps.History != nil {
		draftID, err = p.deps.History.SaveDraft(ctx, inputMaterial, *d, markdown)
		if err != nil {
			p.logger.Error("history save failed", "error", err)
			draftID = uuid.Nil
		}
	}

	return &Result{Draft: *d, Markdown: markdown, DraftID: draftID}, nil
}

// retrieve fans out to the three retrieval tasks and joins them into a
// bundle. All tasks must succeed; a missing rulebook is an empty
// string, not a failure.
func (p *Pipeline) retrieve(ctx context.Context, query, theme string, category types.ArticleType) (*types.RetrievalBundle, error) {
	bundle := &types.RetrievalBundle{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		taskCtx, cancel := context.WithTimeout(gCtx, retrieveTaskTimeout)
		defer cancel()
		passages, err := p.deps.Searcher.Search(taskCtx, query, category)
		if err != nil {
			return fmt.Errorf("content search: %w", err)
		}
		bundle.Passages = passages
		return nil
	})

	if p.cfg.Flags.UseStyleProfileKB {
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gCtx, retrieveTaskTimeout)
			defer cancel()
			profile, err := p.deps.Styles.RetrieveProfile(taskCtx, category)
			if err != nil {
				return fmt.Errorf("style profile: %w", err)
			}
			bundle.Profile = profile
			return nil
		})
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gCtx, retrieveTaskTimeout)
			defer cancel()
			excerpts, err := p.deps.Styles.RetrieveExcerpts(taskCtx, theme, category, p.cfg.ExcerptTopK)
			if err != nil {
				return fmt.Errorf("style excerpts: %w", err)
			}
			bundle.Excerpts = excerpts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// analyze summarizes the references' style and structure, falling back
// to fixed defaults when there is nothing to analyze.
func (p *Pipeline) analyze(ctx context.Context, passages []types.Passage, categoryJA string) (chains.StyleAnalysis, chains.StructureAnalysis, error) {
	if len(passages) == 0 {
		return chains.DefaultStyleAnalysis(), chains.DefaultStructureAnalysis(), nil
	}

	styleAna, err := p.deps.StyleAna.Run(ctx, passages, categoryJA)
	if err != nil {
		return chains.StyleAnalysis{}, chains.StructureAnalysis{}, fmt.Errorf("style analysis: %w", err)
	}
	structAna, err := p.deps.StructAna.Run(ctx, passages, categoryJA)
	if err != nil {
		return chains.StyleAnalysis{}, chains.StructureAnalysis{}, fmt.Errorf("structure analysis: %w", err)
	}
	return styleAna, structAna, nil
}

// generateContents fans out title, lead, closing, and one task per
// outline section. Section concurrency is capped; results keep the
// outline's section order. Any failure fails the whole stage.
func (p *Pipeline) generateContents(ctx context.Context, input types.StructuredInput, categoryJA string, outline types.Outline, bundle *types.RetrievalBundle) (*types.Draft, error) {
	d := &types.Draft{}
	sections := make([]types.Section, len(outline.Sections))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		titles, err := p.deps.Title.Run(gCtx, input, categoryJA, outline, bundle.Profile)
		if err != nil {
			return fmt.Errorf("title: %w", err)
		}
		d.Titles = titles
		return nil
	})
	g.Go(func() error {
		lead, err := p.deps.Lead.Run(gCtx, input, categoryJA, outline, bundle.Profile, bundle.Excerpts)
		if err != nil {
			return fmt.Errorf("lead: %w", err)
		}
		d.Lead = lead
		return nil
	})
	g.Go(func() error {
		closing, err := p.deps.Closing.Run(gCtx, input, categoryJA, outline, bundle.Profile)
		if err != nil {
			return fmt.Errorf("closing: %w", err)
		}
		d.Closing = closing
		return nil
	})

	// Sections run under their own capped group; excess tasks queue in
	// submission (outline) order.
	sg, sgCtx := errgroup.WithContext(gCtx)
	sg.SetLimit(p.cfg.MaxParallelSections)
	g.Go(func() error {
		for i, spec := range outline.Sections {
			i, spec := i, spec
			sg.Go(func() error {
				section, err := p.deps.Section.Run(sgCtx, spec, input, categoryJA, bundle.Passages, bundle.Profile)
				if err != nil {
					return fmt.Errorf("section %q: %w", spec.Title, err)
				}
				section.Level = spec.Level
				sections[i] = section
				return nil
			})
		}
		return sg.Wait()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Sections = sections
	return d, nil
}

// classifyFailure folds context errors into the taxonomy.
func (p *Pipeline) classifyFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return types.NewError(types.KindCancelled, "generation cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewError(types.KindTimeout, "generation timed out", err)
	default:
		return err
	}
}

// emit delivers a progress event without blocking a cancelled request.
func (p *Pipeline) emit(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// emitTerminal delivers the final complete or error event. The request
// context may already be cancelled, so delivery is attempted while the
// channel is still writable and abandoned shortly after.
func (p *Pipeline) emitTerminal(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-time.After(time.Second):
	}
}

// resolveCategory picks the category used downstream: the requested one
// when explicit, except that a low-confidence classification wins.
func resolveCategory(requested string, cls chains.Classification) types.ArticleType {
	if requested != "" && requested != "auto" {
		if t, err := types.ParseArticleType(requested); err == nil {
			if cls.Confidence < classifierOverrideConfidence {
				return cls.ArticleType
			}
			return t
		}
	}
	return cls.ArticleType
}
