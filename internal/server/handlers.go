package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/draft"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	InputMaterial string `json:"input_material"`
	ArticleType   string `json:"article_type,omitempty"` // "auto" or an ArticleType
}

// GenerateResponse is the body of a successful synchronous generation.
type GenerateResponse struct {
	DraftID  string      `json:"draft_id,omitempty"`
	Draft    types.Draft `json:"draft"`
	Markdown string      `json:"markdown"`
}

// VerifyRequest is the body of POST /api/verify.
type VerifyRequest struct {
	DraftText   string `json:"draft_text"`
	ArticleType string `json:"article_type"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.InputMaterial == "" {
		s.errorResponse(w, http.StatusBadRequest, "input_material is required")
		return
	}

	result, err := s.generator.Generate(r.Context(), req.InputMaterial, req.ArticleType, nil)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	resp := GenerateResponse{Draft: result.Draft, Markdown: result.Markdown}
	if result.DraftID != uuid.Nil {
		resp.DraftID = result.DraftID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.InputMaterial == "" {
		s.errorResponse(w, http.StatusBadRequest, "input_material is required")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The request context carries client disconnects into the pipeline.
	events := make(chan pipeline.Event, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.generator.Generate(r.Context(), req.InputMaterial, req.ArticleType, events)
	}()

	for {
		select {
		case ev := <-events:
			if err := sse.WritePipelineEvent(ev); err != nil {
				s.logger.Error("sse write failed", "error", err)
				<-done
				return
			}
			if ev.Type == pipeline.EventComplete || ev.Type == pipeline.EventError {
				<-done
				return
			}
		case <-done:
			// drain anything emitted between the last read and exit
			for {
				select {
				case ev := <-events:
					_ = sse.WritePipelineEvent(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.errorResponse(w, http.StatusBadRequest, "q is required")
		return
	}
	category, err := types.ParseArticleType(r.URL.Query().Get("article_type"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	k := queryInt(r, "k", 10)

	var passages []types.Passage
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "hybrid":
		passages, err = s.searcher.Search(r.Context(), query, category)
	case "vector":
		passages, err = s.searcher.VectorOnly(r.Context(), query, category, k)
	case "lexical":
		passages, err = s.searcher.LexicalOnly(r.Context(), query, category, k)
	default:
		s.errorResponse(w, http.StatusBadRequest, "unknown mode: "+mode)
		return
	}
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	if len(passages) > k {
		passages = passages[:k]
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"passages": passages})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DraftText == "" {
		s.errorResponse(w, http.StatusBadRequest, "draft_text is required")
		return
	}
	category, err := types.ParseArticleType(req.ArticleType)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	check, detection, err := s.verify.Verify(r.Context(), req.DraftText, category)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"style_check":   check,
		"hallucination": detection,
	})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	summaries, err := s.history.ListDrafts(r.Context(), limit, offset)
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"drafts": summaries})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.history.GetDraft(r.Context(), id)
	if err != nil {
		s.pipelineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleHistoryHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.history.GetDraft(r.Context(), id)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	html, err := draft.RenderHTML(rec.Markdown)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.history.DeleteDraft(r.Context(), id); err != nil {
		s.pipelineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathID parses the {id} path segment as a UUID.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// pipelineError maps the error taxonomy onto HTTP statuses.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch types.KindOf(err) {
	case types.KindNotFound:
		status = http.StatusNotFound
	case types.KindSchema, types.KindRetrieval, types.KindUpstream, types.KindInvariant:
		status = http.StatusBadGateway
	case types.KindTimeout:
		status = http.StatusGatewayTimeout
	case types.KindCancelled:
		status = 499 // client closed request
	}
	s.jsonResponse(w, status, map[string]string{
		"kind":  string(types.KindOf(err)),
		"error": err.Error(),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
