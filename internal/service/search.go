package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/w-h-a/sourcerer/retrieval"
)

type searchRequest struct {
	Query         string   `json:"query"`
	MaxItems      int      `json:"max_items,omitempty"`
	MinSimilarity *float32 `json:"min_similarity,omitempty"`
	Sources       []string `json:"sources,omitempty"`
}

type contextRequest struct {
	Query    string `json:"query"`
	MaxItems int    `json:"max_items,omitempty"`
}

type reindexRequest struct {
	Force bool `json:"force,omitempty"`
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := searchRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(ctx, w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	opts := []retrieval.RetrieveOption{}
	if req.MaxItems > 0 {
		opts = append(opts, retrieval.WithMaxItems(req.MaxItems))
	}
	if req.MinSimilarity != nil {
		opts = append(opts, retrieval.WithMinSimilarity(*req.MinSimilarity))
	}
	if len(req.Sources) > 0 {
		opts = append(opts, retrieval.WithSources(req.Sources...))
	}

	items, err := s.engine.SearchSimilarContent(ctx, req.Query, opts...)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"results": items, "count": len(items)})
}

func (s *Service) handleContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := contextRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(ctx, w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	bundle, err := s.engine.ContextForGeneration(ctx, req.Query, req.MaxItems)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, bundle)
}

func (s *Service) handleReindex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := reindexRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	indexed, err := s.engine.BulkReindex(ctx, req.Force)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"indexed": indexed})
}
