package service

import "net/http"

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	indexStats, err := s.engine.Stats(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	srcs, err := s.store.Sources(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	items, err := s.store.Items(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"index":   indexStats,
		"sources": len(srcs),
		"items":   len(items),
	})
}

func (s *Service) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	models, err := s.models.Models(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"models": models, "count": len(models)})
}
