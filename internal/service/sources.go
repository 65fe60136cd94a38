package service

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/w-h-a/sourcerer/sources"
)

type sourceRequest struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Url             string   `json:"url"`
	Enabled         *bool    `json:"enabled,omitempty"`
	Filters         []string `json:"filters,omitempty"`
	RefreshInterval string   `json:"refresh_interval,omitempty"`
}

func (r sourceRequest) toSource() (sources.Source, error) {
	src := sources.Source{
		Name:    strings.TrimSpace(r.Name),
		Type:    sources.SourceType(r.Type),
		Url:     strings.TrimSpace(r.Url),
		Enabled: true,
		Filters: r.Filters,
	}

	if src.Url == "" {
		return src, errors.New("url is required")
	}

	switch src.Type {
	case sources.SourceTypeRSS, sources.SourceTypeHTML:
	default:
		return src, errors.New("type must be rss or html")
	}

	if r.Enabled != nil {
		src.Enabled = *r.Enabled
	}

	if r.RefreshInterval != "" {
		interval, err := time.ParseDuration(r.RefreshInterval)
		if err != nil || interval <= 0 {
			return src, errors.New("refresh_interval must be a positive duration")
		}
		src.RefreshInterval = interval
	}

	return src, nil
}

func (s *Service) handleAddSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := sourceRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	src, err := req.toSource()
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	added, err := s.store.AddSource(ctx, src)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, added)
}

func (s *Service) handleListSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	srcs, err := s.store.Sources(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"sources": srcs, "count": len(srcs)})
}

func (s *Service) handleGetSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	src, err := s.store.Source(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if src == nil {
		writeError(ctx, w, http.StatusNotFound, errors.New("source not found"))
		return
	}

	writeJSON(ctx, w, http.StatusOK, src)
}

func (s *Service) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := sourceRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	src, err := req.toSource()
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	src.Id = mux.Vars(r)["id"]

	if err := s.store.UpdateSource(ctx, src); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sources.ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, src)
}

func (s *Service) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := s.store.RemoveSource(ctx, mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sources.ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}

	// drop index entries for the source's items as well
	s.engine.RemoveItemIndexes(ctx, removed)

	writeJSON(ctx, w, http.StatusOK, map[string]any{"removed_items": len(removed)})
}

func (s *Service) handleRefreshSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fresh, err := s.ingestion.RefreshSource(ctx, mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sources.ErrSourceNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"fresh": fresh})
}

func (s *Service) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fresh, err := s.ingestion.RefreshAll(ctx, true)
	if err != nil {
		writeError(ctx, w, http.StatusConflict, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"fresh": fresh})
}

// handleSearchItems is the non-semantic fallback: plain keyword matching
// over titles and bodies, no embedding provider required.
func (s *Service) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(ctx, w, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	var sourceIds []string
	if raw := r.URL.Query().Get("sources"); raw != "" {
		sourceIds = strings.Split(raw, ",")
	}

	items, err := s.store.SearchItems(ctx, query, sourceIds)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	limit := queryInt(r, "limit", 20)
	if len(items) > limit {
		items = items[:limit]
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Service) handleRecentItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", 20)

	items, err := s.store.RecentItems(ctx, limit)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
