// Package service exposes the application over HTTP: chat sessions,
// semantic search, source management, and operational stats.
package service

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/w-h-a/sourcerer/chat"
	"github.com/w-h-a/sourcerer/content"
	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/rag"
	"github.com/w-h-a/sourcerer/sources"
)

// ModelSource lists the chat models available to clients. A generator
// satisfies it directly; the scheduler's cached view does too.
type ModelSource interface {
	Models(ctx context.Context) ([]generator.ModelInfo, error)
}

type Service struct {
	chat      *chat.Manager
	engine    *rag.Engine
	store     *sources.Store
	ingestion *sources.Ingestion
	content   *content.Pipeline
	models    ModelSource
}

// Router wires every endpoint onto a fresh mux router.
func (s *Service) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/models", s.handleModels).Methods(http.MethodGet)

	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/context", s.handleContext).Methods(http.MethodPost)
	api.HandleFunc("/reindex", s.handleReindex).Methods(http.MethodPost)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/archive", s.handleArchiveSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)

	api.HandleFunc("/sources", s.handleAddSource).Methods(http.MethodPost)
	api.HandleFunc("/sources", s.handleListSources).Methods(http.MethodGet)
	api.HandleFunc("/sources/{id}", s.handleGetSource).Methods(http.MethodGet)
	api.HandleFunc("/sources/{id}", s.handleUpdateSource).Methods(http.MethodPut)
	api.HandleFunc("/sources/{id}", s.handleRemoveSource).Methods(http.MethodDelete)
	api.HandleFunc("/sources/{id}/refresh", s.handleRefreshSource).Methods(http.MethodPost)
	api.HandleFunc("/sources/refresh", s.handleRefreshAll).Methods(http.MethodPost)

	api.HandleFunc("/items", s.handleRecentItems).Methods(http.MethodGet)
	api.HandleFunc("/items/search", s.handleSearchItems).Methods(http.MethodGet)

	api.HandleFunc("/content/generate", s.handleGenerateContent).Methods(http.MethodPost)
	api.HandleFunc("/content/packages", s.handleListPackages).Methods(http.MethodGet)
	api.HandleFunc("/content/packages/{id}", s.handleGetPackage).Methods(http.MethodGet)
	api.HandleFunc("/content/packages/{id}", s.handleDeletePackage).Methods(http.MethodDelete)

	return router
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func NewService(
	chatManager *chat.Manager,
	engine *rag.Engine,
	store *sources.Store,
	ingestion *sources.Ingestion,
	pipeline *content.Pipeline,
	models ModelSource,
) *Service {
	return &Service{
		chat:      chatManager,
		engine:    engine,
		store:     store,
		ingestion: ingestion,
		content:   pipeline,
		models:    models,
	}
}
