package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type createSessionRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := createSessionRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	info, err := s.chat.CreateSession(ctx, req.Title)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, info)
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	infos, err := s.chat.ListSessions(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"sessions": infos, "count": len(infos)})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := s.chat.Session(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if info == nil {
		writeError(ctx, w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	writeJSON(ctx, w, http.StatusOK, info)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.chat.DeleteSession(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(ctx, w, http.StatusNotFound, err)
		return
	}

	writeJSON(ctx, w, http.StatusNoContent, nil)
}

func (s *Service) handleArchiveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.chat.ArchiveSession(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(ctx, w, http.StatusNotFound, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "archived"})
}

func (s *Service) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	messages, err := s.chat.Messages(ctx, mux.Vars(r)["id"], limit, offset)
	if err != nil {
		writeError(ctx, w, http.StatusNotFound, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"messages": messages, "count": len(messages)})
}

func (s *Service) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := sendMessageRequest{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(ctx, w, http.StatusBadRequest, errors.New("content is required"))
		return
	}

	reply, err := s.chat.SendMessage(ctx, mux.Vars(r)["id"], req.Content, req.Sources)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, reply)
}
