package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/w-h-a/sourcerer/content"
)

func (s *Service) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := content.Request{}
	if err := readJSON(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	req.ItemId = strings.TrimSpace(req.ItemId)
	if len(req.ItemId) == 0 {
		writeError(ctx, w, http.StatusBadRequest, errors.New("item_id is required"))
		return
	}

	pkg, err := s.content.Generate(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, content.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, pkg)
}

func (s *Service) handleListPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	infos, err := s.content.Packages(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"packages": infos, "count": len(infos)})
}

func (s *Service) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pkg, err := s.content.Package(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if pkg == nil {
		writeError(ctx, w, http.StatusNotFound, errors.New("package not found"))
		return
	}

	writeJSON(ctx, w, http.StatusOK, pkg)
}

func (s *Service) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.content.DeletePackage(ctx, mux.Vars(r)["id"]); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, content.ErrPackageNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusNoContent, nil)
}
