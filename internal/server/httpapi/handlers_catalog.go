package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type catalogRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"isActive"`
}

func (h *Handler) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	list, err := h.catalog.ListActive(r.Context(), kind)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	var req catalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	e, err := h.catalog.Add(r.Context(), kind, req.Name)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleUpdateCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	var req catalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	e, err := h.catalog.Update(r.Context(), kind, chi.URLParam(r, "id"), req.Name, active)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDeactivateCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if err := h.catalog.Deactivate(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "deactivated")
}
