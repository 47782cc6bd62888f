package webapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grimbang/nailart/studio"
)

type studioHandlers struct {
	svc *studio.Service
	log *slog.Logger
}

type generateRequest struct {
	Prompt string              `json:"prompt"`
	Images []studio.ImageInput `json:"images,omitempty"`
}

// generate handles POST /studio/generate.
func (h *studioHandlers) generate(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	thumb, err := h.svc.Generate(r.Context(), user, req.Prompt, req.Images)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"thumbnail": thumb})
}

// list handles GET /studio/thumbnails.
func (h *studioHandlers) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	thumbs, err := h.svc.List(r.Context(), user)
	if err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	if thumbs == nil {
		thumbs = []studio.Thumbnail{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"thumbnails": thumbs})
}

// delete handles DELETE /studio/thumbnails/{id}.
func (h *studioHandlers) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(r.Context())
	if !ok {
		respondError(r.Context(), w, h.log, ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid thumbnail id"})
		return
	}

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		respondError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
