package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/turflog/internal/service"
)

// AnnotationHandler serves pitch drawings and injury records. Every route
// is owner-scoped: ids belonging to someone else answer 404.
type AnnotationHandler struct {
	annotations *service.AnnotationService
	logger      *slog.Logger
}

func NewAnnotationHandler(annotations *service.AnnotationService, logger *slog.Logger) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations, logger: logger}
}

// === PITCH DRAWINGS ===

// HTTP: POST /pitch {image, passes, shots}
func (h *AnnotationHandler) HandleCreateDrawing(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.DrawingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	d, err := h.annotations.CreateDrawing(r.Context(), email, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Pitch created successfully.", ID: d.ID})
}

// HTTP: GET /pitch
func (h *AnnotationHandler) HandleListDrawings(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	drawings, err := h.annotations.Drawings(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, drawings)
}

// HTTP: GET /shots
func (h *AnnotationHandler) HandleShots(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	shots, err := h.annotations.Shots(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shots)
}

// === INJURIES ===

// HTTP: POST /injuries {injury_type, duration, x, y} or {..., spots: [{x, y}]}
func (h *AnnotationHandler) HandleCreateInjury(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.InjuryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	injury, err := h.annotations.CreateInjury(r.Context(), email, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: injury.ID})
}

// HTTP: GET /injuries
func (h *AnnotationHandler) HandleListInjuries(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	injuries, err := h.annotations.Injuries(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, injuries)
}

// HandleUpdateInjury replaces type and duration; spots are replaced only
// when the body carries them.
//
// HTTP: PUT /injuries/{id}
func (h *AnnotationHandler) HandleUpdateInjury(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.InjuryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	injury, err := h.annotations.UpdateInjury(r.Context(), email, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, injury)
}

// HTTP: DELETE /injuries/{id}
func (h *AnnotationHandler) HandleDeleteInjury(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.annotations.DeleteInjury(r.Context(), email, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
