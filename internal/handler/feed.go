package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/service"
)

// FeedHandler serves the remaining one-shot endpoints: nearby turfs and
// the suggestion box.
type FeedHandler struct {
	feed        *service.FeedService
	suggestions *service.SuggestionService
	logger      *slog.Logger
}

func NewFeedHandler(feed *service.FeedService, suggestions *service.SuggestionService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, suggestions: suggestions, logger: logger}
}

// HTTP: GET /turf_near_me?lat=19.07&long=72.87
func (h *FeedHandler) HandleTurfs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "lat")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	lng, err := floatParam(q.Get("long"), "long")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	turfs, err := h.feed.NearbyTurfs(r.Context(), lat, lng)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, turfs)
}

type suggestionRequest struct {
	Suggestion string `json:"suggestion"`
}

// HTTP: POST /suggestions {suggestion}
func (h *FeedHandler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req suggestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	s, err := h.suggestions.Submit(r.Context(), email, req.Suggestion)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: s.ID})
}

func floatParam(raw, field string) (float64, error) {
	if raw == "" {
		return 0, apperror.InvalidArgument(field, raw, field+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperror.InvalidArgument(field, raw, field+" must be a number")
	}
	return v, nil
}
