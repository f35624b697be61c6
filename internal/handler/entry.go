package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/service"
)

// noRecordsMessage is returned by the self view when there is not enough
// history to draw a chart.
const noRecordsMessage = "No records found for this player"

// EntryHandler serves the match ledger, charts and the leaderboard.
type EntryHandler struct {
	entries   *service.EntryService
	visualize *service.VisualizeService
	logger    *slog.Logger
}

func NewEntryHandler(entries *service.EntryService, visualize *service.VisualizeService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, visualize: visualize, logger: logger}
}

// HandleSubmit records today's stats. A second submission on the same
// calendar day replaces the first and keeps its id; the status code tells
// the two apart (201 created, 200 replaced).
//
// HTTP: POST /entries {position, goals, assists}
func (h *EntryHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, created, err := h.entries.Submit(r.Context(), email, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, IDResponse{ID: entry.ID})
}

// HTTP: DELETE /entries/{id}
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.entries.Delete(r.Context(), email, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Entry deleted successfully"})
}

// HandleList returns the caller's entries, newest first.
//
// HTTP: GET /players?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	entries, err := h.entries.List(r.Context(), email, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleVisualizeSelf returns the caller's own series as
// {name, dates, goals, assists}, or a message when fewer than two records
// fall in the range.
//
// HTTP: GET /visualize/?start_date=&end_date=
func (h *EntryHandler) HandleVisualizeSelf(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	v, err := h.visualize.Visualize(r.Context(), service.VisualizeRequest{
		Requester: email,
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if v.NoRecords {
		writeJSON(w, http.StatusOK, MessageResponse{Message: noRecordsMessage})
		return
	}
	writeJSON(w, http.StatusOK, v.Target)
}

// HandleVisualizeFriend returns {"friend": series} and, with compare=true,
// the caller's own series under "user". Non-friends get 403.
//
// HTTP: GET /visualize/{friend_email}?start_date=&end_date=&compare=true
func (h *EntryHandler) HandleVisualizeFriend(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	compare := false
	if raw := q.Get("compare"); raw != "" {
		if compare, err = strconv.ParseBool(raw); err != nil {
			writeError(w, h.logger, apperror.InvalidArgument("compare", raw, "compare must be true or false"))
			return
		}
	}

	v, err := h.visualize.Visualize(r.Context(), service.VisualizeRequest{
		Requester: email,
		Target:    chi.URLParam(r, "friendEmail"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Compare:   compare,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if v.NoRecords {
		// friend_email was the caller's own address.
		writeJSON(w, http.StatusOK, MessageResponse{Message: noRecordsMessage})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HTTP: GET /player_leaderboard/{period}   period ∈ daily | weekly | monthly
func (h *EntryHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.entries.Leaderboard(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
