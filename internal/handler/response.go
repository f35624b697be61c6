package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// error shape:
//
//	{"error": "not_found", "message": "injury not found with id abc123"}
//
// The "error" field is machine-readable and stable; "message" is for humans.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/auth"
)

// maxBodyBytes bounds request bodies. Drawings carry a data-URL image, so
// this sits a little above the service's image limit.
const maxBodyBytes = 6 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse acknowledges actions that have nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID string `json:"id"`
}

// writeJSON sets headers, then status, then body. Headers written after the
// first body byte are silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each apperror sentinel to its HTTP status and wire name.
var errorKinds = []struct {
	target error
	status int
	kind   string
}{
	{apperror.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{apperror.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
}

// writeError maps a domain error to its HTTP status. Services never see
// status codes; this is the only place the translation happens.
//
// Anything that is not an *AppError is a bug or an infrastructure failure:
// it is logged in full and the client gets a generic 500, never the raw
// error text (which may contain SQL or file paths).
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if errors.Is(appErr.Err, k.target) {
				if k.status == http.StatusBadGateway {
					logger.Warn("upstream failure", slog.String("error", err.Error()))
				}
				writeJSON(w, k.status, ErrorResponse{Error: k.kind, Message: appErr.Message})
				return
			}
		}
	}

	logger.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. Malformed input becomes an
// InvalidArgument so it flows through writeError like any other 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.InvalidArgument("body", fmt.Sprintf("%d+ bytes", tooLarge.Limit),
				"request body too large")
		}
		return apperror.InvalidArgument("body", err.Error(), "request body must be valid JSON")
	}
	return nil
}

// caller returns the authenticated email. Every handler that calls it is
// mounted behind auth.RequireAuth, so a miss means the route was wired
// wrongly; it is still answered with 401 rather than a panic.
func caller(r *http.Request) (string, error) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthenticated("authentication required")
	}
	return email, nil
}
