package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/service"
)

// FriendResponse acknowledges a friend-graph action and carries whatever
// record it produced.
type FriendResponse struct {
	Message    string               `json:"message"`
	Request    *model.FriendRequest `json:"request,omitempty"`
	Friendship *model.Friendship    `json:"friendship,omitempty"`
}

type FriendHandler struct {
	friends *service.FriendService
	logger  *slog.Logger
}

func NewFriendHandler(friends *service.FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friends: friends, logger: logger}
}

// HandleSend sends a request, or accepts the recipient's own pending
// request to the caller when there is one.
//
// HTTP: POST /request/{email}
func (h *FriendHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.friends.SendRequest(r.Context(), email, chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if res.Friendship != nil {
		writeJSON(w, http.StatusOK, FriendResponse{Message: "Friend request accepted", Friendship: res.Friendship})
		return
	}
	writeJSON(w, http.StatusCreated, FriendResponse{Message: "Friend request sent", Request: res.Request})
}

// HTTP: POST /accept/{id}
func (h *FriendHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	edge, err := h.friends.Accept(r.Context(), email, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FriendResponse{Message: "Friend request accepted", Friendship: edge})
}

// HTTP: POST /reject/{id}
func (h *FriendHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.friends.Reject(r.Context(), email, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FriendResponse{Message: "Friend request rejected"})
}

// HTTP: GET /list
func (h *FriendHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	friends, err := h.friends.Friends(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// HTTP: GET /requests
func (h *FriendHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reqs, err := h.friends.PendingRequests(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}
