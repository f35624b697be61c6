package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/service"
)

const stateCookie = "oauth_state"

// TokenResponse is what every successful login returns.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ConsentURLer builds the Google consent-screen URL. *auth.GoogleProvider
// implements it.
type ConsentURLer interface {
	AuthURL(state string) string
}

// AuthHandler exchanges Google identities for our bearer tokens.
//
//   - HandleTokenLogin     → POST /auth/google          {access_token}
//   - HandleGoogleLogin    → GET  /auth/google/login    (browser redirect)
//   - HandleGoogleCallback → GET  /auth/google/callback (code exchange)
//   - HandleLogout         → GET  /logout
//   - HandleProfile        → GET  /profile             (protected)
type AuthHandler struct {
	auth    *service.AuthService
	consent ConsentURLer // nil when the browser flow is not configured
	logger  *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, consent ConsentURLer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, consent: consent, logger: logger}
}

type tokenLoginRequest struct {
	AccessToken string `json:"access_token"`
}

// HandleTokenLogin serves clients that finished Google sign-in themselves
// and hold a Google access token.
func (h *AuthHandler) HandleTokenLogin(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.LoginWithAccessToken(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: res.Token, TokenType: "bearer"})
}

// HandleGoogleLogin redirects to Google with a random state that is also
// stored in a short-lived cookie. The callback rejects any state that does
// not match, which stops CSRF-initiated logins.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.consent == nil {
		writeError(w, h.logger, apperror.NotFound("login provider", "google"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.consent.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the browser flow and returns the same JSON
// as HandleTokenLogin.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.InvalidArgument("state", r.URL.Query().Get("state"), "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", denied))
		writeError(w, h.logger, apperror.Unauthenticated("authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.InvalidArgument("code", "", "missing OAuth code"))
		return
	}

	res, err := h.auth.LoginWithCode(r.Context(), code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: res.Token, TokenType: "bearer"})
}

// HandleLogout is an acknowledgement only. Tokens are stateless; the client
// forgets its token and it expires on its own.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	email, err := caller(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.auth.Profile(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
