package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/auth"
	"github.com/sakif/turflog/internal/handler"
	"github.com/sakif/turflog/internal/metrics"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository/sqlite"
	"github.com/sakif/turflog/internal/service"
)

// ============================================================
// Fakes for the outbound boundaries
// ============================================================

type fakeIdentity struct {
	users map[string]*auth.GoogleUser // by access token or code
}

func (f *fakeIdentity) Profile(_ context.Context, accessToken string) (*auth.GoogleUser, error) {
	if u, ok := f.users[accessToken]; ok {
		return u, nil
	}
	return nil, apperror.Unauthenticated("google rejected the access token")
}

func (f *fakeIdentity) Exchange(_ context.Context, code string) (*auth.GoogleUser, error) {
	if u, ok := f.users[code]; ok {
		return u, nil
	}
	return nil, apperror.Unauthenticated("google code exchange failed")
}

type fakeConsent struct{}

func (fakeConsent) AuthURL(state string) string {
	return "https://accounts.example/o/oauth2/auth?state=" + url.QueryEscape(state)
}

type fakeMatches struct {
	matches []model.Match
	err     error
}

func (f *fakeMatches) Matches(context.Context) ([]model.Match, error) { return f.matches, f.err }

type fakeTurfs struct {
	turfs []model.Turf
	err   error
}

func (f *fakeTurfs) NearbyTurfs(context.Context, float64, float64) ([]model.Turf, error) {
	return f.turfs, f.err
}

// ============================================================
// Test environment: real services over in-memory sqlite
// ============================================================

type testEnv struct {
	router  *chi.Mux
	db      *sqlite.DB
	tokens  *auth.TokenService
	matches *fakeMatches
	turfs   *fakeTurfs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	identity := &fakeIdentity{users: map[string]*auth.GoogleUser{
		"google-token-alice": {Email: "alice@turf.io", Name: "Alice", EmailVerified: true},
		"code-bob":           {Email: "bob@turf.io", Name: "Bob", EmailVerified: true},
	}}
	env := &testEnv{db: db, tokens: tokens, matches: &fakeMatches{}, turfs: &fakeTurfs{}}

	authSvc := service.NewAuthService(db.Users(), tokens, identity, logger)
	entrySvc := service.NewEntryService(db.Entries(), time.UTC, logger)
	vizSvc := service.NewVisualizeService(db.Entries(), db.Friends(), db.Users(), time.UTC)
	friendSvc := service.NewFriendService(db.Friends(), db.Users(), logger)
	annotationSvc := service.NewAnnotationService(db.Drawings(), db.Injuries(), logger)
	feedSvc := service.NewFeedService(db.Entries(), env.matches, env.turfs)
	suggestionSvc := service.NewSuggestionService(db.Suggestions(), logger)

	authH := handler.NewAuthHandler(authSvc, fakeConsent{}, logger)
	entryH := handler.NewEntryHandler(entrySvc, vizSvc, logger)
	friendH := handler.NewFriendHandler(friendSvc, logger)
	annotationH := handler.NewAnnotationHandler(annotationSvc, logger)
	feedH := handler.NewFeedHandler(feedSvc, suggestionSvc, logger)
	liveH := handler.NewLiveHandler(feedSvc, time.Hour, time.Hour, nil, metrics.New(), logger)

	r := chi.NewRouter()
	r.Post("/auth/google", authH.HandleTokenLogin)
	r.Get("/auth/google/login", authH.HandleGoogleLogin)
	r.Get("/auth/google/callback", authH.HandleGoogleCallback)
	r.Get("/logout", authH.HandleLogout)
	r.Get("/live_scores", liveH.HandleLiveScores)
	r.Get("/latest_entries", liveH.HandleLatestEntries)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/profile", authH.HandleProfile)
		r.Post("/entries", entryH.HandleSubmit)
		r.Delete("/entries/{id}", entryH.HandleDelete)
		r.Get("/players", entryH.HandleList)
		r.Get("/visualize/", entryH.HandleVisualizeSelf)
		r.Get("/visualize/{friendEmail}", entryH.HandleVisualizeFriend)
		r.Get("/player_leaderboard/{period}", entryH.HandleLeaderboard)
		r.Post("/request/{email}", friendH.HandleSend)
		r.Post("/accept/{id}", friendH.HandleAccept)
		r.Post("/reject/{id}", friendH.HandleReject)
		r.Get("/list", friendH.HandleList)
		r.Get("/requests", friendH.HandleRequests)
		r.Post("/pitch", annotationH.HandleCreateDrawing)
		r.Get("/pitch", annotationH.HandleListDrawings)
		r.Get("/shots", annotationH.HandleShots)
		r.Post("/injuries", annotationH.HandleCreateInjury)
		r.Get("/injuries", annotationH.HandleListInjuries)
		r.Put("/injuries/{id}", annotationH.HandleUpdateInjury)
		r.Delete("/injuries/{id}", annotationH.HandleDeleteInjury)
		r.Get("/turf_near_me", feedH.HandleTurfs)
		r.Post("/suggestions", feedH.HandleSuggestion)
	})
	env.router = r
	return env
}

// addUser makes email a known user (as if they had logged in once).
func (e *testEnv) addUser(t *testing.T, email, name string) {
	t.Helper()
	require.NoError(t, e.db.Users().Upsert(context.Background(), &model.User{Email: email, Name: name}))
}

// do sends a request as email; an empty email sends no token.
func (e *testEnv) do(t *testing.T, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		token, err := e.tokens.Issue(email)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, "body: %s", rr.Body.String())
	assert.Equal(t, kind, decode[handler.ErrorResponse](t, rr).Error)
}

// ============================================================
// Auth
// ============================================================

func TestTokenLogin(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/google", "", map[string]string{"access_token": "google-token-alice"})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[handler.TokenResponse](t, rr)
	assert.Equal(t, "bearer", res.TokenType)
	email, err := env.tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@turf.io", email)

	// The login created the user, so the profile exists.
	rr = env.do(t, http.MethodGet, "/profile", "alice@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Alice", decode[model.User](t, rr).Name)
}

func TestTokenLogin_Rejected(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/google", "", map[string]string{"access_token": "forged"})
	assertError(t, rr, http.StatusUnauthorized, "unauthenticated")

	rr = env.do(t, http.MethodPost, "/auth/google", "", "{not json")
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
}

func TestGoogleBrowserFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/auth/google/login", "", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	state := cookies[0].Value
	assert.Contains(t, rr.Header().Get("Location"), "state="+state)

	callback := func(state, code string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet,
			"/auth/google/callback?state="+url.QueryEscape(state)+"&code="+code, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		return rr
	}

	assertError(t, callback("other-state", "code-bob", cookies[0]), http.StatusBadRequest, "invalid_argument")
	assertError(t, callback(state, "code-bob", nil), http.StatusBadRequest, "invalid_argument")
	assertError(t, callback(state, "bad-code", cookies[0]), http.StatusUnauthorized, "unauthenticated")

	rr = callback(state, "code-bob", cookies[0])
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	email, err := env.tokens.Verify(decode[handler.TokenResponse](t, rr).AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "bob@turf.io", email)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/players", "/list", "/injuries", "/profile", "/visualize/"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/players", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// ============================================================
// Entries
// ============================================================

func TestEntries_SameDayReplaces(t *testing.T) {
	env := newTestEnv(t)
	const alice = "alice@turf.io"

	first := env.do(t, http.MethodPost, "/entries", alice, map[string]any{"position": "ST", "goals": 1, "assists": 0})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	id := decode[handler.IDResponse](t, first).ID
	require.NotEmpty(t, id)

	second := env.do(t, http.MethodPost, "/entries", alice, map[string]any{"position": "CM", "goals": 3, "assists": 2})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, id, decode[handler.IDResponse](t, second).ID)

	rr := env.do(t, http.MethodGet, "/players", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decode[[]model.Entry](t, rr)
	require.Len(t, entries, 1)
	assert.Equal(t, "CM", entries[0].Position)
	assert.Equal(t, 3, entries[0].Goals)
}

func TestEntries_Validation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/entries", "alice@turf.io", map[string]any{"goals": -1})
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = env.do(t, http.MethodGet, "/players?start_date=2026-13-01&end_date=2026-01-02", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
}

func TestEntries_DeleteIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/entries", "alice@turf.io", map[string]any{"goals": 1})
	id := decode[handler.IDResponse](t, rr).ID

	rr = env.do(t, http.MethodDelete, "/entries/"+id, "mallory@turf.io", nil)
	assertError(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodDelete, "/entries/"+id, "alice@turf.io", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, "/entries/"+id, "alice@turf.io", nil)
	assertError(t, rr, http.StatusNotFound, "not_found")
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@turf.io", "Alice")
	env.addUser(t, "bob@turf.io", "Bob")
	env.do(t, http.MethodPost, "/entries", "alice@turf.io", map[string]any{"goals": 1, "assists": 1})
	env.do(t, http.MethodPost, "/entries", "bob@turf.io", map[string]any{"goals": 4, "assists": 0})

	rr := env.do(t, http.MethodGet, "/player_leaderboard/weekly", "alice@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]model.LeaderboardRow](t, rr)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].Name)
	assert.Equal(t, 4, rows[0].GoalsAssists)
	assert.Equal(t, 2, rows[1].GoalsAssists)

	rr = env.do(t, http.MethodGet, "/player_leaderboard/yearly", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
	assert.Contains(t, rr.Body.String(), "yearly")
}

// ============================================================
// Visualize
// ============================================================

func TestVisualizeSelf_NotEnoughRecords(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/entries", "alice@turf.io", map[string]any{"goals": 1})

	rr := env.do(t, http.MethodGet, "/visualize/", "alice@turf.io", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "No records found for this player", decode[handler.MessageResponse](t, rr).Message)
}

func TestVisualizeFriend(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@turf.io", "Alice")
	env.addUser(t, "bob@turf.io", "Bob")
	env.do(t, http.MethodPost, "/entries", "bob@turf.io", map[string]any{"goals": 2, "assists": 1})
	env.do(t, http.MethodPost, "/entries", "alice@turf.io", map[string]any{"goals": 5, "assists": 0})

	rr := env.do(t, http.MethodGet, "/visualize/bob@turf.io", "alice@turf.io", nil)
	assertError(t, rr, http.StatusForbidden, "forbidden")

	sent := env.do(t, http.MethodPost, "/request/bob@turf.io", "alice@turf.io", nil)
	reqID := decode[handler.FriendResponse](t, sent).Request.ID
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/accept/"+reqID, "bob@turf.io", nil).Code)

	// Either side may look once the edge exists.
	rr = env.do(t, http.MethodGet, "/visualize/bob@turf.io?compare=true", "alice@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	v := decode[model.Visualization](t, rr)
	require.NotNil(t, v.Target)
	require.NotNil(t, v.User)
	assert.Equal(t, "Bob", v.Target.Name)
	assert.Equal(t, []int{2}, v.Target.Goals)
	assert.Equal(t, []int{5}, v.User.Goals)

	rr = env.do(t, http.MethodGet, "/visualize/alice@turf.io", "bob@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[model.Visualization](t, rr).User, "no compare, no user series")

	rr = env.do(t, http.MethodGet, "/visualize/bob@turf.io?compare=maybe", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
}

// ============================================================
// Friends
// ============================================================

func TestFriendFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@turf.io", "Alice")
	env.addUser(t, "bob@turf.io", "Bob")

	rr := env.do(t, http.MethodPost, "/request/bob@turf.io", "alice@turf.io", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reqID := decode[handler.FriendResponse](t, rr).Request.ID

	rr = env.do(t, http.MethodPost, "/request/bob@turf.io", "alice@turf.io", nil)
	assertError(t, rr, http.StatusConflict, "conflict")

	rr = env.do(t, http.MethodGet, "/requests", "bob@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	pending := decode[[]model.FriendRequest](t, rr)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "Alice", pending[0].Sender.Name)

	// Only the recipient can accept.
	rr = env.do(t, http.MethodPost, "/accept/"+reqID, "alice@turf.io", nil)
	assertError(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodPost, "/accept/"+reqID, "bob@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, decode[handler.FriendResponse](t, rr).Friendship)

	rr = env.do(t, http.MethodGet, "/list", "alice@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	friends := decode[[]model.UserSummary](t, rr)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob@turf.io", friends[0].Email)

	rr = env.do(t, http.MethodPost, "/request/alice@turf.io", "bob@turf.io", nil)
	assertError(t, rr, http.StatusConflict, "conflict")
}

func TestFriendRequest_UnknownUserAndReject(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@turf.io", "Alice")
	env.addUser(t, "bob@turf.io", "Bob")

	rr := env.do(t, http.MethodPost, "/request/ghost@turf.io", "alice@turf.io", nil)
	assertError(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodPost, "/request/bob@turf.io", "alice@turf.io", nil)
	reqID := decode[handler.FriendResponse](t, rr).Request.ID

	rr = env.do(t, http.MethodPost, "/reject/"+reqID, "bob@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/reject/"+reqID, "bob@turf.io", nil)
	assertError(t, rr, http.StatusConflict, "conflict")

	rr = env.do(t, http.MethodPost, "/accept/"+reqID, "bob@turf.io", nil)
	assertError(t, rr, http.StatusConflict, "conflict")
}

func TestFriendRequest_MutualAccepts(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@turf.io", "Alice")
	env.addUser(t, "bob@turf.io", "Bob")

	env.do(t, http.MethodPost, "/request/bob@turf.io", "alice@turf.io", nil)
	rr := env.do(t, http.MethodPost, "/request/alice@turf.io", "bob@turf.io", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[handler.FriendResponse](t, rr)
	assert.NotNil(t, res.Friendship)
	assert.Nil(t, res.Request)
}

// ============================================================
// Annotations
// ============================================================

func TestInjuries_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	const alice = "alice@turf.io"

	rr := env.do(t, http.MethodPost, "/injuries", alice,
		map[string]any{"injury_type": "hamstring", "duration": 14, "x": 0.4, "y": 0.7})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := decode[handler.IDResponse](t, rr).ID

	rr = env.do(t, http.MethodGet, "/injuries", alice, nil)
	injuries := decode[[]model.Injury](t, rr)
	require.Len(t, injuries, 1)
	require.Len(t, injuries[0].Spots, 1)
	assert.InDelta(t, 0.4, injuries[0].Spots[0].X, 1e-9)

	rr = env.do(t, http.MethodPut, "/injuries/"+id, alice, map[string]any{"injury_type": "ankle", "duration": 7})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[model.Injury](t, rr)
	assert.Equal(t, "ankle", updated.InjuryType)
	assert.Len(t, updated.Spots, 1, "spots kept when the update carries none")

	rr = env.do(t, http.MethodPut, "/injuries/"+id, "mallory@turf.io", map[string]any{"injury_type": "x", "duration": 1})
	assertError(t, rr, http.StatusNotFound, "not_found")
	rr = env.do(t, http.MethodDelete, "/injuries/"+id, "mallory@turf.io", nil)
	assertError(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodDelete, "/injuries/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodGet, "/injuries", alice, nil)
	assert.Empty(t, decode[[]model.Injury](t, rr))
}

func TestInjuries_Validation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/injuries", "alice@turf.io", map[string]any{"duration": 3})
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
}

func TestPitchAndShots(t *testing.T) {
	env := newTestEnv(t)
	const alice = "alice@turf.io"
	line := map[string]any{"start": map[string]float64{"x": 0.1, "y": 0.2}, "end": map[string]float64{"x": 0.5, "y": 0.9}}

	rr := env.do(t, http.MethodPost, "/pitch", alice, map[string]any{
		"image":  "data:image/png;base64,AAAA",
		"passes": []any{line},
		"shots":  []any{line, line},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decode[handler.MessageResponse](t, rr).ID)

	rr = env.do(t, http.MethodGet, "/pitch", alice, nil)
	drawings := decode[[]model.Drawing](t, rr)
	require.Len(t, drawings, 1)
	assert.Equal(t, "data:image/png;base64,AAAA", drawings[0].Image)

	rr = env.do(t, http.MethodGet, "/shots", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "image")
	assert.NotContains(t, rr.Body.String(), "passes")
	shots := decode[[]model.ShotView](t, rr)
	require.Len(t, shots, 1)
	assert.Len(t, shots[0].Shots, 2)

	rr = env.do(t, http.MethodGet, "/shots", "bob@turf.io", nil)
	assert.Empty(t, decode[[]model.ShotView](t, rr))
}

// ============================================================
// Turfs and suggestions
// ============================================================

func TestTurfs(t *testing.T) {
	env := newTestEnv(t)
	env.turfs.turfs = []model.Turf{{Name: "Dribble Arena", Lat: 19.07, Lng: 72.87, MapsURI: "https://maps.example/1"}}

	rr := env.do(t, http.MethodGet, "/turf_near_me?lat=19.07&long=72.87", "alice@turf.io", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"name":"Dribble Arena","lat":19.07,"lng":72.87,"mapsUri":"https://maps.example/1"}]`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/turf_near_me?lat=north", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = env.do(t, http.MethodGet, "/turf_near_me?lat=1", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")

	rr = env.do(t, http.MethodGet, "/turf_near_me?lat=NaN&long=72.87", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
	assert.Contains(t, rr.Body.String(), "NaN")

	rr = env.do(t, http.MethodGet, "/turf_near_me?lat=19.07&long=-Inf", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")

	env.turfs.err = apperror.UpstreamUnavailable("places", errors.New("quota exceeded"))
	rr = env.do(t, http.MethodGet, "/turf_near_me?lat=19.07&long=72.87", "alice@turf.io", nil)
	assertError(t, rr, http.StatusBadGateway, "upstream_unavailable")
	assert.NotContains(t, rr.Body.String(), "quota", "provider detail stays server-side")
}

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/suggestions", "alice@turf.io", map[string]string{"suggestion": "dark mode please"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, decode[handler.IDResponse](t, rr).ID)

	rr = env.do(t, http.MethodPost, "/suggestions", "alice@turf.io", map[string]string{"suggestion": "   "})
	assertError(t, rr, http.StatusBadRequest, "invalid_argument")
}
