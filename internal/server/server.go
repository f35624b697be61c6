// Package server is the composition root: it builds every dependency from
// the Config, mounts the routes and runs the HTTP server until a signal
// arrives.
//
// DEPENDENCY FLOW:
//
//	config.Config ─┬─ sqlite.DB ── repositories ─┐
//	               ├─ cache.Redis (optional) ────┼─ services ── handlers ── chi router
//	               ├─ scores / places clients ───┘
//	               └─ auth.TokenService, auth.GoogleProvider
//
// Handlers only see services, services only see repository interfaces.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/turflog/internal/auth"
	"github.com/sakif/turflog/internal/cache"
	"github.com/sakif/turflog/internal/config"
	"github.com/sakif/turflog/internal/handler"
	"github.com/sakif/turflog/internal/metrics"
	"github.com/sakif/turflog/internal/middleware"
	"github.com/sakif/turflog/internal/provider/places"
	"github.com/sakif/turflog/internal/provider/scores"
	sqliteRepo "github.com/sakif/turflog/internal/repository/sqlite"
	"github.com/sakif/turflog/internal/service"
)

const sweepInterval = time.Minute

// Server owns the router and every long-lived resource. Close releases them.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	cache   *cache.Redis // nil when REDIS_URL is unset
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter

	// baseCtx is the parent of every request context. Cancelling it on
	// shutdown stops websocket push loops, which http.Server.Shutdown does
	// not track once the connection is hijacked.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New opens the database (and Redis when configured) and wires the routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var redis *cache.Redis
	if cfg.RedisURL != "" {
		redis, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	} else {
		logger.Warn("REDIS_URL not set, turf searches will not be cached")
	}

	s, err := newWithStores(cfg, logger, db, redis)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newWithStores wires routes around already-open stores. Tests call it with
// an in-memory database.
func newWithStores(cfg *config.Config, logger *slog.Logger, db *sqliteRepo.DB, redis *cache.Redis) (*Server, error) {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		db:         db,
		cache:      redis,
		metrics:    metrics.New(),
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}
	s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, s.metrics.RateLimited, logger)

	if err := s.setupRoutes(); err != nil {
		return s, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes mounts every endpoint.
//
// PUBLIC:
//
//	POST /auth/google                 GET /auth/google/login, /auth/google/callback
//	GET  /logout                      GET /healthz, /metrics
//	WS   /live_scores, /latest_entries
//
// PROTECTED (bearer token, rate limited per email):
//
//	POST /entries                     DELETE /entries/{id}
//	GET  /players                     GET /visualize/, /visualize/{friendEmail}
//	GET  /player_leaderboard/{period}
//	POST /request/{email}, /accept/{id}, /reject/{id}
//	GET  /list, /requests
//	POST /pitch  GET /pitch, /shots
//	POST /injuries  GET /injuries  PUT/DELETE /injuries/{id}
//	GET  /profile, /turf_near_me      POST /suggestions
//
// Logging and metrics wrap everything, so 401s and 429s are recorded too.
func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	google := auth.NewGoogleProvider(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleCallbackURL)

	var turfCache places.Cache
	if s.cache != nil {
		turfCache = s.cache
	}
	turfs := places.New(cfg.Providers.PlacesURL, cfg.Providers.MapsAPIKey, turfCache, cfg.Providers.TurfCacheTTL, s.logger)
	matches := scores.New(cfg.Providers.FootballDataURL, cfg.Providers.FootballDataAPIKey)

	// === SERVICES ===
	authSvc := service.NewAuthService(s.db.Users(), tokens, google, s.logger)
	entrySvc := service.NewEntryService(s.db.Entries(), cfg.Location, s.logger)
	vizSvc := service.NewVisualizeService(s.db.Entries(), s.db.Friends(), s.db.Users(), cfg.Location)
	friendSvc := service.NewFriendService(s.db.Friends(), s.db.Users(), s.logger)
	annotationSvc := service.NewAnnotationService(s.db.Drawings(), s.db.Injuries(), s.logger)
	feedSvc := service.NewFeedService(s.db.Entries(), matches, turfs)
	suggestionSvc := service.NewSuggestionService(s.db.Suggestions(), s.logger)

	// === HANDLERS ===
	var consent handler.ConsentURLer
	if cfg.GoogleEnabled() {
		consent = google
	}
	authH := handler.NewAuthHandler(authSvc, consent, s.logger)
	entryH := handler.NewEntryHandler(entrySvc, vizSvc, s.logger)
	friendH := handler.NewFriendHandler(friendSvc, s.logger)
	annotationH := handler.NewAnnotationHandler(annotationSvc, s.logger)
	feedH := handler.NewFeedHandler(feedSvc, suggestionSvc, s.logger)
	liveH := handler.NewLiveHandler(feedSvc, cfg.Live.ScoresInterval, cfg.Live.EntriesInterval,
		cfg.Server.AllowedOrigins, s.metrics, s.logger)

	// === GLOBAL MIDDLEWARE ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// === PUBLIC ===
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Post("/auth/google", authH.HandleTokenLogin)
	if cfg.GoogleEnabled() {
		s.router.Get("/auth/google/login", authH.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authH.HandleGoogleCallback)
	}
	s.router.Get("/logout", authH.HandleLogout)

	s.router.Get("/live_scores", liveH.HandleLiveScores)
	s.router.Get("/latest_entries", liveH.HandleLatestEntries)

	// === PROTECTED ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Use(s.limiter.Handler)

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

	return nil
}

// handleHealth reports whether the stores answer. Redis is optional, so a
// Redis failure degrades the status without failing it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check: database", slog.String("error", err.Error()))
		status["status"], status["database"] = "unavailable", "unavailable"
		code = http.StatusServiceUnavailable
	}
	if s.cache != nil {
		status["cache"] = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("health check: cache", slog.String("error", err.Error()))
			status["cache"] = "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting connections and end websocket loops
//  2. wait up to 30s for in-flight requests
//  3. close Redis and the database
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: it would cut websocket streams. Handlers bound
		// their own writes.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return s.baseCtx },
	}
	srv.RegisterOnShutdown(s.cancelBase)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	sweepDone := make(chan struct{})
	defer close(sweepDone)
	go s.sweepLimiter(sweepDone)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("cache", s.cache != nil),
			slog.Bool("googleLogin", s.config.GoogleEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) sweepLimiter(done <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(); n > 0 {
				s.logger.Debug("rate limiter swept", slog.Int("removed", n))
			}
		}
	}
}

// Close releases the stores. It is safe to call more than once.
func (s *Server) Close() {
	s.cancelBase()
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
		s.cache = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("closing database", slog.String("error", err.Error()))
		}
		s.db = nil
	}
}
