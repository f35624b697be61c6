// Package config loads the service configuration once at startup.
//
// Values come from the environment, optionally seeded from a .env file.
// The resulting Config is passed explicitly to every component that needs
// it; nothing below main reads the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Providers ProviderConfig
	Live      LiveConfig
	RateLimit RateLimitConfig
	DBPath    string
	RedisURL  string
	Location  *time.Location // defines what a "calendar day" is
	LogLevel  slog.Level
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

type ProviderConfig struct {
	MapsAPIKey         string
	PlacesURL          string
	FootballDataAPIKey string
	FootballDataURL    string
	TurfCacheTTL       time.Duration
}

type LiveConfig struct {
	ScoresInterval  time.Duration
	EntriesInterval time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function. Tests pass a
// map-backed lookup instead of mutating the process environment.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}

	port := e.int("PORT", 8080)
	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			AllowedOrigins: e.list("ALLOWED_ORIGINS"),
		},
		Auth: AuthConfig{
			JWTSecret:          e.str("JWT_SECRET", ""),
			TokenTTL:           e.duration("TOKEN_TTL", 7*24*time.Hour),
			GoogleClientID:     e.str("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: e.str("GOOGLE_CLIENT_SECRET", ""),
			GoogleCallbackURL:  e.str("GOOGLE_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/google/callback", port)),
		},
		Providers: ProviderConfig{
			MapsAPIKey:         e.str("MAPS_API_KEY", ""),
			PlacesURL:          e.str("PLACES_URL", "https://places.googleapis.com/v1/places:searchText"),
			FootballDataAPIKey: e.str("FOOTBALL_DATA_API_KEY", ""),
			FootballDataURL:    e.str("FOOTBALL_DATA_URL", "https://api.football-data.org/v4"),
			TurfCacheTTL:       e.duration("TURF_CACHE_TTL", time.Hour),
		},
		Live: LiveConfig{
			ScoresInterval:  e.duration("LIVE_SCORES_INTERVAL", 10*time.Minute),
			EntriesInterval: e.duration("LATEST_ENTRIES_INTERVAL", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: e.float("RATE_LIMIT_RPS", 10),
			Burst:             e.int("RATE_LIMIT_BURST", 20),
		},
		DBPath:   e.str("DB_PATH", "data/turflog.db"),
		RedisURL: e.str("REDIS_URL", ""),
	}

	loc, err := time.LoadLocation(e.str("TIMEZONE", "Local"))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	cfg.Location = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(e.str("LOG_LEVEL", "info"))); err != nil {
		e.errs = append(e.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(e.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	if c.Live.ScoresInterval <= 0 || c.Live.EntriesInterval <= 0 {
		return errors.New("config: live feed intervals must be positive")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Server.Port)
	}
	return nil
}

// GoogleEnabled reports whether the browser OAuth flow can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}

// env collects parse errors instead of silently falling back.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	v := e.str(key, "")
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
