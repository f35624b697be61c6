package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sakif/turflog/internal/live"
	"github.com/sakif/turflog/internal/service"
)

const (
	liveScoresChannel    = "live_scores"
	latestEntriesChannel = "latest_entries"

	writeWait = 10 * time.Second
	// Clients only ever send control frames; anything bigger is abuse.
	maxClientMessage = 512
)

// LiveObserver is told about connections and pushes. *metrics.Metrics
// implements it.
type LiveObserver interface {
	live.Observer
	LiveConnected(channel string) (done func())
}

// LiveHandler upgrades /live_scores and /latest_entries to websockets and
// runs one push loop per connection.
type LiveHandler struct {
	feed            *service.FeedService
	upgrader        websocket.Upgrader
	scoresInterval  time.Duration
	entriesInterval time.Duration
	observer        LiveObserver
	logger          *slog.Logger
}

// NewLiveHandler builds the websocket endpoints. allowedOrigins restricts
// the browser origins that may connect; empty allows any.
func NewLiveHandler(
	feed *service.FeedService,
	scoresInterval, entriesInterval time.Duration,
	allowedOrigins []string,
	observer LiveObserver,
	logger *slog.Logger,
) *LiveHandler {
	return &LiveHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		scoresInterval:  scoresInterval,
		entriesInterval: entriesInterval,
		observer:        observer,
		logger:          logger,
	}
}

// HTTP: GET /live_scores (websocket). Pushes the match list every
// scoresInterval.
func (h *LiveHandler) HandleLiveScores(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, live.Channel{
		Name:     liveScoresChannel,
		Interval: h.scoresInterval,
		Snapshot: func(ctx context.Context) (any, error) { return h.feed.LiveScores(ctx) },
	})
}

// HTTP: GET /latest_entries (websocket). Pushes the newest entries across
// all players every entriesInterval.
func (h *LiveHandler) HandleLatestEntries(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, live.Channel{
		Name:     latestEntriesChannel,
		Interval: h.entriesInterval,
		Snapshot: func(ctx context.Context) (any, error) { return h.feed.LatestEntries(ctx) },
	})
}

func (h *LiveHandler) serve(w http.ResponseWriter, r *http.Request, ch live.Channel) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.String("channel", ch.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	if h.observer != nil {
		done := h.observer.LiveConnected(ch.Name)
		defer done()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read loop is the only way to notice a client going away on a
	// hijacked connection. It also processes ping/close control frames.
	conn.SetReadLimit(maxClientMessage)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("live client connected",
		slog.String("channel", ch.Name),
		slog.String("remote", r.RemoteAddr),
	)

	err = live.Run(ctx, ch, &wsSink{conn: conn}, h.observer, h.logger)
	if err != nil {
		h.logger.Info("live client dropped",
			slog.String("channel", ch.Name),
			slog.String("error", err.Error()),
		)
		return
	}

	// Server-side stop (shutdown) gets a proper close frame; after a client
	// disconnect this write simply fails.
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
	h.logger.Info("live client disconnected", slog.String("channel", ch.Name))
}

// wsSink adapts a websocket connection to live.Sink. live.Run is its only
// writer, which is what gorilla requires.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(v any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return origin == "" || slices.Contains(allowed, origin)
	}
}
