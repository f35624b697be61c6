// Package live runs the periodic push loops behind the websocket feeds.
//
// A loop belongs to exactly one connection. It sends a snapshot straight
// away, then one per tick, and stops when its context is cancelled (the
// client went away or the server is shutting down) or when a send fails.
// Loops share nothing, so a slow client only slows itself.
package live

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/metrics"
)

// Sink receives snapshots. The websocket connection is the production Sink.
type Sink interface {
	Send(v any) error
}

// SnapshotFunc produces the value pushed on each tick.
type SnapshotFunc func(ctx context.Context) (any, error)

// Observer is told about every push. *metrics.Metrics implements it.
type Observer interface {
	LivePushed(channel, outcome string)
}

// Channel describes one feed.
type Channel struct {
	Name     string
	Interval time.Duration
	Snapshot SnapshotFunc
}

// ErrorFrame is pushed in place of a snapshot when producing it failed, so
// clients can tell "provider down" from "nothing to show".
type ErrorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Run drives ch until ctx is done (returns nil) or sink fails (returns the
// send error). A failing snapshot does not end the loop; the next tick
// tries again.
func Run(ctx context.Context, ch Channel, sink Sink, obs Observer, logger *slog.Logger) error {
	if ch.Interval <= 0 {
		return errors.New("live: interval must be positive")
	}

	ticker := time.NewTicker(ch.Interval)
	defer ticker.Stop()

	for {
		if err := push(ctx, ch, sink, obs, logger); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func push(ctx context.Context, ch Channel, sink Sink, obs Observer, logger *slog.Logger) error {
	v, err := ch.Snapshot(ctx)
	if ctx.Err() != nil {
		// Cancelled mid-snapshot: nobody is listening any more.
		return nil
	}

	outcome := metrics.OutcomeOK
	if err != nil {
		var frame ErrorFrame
		switch {
		case errors.Is(err, apperror.ErrUpstreamUnavailable):
			outcome = metrics.OutcomeUpstream
			frame = ErrorFrame{Error: "upstream_unavailable", Message: messageOf(err)}
			logger.Warn("live snapshot: upstream unavailable", "channel", ch.Name, "error", err)
		default:
			outcome = metrics.OutcomeError
			frame = ErrorFrame{Error: "internal", Message: "snapshot failed"}
			logger.Error("live snapshot failed", "channel", ch.Name, "error", err)
		}
		v = frame
	}

	if err := sink.Send(v); err != nil {
		return err
	}
	if obs != nil {
		obs.LivePushed(ch.Name, outcome)
	}
	return nil
}

func messageOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "upstream unavailable"
}
