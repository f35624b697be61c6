package service

import (
	"context"
	"fmt"

	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// LatestFeedSize is how many entries the community feed shows.
const LatestFeedSize = 5

// MatchSource is the live scores provider (scores.Client).
type MatchSource interface {
	Matches(ctx context.Context) ([]model.Match, error)
}

// TurfFinder is the places provider (places.Client).
type TurfFinder interface {
	NearbyTurfs(ctx context.Context, lat, lng float64) ([]model.Turf, error)
}

// FeedService produces the snapshots the live channels push, plus the
// one-shot turf lookup. The latest-entries feed is global on purpose: it is
// the community activity feed. It carries display names, never emails.
type FeedService struct {
	entries repository.EntryRepository
	matches MatchSource
	turfs   TurfFinder
}

func NewFeedService(entries repository.EntryRepository, matches MatchSource, turfs TurfFinder) *FeedService {
	return &FeedService{entries: entries, matches: matches, turfs: turfs}
}

// LatestEntries returns the five most recent entries across all players.
func (s *FeedService) LatestEntries(ctx context.Context) ([]model.LatestEntry, error) {
	latest, err := s.entries.Latest(ctx, LatestFeedSize)
	if err != nil {
		return nil, fmt.Errorf("service/feed: latest entries: %w", err)
	}
	return latest, nil
}

// LiveScores passes provider errors through unchanged; they are already
// apperror.ErrUpstreamUnavailable.
func (s *FeedService) LiveScores(ctx context.Context) ([]model.Match, error) {
	return s.matches.Matches(ctx)
}

func (s *FeedService) NearbyTurfs(ctx context.Context, lat, lng float64) ([]model.Turf, error) {
	return s.turfs.NearbyTurfs(ctx, lat, lng)
}
