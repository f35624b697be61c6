package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

const maxPositionLength = 32

// Leaderboard periods and their lookback windows.
var leaderboardPeriods = map[string]time.Duration{
	"daily":   24 * time.Hour,
	"weekly":  7 * 24 * time.Hour,
	"monthly": 30 * 24 * time.Hour,
}

// EntryInput is what a player submits for a session.
type EntryInput struct {
	Position string `json:"position"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
}

// EntryService is the Entry Ledger: per-owner, per-day performance records.
//
// "Calendar day" is evaluated in loc at the moment of the write. A caller
// cannot choose the day; a submission always lands on today.
type EntryService struct {
	entries repository.EntryRepository
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

func NewEntryService(entries repository.EntryRepository, loc *time.Location, logger *slog.Logger) *EntryService {
	if loc == nil {
		loc = time.Local
	}
	return &EntryService{
		entries: entries,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Submit records today's stats for owner. A second submission on the same
// day replaces the first one's fields and keeps its id; created reports
// which of the two happened.
func (s *EntryService) Submit(ctx context.Context, owner string, in EntryInput) (entry *model.Entry, created bool, err error) {
	if err := validateEntry(&in); err != nil {
		return nil, false, err
	}

	now := s.now().In(s.loc)
	entry = &model.Entry{
		Email:     owner,
		Position:  in.Position,
		Goals:     in.Goals,
		Assists:   in.Assists,
		CreatedAt: now,
		DayStart:  midnight(now),
	}

	created, err = s.entries.UpsertDay(ctx, entry)
	if err != nil {
		return nil, false, fmt.Errorf("service/entry: upserting: %w", err)
	}

	s.logger.Info("entry upserted",
		slog.String("id", entry.ID),
		slog.String("email", owner),
		slog.Bool("created", created),
	)
	return entry, created, nil
}

// Delete removes one of owner's entries. Someone else's id is reported
// exactly like a missing one.
func (s *EntryService) Delete(ctx context.Context, owner, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.InvalidArgument("id", id, "entry id is required")
	}
	if err := s.entries.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("service/entry: deleting %s: %w", id, err)
	}
	s.logger.Info("entry deleted", slog.String("id", id), slog.String("email", owner))
	return nil
}

// List returns owner's entries newest first, at most 100, optionally within
// [startDate, endDate] (both inclusive, YYYY-MM-DD).
func (s *EntryService) List(ctx context.Context, owner, startDate, endDate string) ([]model.Entry, error) {
	r, err := parseDateRange(startDate, endDate, s.loc)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByOwner(ctx, owner, r, true, repository.MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("service/entry: listing: %w", err)
	}
	return entries, nil
}

// Leaderboard ranks every entry created within the period's lookback window
// by goals+assists, highest first. Equal totals keep their retrieval order
// (oldest first).
func (s *EntryService) Leaderboard(ctx context.Context, period string) ([]model.LeaderboardRow, error) {
	window, ok := leaderboardPeriods[period]
	if !ok {
		return nil, apperror.InvalidArgument("period", period, "period must be daily, weekly or monthly")
	}

	rows, err := s.entries.Since(ctx, s.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("service/entry: leaderboard: %w", err)
	}

	for i := range rows {
		rows[i].GoalsAssists = rows[i].Goals + rows[i].Assists
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].GoalsAssists > rows[j].GoalsAssists
	})
	return rows, nil
}

func validateEntry(in *EntryInput) error {
	in.Position = strings.TrimSpace(in.Position)
	if len(in.Position) > maxPositionLength {
		return apperror.InvalidArgument("position", in.Position,
			fmt.Sprintf("position must be at most %d characters", maxPositionLength))
	}
	if in.Goals < 0 {
		return apperror.InvalidArgument("goals", fmt.Sprint(in.Goals), "goals must not be negative")
	}
	if in.Assists < 0 {
		return apperror.InvalidArgument("assists", fmt.Sprint(in.Assists), "assists must not be negative")
	}
	return nil
}
