package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// minSelfPoints is the fewest records a self-view needs to draw a trend.
const minSelfPoints = 2

// VisualizeRequest describes one chart request.
type VisualizeRequest struct {
	Requester string
	Target    string // empty means the requester
	StartDate string
	EndDate   string
	Compare   bool
}

// VisualizeService assembles time series for charts and enforces the
// friendship rule: a player's stats are visible to themselves and to their
// friends only.
type VisualizeService struct {
	entries repository.EntryRepository
	friends repository.FriendRepository
	users   repository.UserRepository
	loc     *time.Location
}

func NewVisualizeService(
	entries repository.EntryRepository,
	friends repository.FriendRepository,
	users repository.UserRepository,
	loc *time.Location,
) *VisualizeService {
	if loc == nil {
		loc = time.Local
	}
	return &VisualizeService{entries: entries, friends: friends, users: users, loc: loc}
}

// Visualize returns the target's series, oldest first and capped at 100
// points.
//
//   - Self view: no friendship check. Fewer than two records sets NoRecords
//     instead of returning a one-point chart.
//   - Friend view: requires a friendship edge in either direction, else
//     Forbidden. With Compare the requester's own series is added as User,
//     filtered by the same date range.
func (s *VisualizeService) Visualize(ctx context.Context, req VisualizeRequest) (*model.Visualization, error) {
	r, err := parseDateRange(req.StartDate, req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}

	if req.Target == "" || req.Target == req.Requester {
		target, err := s.series(ctx, req.Requester, r)
		if err != nil {
			return nil, err
		}
		if len(target.Dates) < minSelfPoints {
			return &model.Visualization{NoRecords: true}, nil
		}
		return &model.Visualization{Target: target}, nil
	}

	ok, err := s.friends.AreFriends(ctx, req.Requester, req.Target)
	if err != nil {
		return nil, fmt.Errorf("service/visualize: checking friendship: %w", err)
	}
	if !ok {
		return nil, apperror.Forbidden("not authorized to view this user's stats")
	}

	v := &model.Visualization{}
	if v.Target, err = s.series(ctx, req.Target, r); err != nil {
		return nil, err
	}
	if req.Compare {
		if v.User, err = s.series(ctx, req.Requester, r); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *VisualizeService) series(ctx context.Context, email string, r repository.TimeRange) (*model.Series, error) {
	entries, err := s.entries.ListByOwner(ctx, email, r, false, repository.MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("service/visualize: listing entries for %s: %w", email, err)
	}

	sr := &model.Series{
		Dates:   make([]time.Time, 0, len(entries)),
		Goals:   make([]int, 0, len(entries)),
		Assists: make([]int, 0, len(entries)),
	}
	for _, e := range entries {
		sr.Dates = append(sr.Dates, e.CreatedAt.In(s.loc))
		sr.Goals = append(sr.Goals, e.Goals)
		sr.Assists = append(sr.Assists, e.Assists)
	}

	// A friend who never logged in has no user row; the chart still renders.
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		sr.Name = user.Name
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/visualize: getting user %s: %w", email, err)
	}
	return sr, nil
}
