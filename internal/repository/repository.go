// Package repository declares the persistence contracts the services depend on.
//
// Every method that touches an owned record takes the owner's email and
// applies it in the query itself, so a foreign id behaves exactly like a
// missing one (apperror.ErrNotFound).
package repository

import (
	"context"
	"time"

	"github.com/sakif/turflog/internal/model"
)

// MaxListLimit caps every list query.
const MaxListLimit = 100

// TimeRange is a half-open [From, To) window on created_at. A zero value means
// "unbounded".
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether no window was given.
func (r TimeRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

type UserRepository interface {
	// Upsert creates the user on first login and re-syncs name/picture after.
	Upsert(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByEmails(ctx context.Context, emails []string) ([]model.User, error)
}

type EntryRepository interface {
	// UpsertDay atomically inserts entry or, if the owner already has an entry
	// for entry.DayStart, overwrites it. entry.ID is set to the surviving id.
	UpsertDay(ctx context.Context, entry *model.Entry) (created bool, err error)
	Delete(ctx context.Context, owner, id string) error
	// ListByOwner orders by created_at; newestFirst flips the order.
	ListByOwner(ctx context.Context, owner string, r TimeRange, newestFirst bool, limit int) ([]model.Entry, error)
	// Since returns every entry created at or after t, oldest first, with the
	// owner's display name.
	Since(ctx context.Context, t time.Time) ([]model.LeaderboardRow, error)
	// Latest returns the most recent entries across all owners.
	Latest(ctx context.Context, limit int) ([]model.LatestEntry, error)
}

type DrawingRepository interface {
	Create(ctx context.Context, d *model.Drawing) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]model.Drawing, error)
}

type InjuryRepository interface {
	// Create writes the injury and its spots as one unit.
	Create(ctx context.Context, injury *model.Injury) error
	// Update replaces type and duration; spots are replaced when non-nil.
	Update(ctx context.Context, injury *model.Injury) error
	// Delete removes the injury together with its spots.
	Delete(ctx context.Context, owner, id string) error
	Get(ctx context.Context, owner, id string) (*model.Injury, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Injury, error)
}

type FriendRepository interface {
	// CreateRequest fails with ErrConflict when a pending request already
	// exists for the same (sender, recipient).
	CreateRequest(ctx context.Context, req *model.FriendRequest) error
	GetRequest(ctx context.Context, id string) (*model.FriendRequest, error)
	// FindPending returns the pending request sender -> recipient, or ErrNotFound.
	FindPending(ctx context.Context, sender, recipient string) (*model.FriendRequest, error)
	ListPendingFor(ctx context.Context, recipient string) ([]model.FriendRequest, error)
	// Accept moves a pending request addressed to recipient to accepted and
	// creates the friendship edge in the same transaction. Accepting an
	// already-accepted request is a no-op that returns the existing edge.
	Accept(ctx context.Context, id, recipient string, at time.Time) (*model.Friendship, error)
	// Reject moves a pending request addressed to recipient to rejected.
	Reject(ctx context.Context, id, recipient string, at time.Time) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriendships(ctx context.Context, email string) ([]model.Friendship, error)
}

type SuggestionRepository interface {
	CreateSuggestion(ctx context.Context, s *model.Suggestion) error
}
