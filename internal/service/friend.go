package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// FriendService is the friend graph.
//
// STATE MACHINE (per directed sender → recipient pair):
//
//	none → pending → accepted   (creates the friendship edge)
//	               ↘ rejected
//
// A pending request blocks another one in the same direction. If the
// recipient sends a request back while the first is still pending, the first
// is accepted instead: both sides asked, so they are friends.
type FriendService struct {
	friends repository.FriendRepository
	users   repository.UserRepository
	now     func() time.Time
	logger  *slog.Logger
}

func NewFriendService(friends repository.FriendRepository, users repository.UserRepository, logger *slog.Logger) *FriendService {
	return &FriendService{friends: friends, users: users, now: time.Now, logger: logger}
}

// SendResult tells the caller whether a request was created or an inverse
// pending request was accepted instead.
type SendResult struct {
	Request    *model.FriendRequest `json:"request,omitempty"`
	Friendship *model.Friendship    `json:"friendship,omitempty"`
}

func (s *FriendService) SendRequest(ctx context.Context, sender, recipient string) (*SendResult, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, apperror.InvalidArgument("email", recipient, "recipient email is required")
	}
	if strings.EqualFold(recipient, sender) {
		return nil, apperror.InvalidArgument("email", recipient, "cannot send a friend request to yourself")
	}

	if _, err := s.users.GetByEmail(ctx, recipient); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", recipient)
		}
		return nil, fmt.Errorf("service/friend: looking up recipient: %w", err)
	}

	already, err := s.friends.AreFriends(ctx, sender, recipient)
	if err != nil {
		return nil, fmt.Errorf("service/friend: checking friendship: %w", err)
	}
	if already {
		return nil, apperror.Conflict("friend request", "already friends with "+recipient)
	}

	// Mutual request: accept the one already waiting on the sender.
	inverse, err := s.friends.FindPending(ctx, recipient, sender)
	switch {
	case err == nil:
		edge, err := s.friends.Accept(ctx, inverse.ID, sender, s.now())
		if err != nil {
			return nil, fmt.Errorf("service/friend: auto-accepting %s: %w", inverse.ID, err)
		}
		s.logger.Info("friend request auto-accepted",
			slog.String("requestID", inverse.ID),
			slog.String("sender", recipient),
			slog.String("recipient", sender),
		)
		return &SendResult{Friendship: edge}, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/friend: checking inverse request: %w", err)
	}

	req := &model.FriendRequest{
		SenderEmail:    sender,
		RecipientEmail: recipient,
		CreatedAt:      s.now(),
	}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/friend: creating request: %w", err)
	}

	s.logger.Info("friend request sent",
		slog.String("requestID", req.ID),
		slog.String("sender", sender),
		slog.String("recipient", recipient),
	)
	return &SendResult{Request: req}, nil
}

// Accept is only allowed for the request's recipient. Anyone else gets
// NotFound. Accepting twice returns the same edge.
func (s *FriendService) Accept(ctx context.Context, recipient, requestID string) (*model.Friendship, error) {
	edge, err := s.friends.Accept(ctx, requestID, recipient, s.now())
	if err != nil {
		return nil, fmt.Errorf("service/friend: accepting %s: %w", requestID, err)
	}
	s.logger.Info("friend request accepted",
		slog.String("requestID", requestID),
		slog.String("recipient", recipient),
	)
	return edge, nil
}

func (s *FriendService) Reject(ctx context.Context, recipient, requestID string) error {
	if err := s.friends.Reject(ctx, requestID, recipient, s.now()); err != nil {
		return fmt.Errorf("service/friend: rejecting %s: %w", requestID, err)
	}
	s.logger.Info("friend request rejected",
		slog.String("requestID", requestID),
		slog.String("recipient", recipient),
	)
	return nil
}

// Friends resolves every edge to the other party's public profile. A friend
// without a user row is listed by email alone.
func (s *FriendService) Friends(ctx context.Context, email string) ([]model.UserSummary, error) {
	edges, err := s.friends.ListFriendships(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing friendships: %w", err)
	}

	others := make([]string, 0, len(edges))
	for i := range edges {
		others = append(others, edges[i].Other(email))
	}

	users, err := s.users.ListByEmails(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("service/friend: resolving friends: %w", err)
	}
	byEmail := make(map[string]model.UserSummary, len(users))
	for i := range users {
		byEmail[users[i].Email] = users[i].Summary()
	}

	friends := make([]model.UserSummary, 0, len(others))
	for _, o := range others {
		if u, ok := byEmail[o]; ok {
			friends = append(friends, u)
			continue
		}
		friends = append(friends, model.UserSummary{Email: o})
	}
	return friends, nil
}

// PendingRequests lists requests waiting on email, with sender profiles.
func (s *FriendService) PendingRequests(ctx context.Context, email string) ([]model.FriendRequest, error) {
	reqs, err := s.friends.ListPendingFor(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing requests: %w", err)
	}
	return reqs, nil
}
