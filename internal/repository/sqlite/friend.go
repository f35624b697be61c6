package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

var _ repository.FriendRepository = (*FriendDB)(nil)

// FriendDB stores friend requests and the friendship edges they produce.
type FriendDB struct {
	conn *sql.DB
}

const requestColumns = `id, sender_email, recipient_email, status, created_at, updated_at`

// CreateRequest inserts a pending request. The partial unique index on
// pending (sender, recipient) rows turns a duplicate into a no-op insert,
// which is reported as a conflict.
func (f *FriendDB) CreateRequest(ctx context.Context, req *model.FriendRequest) error {
	req.ID = xid.New().String()
	req.Status = model.RequestPending

	result, err := f.conn.ExecContext(ctx,
		`INSERT INTO friend_requests (id, sender_email, recipient_email, status, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		req.ID,
		req.SenderEmail,
		req.RecipientEmail,
		req.Status,
		toMicros(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting friend request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.Conflict("friend request", "a request to "+req.RecipientEmail+" is already pending")
	}
	return nil
}

func (f *FriendDB) GetRequest(ctx context.Context, id string) (*model.FriendRequest, error) {
	row := f.conn.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friend_requests WHERE id = ?", id)

	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("friend request", id)
		}
		return nil, fmt.Errorf("sqlite: getting friend request %s: %w", id, err)
	}
	return req, nil
}

func (f *FriendDB) FindPending(ctx context.Context, sender, recipient string) (*model.FriendRequest, error) {
	row := f.conn.QueryRowContext(ctx,
		"SELECT "+requestColumns+` FROM friend_requests
		 WHERE sender_email = ? AND recipient_email = ? AND status = ?`,
		sender, recipient, model.RequestPending,
	)

	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("friend request", sender+"->"+recipient)
		}
		return nil, fmt.Errorf("sqlite: finding pending request: %w", err)
	}
	return req, nil
}

// ListPendingFor returns requests waiting on recipient, newest first, each
// with the sender's public profile attached.
func (f *FriendDB) ListPendingFor(ctx context.Context, recipient string) ([]model.FriendRequest, error) {
	rows, err := f.conn.QueryContext(ctx,
		`SELECT r.id, r.sender_email, r.recipient_email, r.status, r.created_at, r.updated_at,
		        COALESCE(u.name, ''), COALESCE(u.profile_pic_url, '')
		 FROM friend_requests r
		 LEFT JOIN users u ON u.email = r.sender_email
		 WHERE r.recipient_email = ? AND r.status = ?
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT ?`,
		recipient, model.RequestPending, repository.MaxListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for %s: %w", recipient, err)
	}
	defer rows.Close()

	requests := make([]model.FriendRequest, 0)
	for rows.Next() {
		var (
			req     model.FriendRequest
			created int64
			updated sql.NullInt64
			sender  model.UserSummary
		)
		if err := rows.Scan(&req.ID, &req.SenderEmail, &req.RecipientEmail, &req.Status, &created, &updated,
			&sender.Name, &sender.ProfilePicURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning friend request: %w", err)
		}
		req.CreatedAt = fromMicros(created)
		if updated.Valid {
			t := fromMicros(updated.Int64)
			req.UpdatedAt = &t
		}
		sender.Email = req.SenderEmail
		req.Sender = &sender
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating friend requests: %w", err)
	}
	return requests, nil
}

// Accept runs the status change and the edge insert in one transaction.
//
// The edge is keyed by request_id with ON CONFLICT DO NOTHING, so replaying
// the acceptance of an already-accepted request finds the existing edge
// instead of creating a second one. A request addressed to someone else is
// reported as not found.
func (f *FriendDB) Accept(ctx context.Context, id, recipient string, at time.Time) (*model.Friendship, error) {
	tx, err := f.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning accept tx: %w", err)
	}
	defer rollback(tx)

	var sender, to, status string
	err = tx.QueryRowContext(ctx,
		"SELECT sender_email, recipient_email, status FROM friend_requests WHERE id = ?", id,
	).Scan(&sender, &to, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("friend request", id)
		}
		return nil, fmt.Errorf("sqlite: loading friend request %s: %w", id, err)
	}
	if to != recipient {
		return nil, apperror.NotFound("friend request", id)
	}

	switch status {
	case model.RequestRejected:
		return nil, apperror.Conflict("friend request", "request was already rejected")
	case model.RequestPending:
		_, err = tx.ExecContext(ctx,
			"UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			model.RequestAccepted, toMicros(at), id, model.RequestPending,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: accepting friend request %s: %w", id, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO friendships (id, request_id, user1_email, user2_email, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		xid.New().String(), id, sender, recipient, toMicros(at),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting friendship: %w", err)
	}

	// Either the row just inserted, the one from an earlier acceptance of
	// this request, or an edge that already joined the pair.
	row := tx.QueryRowContext(ctx,
		`SELECT id, request_id, user1_email, user2_email, created_at
		 FROM friendships
		 WHERE request_id = ?
		    OR (user1_email = ? AND user2_email = ?)
		    OR (user1_email = ? AND user2_email = ?)
		 ORDER BY request_id = ? DESC
		 LIMIT 1`,
		id, sender, recipient, recipient, sender, id,
	)
	edge, err := scanFriendship(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading friendship for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing accept: %w", err)
	}
	return edge, nil
}

// Reject only moves pending requests. Anything else addressed to recipient
// is a conflict; anything not addressed to recipient is not found.
func (f *FriendDB) Reject(ctx context.Context, id, recipient string, at time.Time) error {
	result, err := f.conn.ExecContext(ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ?
		 WHERE id = ? AND recipient_email = ? AND status = ?`,
		model.RequestRejected, toMicros(at), id, recipient, model.RequestPending,
	)
	if err != nil {
		return fmt.Errorf("sqlite: rejecting friend request %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	req, err := f.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.RecipientEmail != recipient {
		return apperror.NotFound("friend request", id)
	}
	return apperror.Conflict("friend request", "request is already "+req.Status)
}

// AreFriends checks for an edge in either direction.
func (f *FriendDB) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var one int
	err := f.conn.QueryRowContext(ctx,
		`SELECT 1 FROM friendships
		 WHERE (user1_email = ? AND user2_email = ?)
		    OR (user1_email = ? AND user2_email = ?)
		 LIMIT 1`,
		a, b, b, a,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking friendship: %w", err)
	}
	return true, nil
}

// ListFriendships returns every edge touching email, oldest first.
func (f *FriendDB) ListFriendships(ctx context.Context, email string) ([]model.Friendship, error) {
	rows, err := f.conn.QueryContext(ctx,
		`SELECT id, request_id, user1_email, user2_email, created_at
		 FROM friendships
		 WHERE user1_email = ? OR user2_email = ?
		 ORDER BY created_at ASC, id ASC`,
		email, email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friendships for %s: %w", email, err)
	}
	defer rows.Close()

	edges := make([]model.Friendship, 0)
	for rows.Next() {
		edge, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning friendship: %w", err)
		}
		edges = append(edges, *edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating friendships: %w", err)
	}
	return edges, nil
}

func scanRequest(s scanner) (*model.FriendRequest, error) {
	var (
		req     model.FriendRequest
		created int64
		updated sql.NullInt64
	)
	if err := s.Scan(&req.ID, &req.SenderEmail, &req.RecipientEmail, &req.Status, &created, &updated); err != nil {
		return nil, err
	}
	req.CreatedAt = fromMicros(created)
	if updated.Valid {
		t := fromMicros(updated.Int64)
		req.UpdatedAt = &t
	}
	return &req, nil
}

func scanFriendship(s scanner) (*model.Friendship, error) {
	var (
		edge    model.Friendship
		created int64
	)
	if err := s.Scan(&edge.ID, &edge.RequestID, &edge.User1Email, &edge.User2Email, &created); err != nil {
		return nil, err
	}
	edge.CreatedAt = fromMicros(created)
	return &edge, nil
}
