package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores the users collection.
type UserDB struct {
	conn *sql.DB
}

// Upsert inserts a user or re-syncs the profile of an existing one.
//
// The email is the natural key, so ON CONFLICT(email) keeps the existing
// internal ID and created_at and only refreshes name and picture. RETURNING
// hands back the canonical id and created_at in the same statement.
func (u *UserDB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	var createdAt int64

	err := u.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, profile_pic_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			profile_pic_url = excluded.profile_pic_url,
			updated_at = excluded.updated_at
		 RETURNING id, created_at`,
		xid.New().String(),
		user.Email,
		user.Name,
		user.ProfilePicURL,
		toMicros(now),
		toMicros(now),
	).Scan(&user.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", user.Email, err)
	}

	user.CreatedAt = fromMicros(createdAt)
	user.UpdatedAt = fromMicros(toMicros(now))
	return nil
}

// GetByEmail returns apperror.ErrNotFound if no user has that email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT id, email, name, profile_pic_url, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}
	return user, nil
}

// ListByEmails resolves a set of emails to users, ordered by name. Unknown
// emails are skipped.
func (u *UserDB) ListByEmails(ctx context.Context, emails []string) ([]model.User, error) {
	if len(emails) == 0 {
		return []model.User{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(emails)), ",")
	args := make([]any, len(emails))
	for i, e := range emails {
		args[i] = e
	}

	rows, err := u.conn.QueryContext(ctx,
		`SELECT id, email, name, profile_pic_url, created_at, updated_at
		 FROM users WHERE email IN (`+placeholders+`)
		 ORDER BY name, email`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, len(emails))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		user             model.User
		created, updated int64
	)
	if err := s.Scan(&user.ID, &user.Email, &user.Name, &user.ProfilePicURL, &created, &updated); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMicros(created)
	user.UpdatedAt = fromMicros(updated)
	return &user, nil
}
