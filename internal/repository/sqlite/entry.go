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

var _ repository.EntryRepository = (*EntryDB)(nil)

// EntryDB stores the daily performance entries.
type EntryDB struct {
	conn *sql.DB
}

// UpsertDay relies on UNIQUE(email, day_start): a second submission on the
// same day hits the conflict clause and overwrites the stats and created_at
// in place. RETURNING tells us which row survived, so no read-then-write
// race is possible.
func (e *EntryDB) UpsertDay(ctx context.Context, entry *model.Entry) (bool, error) {
	newID := xid.New().String()

	var id string
	err := e.conn.QueryRowContext(ctx,
		`INSERT INTO entries (id, email, position, goals, assists, created_at, day_start)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email, day_start) DO UPDATE SET
			position = excluded.position,
			goals = excluded.goals,
			assists = excluded.assists,
			created_at = excluded.created_at
		 RETURNING id`,
		newID,
		entry.Email,
		entry.Position,
		entry.Goals,
		entry.Assists,
		toMicros(entry.CreatedAt),
		toMicros(entry.DayStart),
	).Scan(&id)
	if err != nil {
		return false, fmt.Errorf("sqlite: upserting entry for %s: %w", entry.Email, err)
	}

	entry.ID = id
	return id == newID, nil
}

// Delete removes the entry only if owner owns it.
func (e *EntryDB) Delete(ctx context.Context, owner, id string) error {
	result, err := e.conn.ExecContext(ctx,
		"DELETE FROM entries WHERE id = ? AND email = ?", id, owner)
	if err != nil {
		return fmt.Errorf("sqlite: deleting entry %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("entry", id)
	}
	return nil
}

func (e *EntryDB) ListByOwner(ctx context.Context, owner string, r repository.TimeRange, newestFirst bool, limit int) ([]model.Entry, error) {
	var (
		where = []string{"email = ?"}
		args  = []any{owner}
	)
	if !r.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMicros(r.From))
	}
	if !r.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, toMicros(r.To))
	}

	order := "ASC"
	if newestFirst {
		order = "DESC"
	}
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT id, email, position, goals, assists, created_at, day_start
		 FROM entries WHERE %s
		 ORDER BY created_at %s, id %s
		 LIMIT ?`,
		strings.Join(where, " AND "), order, order,
	)

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries for %s: %w", owner, err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0)
	for rows.Next() {
		var (
			entry            model.Entry
			created, dayFrom int64
		)
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.Position, &entry.Goals, &entry.Assists, &created, &dayFrom); err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry row: %w", err)
		}
		entry.CreatedAt = fromMicros(created)
		entry.DayStart = fromMicros(dayFrom)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entries: %w", err)
	}
	return entries, nil
}

// Since feeds the leaderboard. The LEFT JOIN keeps entries whose owner has
// no user row yet; their name comes back empty.
func (e *EntryDB) Since(ctx context.Context, t time.Time) ([]model.LeaderboardRow, error) {
	rows, err := e.conn.QueryContext(ctx,
		`SELECT e.id, e.email, e.position, e.goals, e.assists, e.created_at, e.day_start,
		        COALESCE(u.name, '')
		 FROM entries e
		 LEFT JOIN users u ON u.email = e.email
		 WHERE e.created_at >= ?
		 ORDER BY e.created_at ASC, e.id ASC`,
		toMicros(t),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries since %s: %w", t.Format(time.RFC3339), err)
	}
	defer rows.Close()

	result := make([]model.LeaderboardRow, 0)
	for rows.Next() {
		var (
			row              model.LeaderboardRow
			created, dayFrom int64
		)
		if err := rows.Scan(&row.ID, &row.Email, &row.Position, &row.Goals, &row.Assists, &created, &dayFrom, &row.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		row.CreatedAt = fromMicros(created)
		row.DayStart = fromMicros(dayFrom)
		row.GoalsAssists = row.Goals + row.Assists
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return result, nil
}

// Latest returns the newest entries across all owners, resolved to the
// owner's display name. The owner's email is never selected.
func (e *EntryDB) Latest(ctx context.Context, limit int) ([]model.LatestEntry, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	rows, err := e.conn.QueryContext(ctx,
		`SELECT e.id, COALESCE(u.name, ''), e.position, e.goals, e.assists, e.created_at
		 FROM entries e
		 LEFT JOIN users u ON u.email = e.email
		 ORDER BY e.created_at DESC, e.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing latest entries: %w", err)
	}
	defer rows.Close()

	latest := make([]model.LatestEntry, 0, limit)
	for rows.Next() {
		var (
			le      model.LatestEntry
			created int64
		)
		if err := rows.Scan(&le.ID, &le.Name, &le.Position, &le.Goals, &le.Assists, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning latest entry: %w", err)
		}
		le.CreatedAt = fromMicros(created)
		latest = append(latest, le)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating latest entries: %w", err)
	}
	return latest, nil
}
