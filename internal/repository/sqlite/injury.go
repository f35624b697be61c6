package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

var _ repository.InjuryRepository = (*InjuryDB)(nil)

// InjuryDB stores injuries and their body-location spots.
//
// Spots live in their own table and reference the parent by injury_id. The
// parent and its spots are always written in one transaction, and deleting
// the parent cascades to the spots.
type InjuryDB struct {
	conn *sql.DB
}

func (d *InjuryDB) Create(ctx context.Context, injury *model.Injury) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning injury tx: %w", err)
	}
	defer rollback(tx)

	injury.ID = xid.New().String()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO injuries (id, email, injury_type, duration, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		injury.ID,
		injury.Email,
		injury.InjuryType,
		injury.Duration,
		toMicros(injury.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting injury: %w", err)
	}

	if err := insertSpots(ctx, tx, injury); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing injury: %w", err)
	}
	return nil
}

// Update rewrites type and duration. When injury.Spots is non-nil the
// existing spots are replaced by it; nil leaves them untouched.
func (d *InjuryDB) Update(ctx context.Context, injury *model.Injury) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning injury tx: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx,
		`UPDATE injuries SET injury_type = ?, duration = ?
		 WHERE id = ? AND email = ?`,
		injury.InjuryType,
		injury.Duration,
		injury.ID,
		injury.Email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating injury %s: %w", injury.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("injury", injury.ID)
	}

	if injury.Spots != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM injury_spots WHERE injury_id = ?", injury.ID); err != nil {
			return fmt.Errorf("sqlite: clearing spots of %s: %w", injury.ID, err)
		}
		if err := insertSpots(ctx, tx, injury); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing injury update: %w", err)
	}
	return nil
}

// Delete removes the injury; ON DELETE CASCADE takes the spots with it.
func (d *InjuryDB) Delete(ctx context.Context, owner, id string) error {
	result, err := d.conn.ExecContext(ctx,
		"DELETE FROM injuries WHERE id = ? AND email = ?", id, owner)
	if err != nil {
		return fmt.Errorf("sqlite: deleting injury %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("injury", id)
	}
	return nil
}

func (d *InjuryDB) Get(ctx context.Context, owner, id string) (*model.Injury, error) {
	var (
		injury  model.Injury
		created int64
	)
	err := d.conn.QueryRowContext(ctx,
		`SELECT id, email, injury_type, duration, created_at
		 FROM injuries WHERE id = ? AND email = ?`,
		id, owner,
	).Scan(&injury.ID, &injury.Email, &injury.InjuryType, &injury.Duration, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("injury", id)
		}
		return nil, fmt.Errorf("sqlite: getting injury %s: %w", id, err)
	}
	injury.CreatedAt = fromMicros(created)

	spots, err := d.spots(ctx, "s.injury_id = ? AND i.email = ?", id, owner)
	if err != nil {
		return nil, err
	}
	injury.Spots = spots[id]
	if injury.Spots == nil {
		injury.Spots = []model.InjurySpot{}
	}
	return &injury, nil
}

// ListByOwner returns the owner's injuries newest first, each with its spots.
// Spots are fetched in one query and grouped in memory.
func (d *InjuryDB) ListByOwner(ctx context.Context, owner string) ([]model.Injury, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, email, injury_type, duration, created_at
		 FROM injuries WHERE email = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		owner, repository.MaxListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing injuries for %s: %w", owner, err)
	}

	injuries := make([]model.Injury, 0)
	for rows.Next() {
		var (
			injury  model.Injury
			created int64
		)
		if err := rows.Scan(&injury.ID, &injury.Email, &injury.InjuryType, &injury.Duration, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning injury row: %w", err)
		}
		injury.CreatedAt = fromMicros(created)
		injuries = append(injuries, injury)
	}
	// Close before the next query: the pool has a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating injuries: %w", err)
	}

	spots, err := d.spots(ctx, "i.email = ?", owner)
	if err != nil {
		return nil, err
	}
	for i := range injuries {
		injuries[i].Spots = spots[injuries[i].ID]
		if injuries[i].Spots == nil {
			injuries[i].Spots = []model.InjurySpot{}
		}
	}
	return injuries, nil
}

// spots loads spots joined to their parent so the owner filter applies to
// the parent row, grouped by injury id.
func (d *InjuryDB) spots(ctx context.Context, where string, args ...any) (map[string][]model.InjurySpot, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT s.id, s.injury_id, s.x, s.y
		 FROM injury_spots s
		 JOIN injuries i ON i.id = s.injury_id
		 WHERE `+where+`
		 ORDER BY s.rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing injury spots: %w", err)
	}
	defer rows.Close()

	byInjury := make(map[string][]model.InjurySpot)
	for rows.Next() {
		var s model.InjurySpot
		if err := rows.Scan(&s.ID, &s.InjuryID, &s.X, &s.Y); err != nil {
			return nil, fmt.Errorf("sqlite: scanning injury spot: %w", err)
		}
		byInjury[s.InjuryID] = append(byInjury[s.InjuryID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating injury spots: %w", err)
	}
	return byInjury, nil
}

func insertSpots(ctx context.Context, tx *sql.Tx, injury *model.Injury) error {
	for i := range injury.Spots {
		spot := &injury.Spots[i]
		spot.ID = xid.New().String()
		spot.InjuryID = injury.ID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO injury_spots (id, injury_id, x, y) VALUES (?, ?, ?, ?)",
			spot.ID, spot.InjuryID, spot.X, spot.Y,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting spot for %s: %w", injury.ID, err)
		}
	}
	return nil
}
