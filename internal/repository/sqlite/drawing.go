package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

var _ repository.DrawingRepository = (*DrawingDB)(nil)

// DrawingDB stores pitch drawings. Passes and shots are line lists with no
// query needs of their own, so each is kept as one JSON document column.
type DrawingDB struct {
	conn *sql.DB
}

func (d *DrawingDB) Create(ctx context.Context, drawing *model.Drawing) error {
	passes, err := encodeLines(drawing.Passes)
	if err != nil {
		return fmt.Errorf("sqlite: encoding passes: %w", err)
	}
	shots, err := encodeLines(drawing.Shots)
	if err != nil {
		return fmt.Errorf("sqlite: encoding shots: %w", err)
	}

	drawing.ID = xid.New().String()

	_, err = d.conn.ExecContext(ctx,
		`INSERT INTO pitches (id, email, image, passes, shots, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		drawing.ID,
		drawing.Email,
		drawing.Image,
		passes,
		shots,
		toMicros(drawing.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting drawing: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's drawings, newest first.
func (d *DrawingDB) ListByOwner(ctx context.Context, owner string, limit int) ([]model.Drawing, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, email, image, passes, shots, created_at
		 FROM pitches WHERE email = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		owner, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing drawings for %s: %w", owner, err)
	}
	defer rows.Close()

	drawings := make([]model.Drawing, 0)
	for rows.Next() {
		var (
			dr            model.Drawing
			passes, shots string
			created       int64
		)
		if err := rows.Scan(&dr.ID, &dr.Email, &dr.Image, &passes, &shots, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning drawing row: %w", err)
		}
		if err := json.Unmarshal([]byte(passes), &dr.Passes); err != nil {
			return nil, fmt.Errorf("sqlite: decoding passes of %s: %w", dr.ID, err)
		}
		if err := json.Unmarshal([]byte(shots), &dr.Shots); err != nil {
			return nil, fmt.Errorf("sqlite: decoding shots of %s: %w", dr.ID, err)
		}
		dr.CreatedAt = fromMicros(created)
		drawings = append(drawings, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating drawings: %w", err)
	}
	return drawings, nil
}

// encodeLines stores nil as "[]" so reads always decode to a non-nil slice.
func encodeLines(lines []model.Line) (string, error) {
	if lines == nil {
		lines = []model.Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
