package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

var _ repository.SuggestionRepository = (*SuggestionDB)(nil)

type SuggestionDB struct {
	conn *sql.DB
}

func (s *SuggestionDB) CreateSuggestion(ctx context.Context, sg *model.Suggestion) error {
	sg.ID = xid.New().String()

	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO suggestions (id, email, suggestion, created_at) VALUES (?, ?, ?, ?)",
		sg.ID, sg.Email, sg.Suggestion, toMicros(sg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting suggestion: %w", err)
	}
	return nil
}
