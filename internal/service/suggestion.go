package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

const maxSuggestionLength = 2000

// SuggestionService appends feedback to the suggestion log.
type SuggestionService struct {
	suggestions repository.SuggestionRepository
	now         func() time.Time
	logger      *slog.Logger
}

func NewSuggestionService(suggestions repository.SuggestionRepository, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{suggestions: suggestions, now: time.Now, logger: logger}
}

func (s *SuggestionService) Submit(ctx context.Context, owner, text string) (*model.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.InvalidArgument("suggestion", text, "suggestion must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > maxSuggestionLength {
		return nil, apperror.InvalidArgument("suggestion", fmt.Sprintf("%d characters", n),
			fmt.Sprintf("suggestion must be at most %d characters", maxSuggestionLength))
	}

	sg := &model.Suggestion{Email: owner, Suggestion: text, CreatedAt: s.now()}
	if err := s.suggestions.CreateSuggestion(ctx, sg); err != nil {
		return nil, fmt.Errorf("service/suggestion: creating: %w", err)
	}

	s.logger.Info("suggestion received", slog.String("id", sg.ID), slog.String("email", owner))
	return sg, nil
}
