package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

const (
	maxImageBytes     = 5 << 20 // data-URL canvas snapshot
	maxLinesPerKind   = 500
	maxSpotsPerInjury = 20
	maxInjuryType     = 64
	maxInjuryDays     = 3650
)

// DrawingInput is a pitch diagram as drawn by the client.
type DrawingInput struct {
	Image  string       `json:"image"`
	Passes []model.Line `json:"passes"`
	Shots  []model.Line `json:"shots"`
}

// InjuryInput accepts either a single spot (x, y) or a list of spots.
type InjuryInput struct {
	InjuryType string        `json:"injury_type"`
	Duration   int           `json:"duration"`
	X          *float64      `json:"x,omitempty"`
	Y          *float64      `json:"y,omitempty"`
	Spots      []model.Point `json:"spots,omitempty"`
}

// AnnotationService stores pitch drawings and injuries. Both are
// append-only per submission; nothing is merged by day.
type AnnotationService struct {
	drawings repository.DrawingRepository
	injuries repository.InjuryRepository
	now      func() time.Time
	logger   *slog.Logger
}

func NewAnnotationService(drawings repository.DrawingRepository, injuries repository.InjuryRepository, logger *slog.Logger) *AnnotationService {
	return &AnnotationService{drawings: drawings, injuries: injuries, now: time.Now, logger: logger}
}

// === DRAWINGS ===

func (s *AnnotationService) CreateDrawing(ctx context.Context, owner string, in DrawingInput) (*model.Drawing, error) {
	if len(in.Image) > maxImageBytes {
		return nil, apperror.InvalidArgument("image", fmt.Sprintf("%d bytes", len(in.Image)),
			fmt.Sprintf("image must be at most %d bytes", maxImageBytes))
	}
	if len(in.Passes) > maxLinesPerKind {
		return nil, apperror.InvalidArgument("passes", fmt.Sprint(len(in.Passes)),
			fmt.Sprintf("at most %d passes per drawing", maxLinesPerKind))
	}
	if len(in.Shots) > maxLinesPerKind {
		return nil, apperror.InvalidArgument("shots", fmt.Sprint(len(in.Shots)),
			fmt.Sprintf("at most %d shots per drawing", maxLinesPerKind))
	}

	d := &model.Drawing{
		Email:     owner,
		Image:     in.Image,
		Passes:    in.Passes,
		Shots:     in.Shots,
		CreatedAt: s.now(),
	}
	if err := s.drawings.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("service/annotation: creating drawing: %w", err)
	}

	s.logger.Info("drawing created", slog.String("id", d.ID), slog.String("email", owner))
	return d, nil
}

// Drawings returns owner's full drawings, newest first.
func (s *AnnotationService) Drawings(ctx context.Context, owner string) ([]model.Drawing, error) {
	ds, err := s.drawings.ListByOwner(ctx, owner, repository.MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("service/annotation: listing drawings: %w", err)
	}
	return ds, nil
}

// Shots is the drawings list without images and passes.
func (s *AnnotationService) Shots(ctx context.Context, owner string) ([]model.ShotView, error) {
	ds, err := s.Drawings(ctx, owner)
	if err != nil {
		return nil, err
	}
	views := make([]model.ShotView, 0, len(ds))
	for _, d := range ds {
		views = append(views, model.ShotView{ID: d.ID, Shots: d.Shots, CreatedAt: d.CreatedAt})
	}
	return views, nil
}

// === INJURIES ===

func (s *AnnotationService) CreateInjury(ctx context.Context, owner string, in InjuryInput) (*model.Injury, error) {
	spots, err := validateInjury(&in)
	if err != nil {
		return nil, err
	}
	if spots == nil {
		spots = []model.InjurySpot{}
	}

	injury := &model.Injury{
		Email:      owner,
		InjuryType: in.InjuryType,
		Duration:   in.Duration,
		CreatedAt:  s.now(),
		Spots:      spots,
	}
	if err := s.injuries.Create(ctx, injury); err != nil {
		return nil, fmt.Errorf("service/annotation: creating injury: %w", err)
	}

	s.logger.Info("injury created",
		slog.String("id", injury.ID),
		slog.String("email", owner),
		slog.Int("spots", len(injury.Spots)),
	)
	return injury, nil
}

// UpdateInjury replaces type and duration. Spots are replaced only when the
// input carries any; otherwise the stored spots are kept.
func (s *AnnotationService) UpdateInjury(ctx context.Context, owner, id string, in InjuryInput) (*model.Injury, error) {
	spots, err := validateInjury(&in)
	if err != nil {
		return nil, err
	}

	injury := &model.Injury{
		ID:         id,
		Email:      owner,
		InjuryType: in.InjuryType,
		Duration:   in.Duration,
		Spots:      spots,
	}
	if err := s.injuries.Update(ctx, injury); err != nil {
		return nil, fmt.Errorf("service/annotation: updating injury %s: %w", id, err)
	}

	updated, err := s.injuries.Get(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("service/annotation: reloading injury %s: %w", id, err)
	}
	return updated, nil
}

func (s *AnnotationService) DeleteInjury(ctx context.Context, owner, id string) error {
	if err := s.injuries.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("service/annotation: deleting injury %s: %w", id, err)
	}
	s.logger.Info("injury deleted", slog.String("id", id), slog.String("email", owner))
	return nil
}

// Injuries lists owner's injuries, each with its spots joined in.
func (s *AnnotationService) Injuries(ctx context.Context, owner string) ([]model.Injury, error) {
	injuries, err := s.injuries.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service/annotation: listing injuries: %w", err)
	}
	return injuries, nil
}

// validateInjury trims the input and folds x/y and spots into one list.
// A nil result means no spots were given.
func validateInjury(in *InjuryInput) ([]model.InjurySpot, error) {
	in.InjuryType = strings.TrimSpace(in.InjuryType)
	if in.InjuryType == "" {
		return nil, apperror.InvalidArgument("injury_type", in.InjuryType, "injury_type is required")
	}
	if len(in.InjuryType) > maxInjuryType {
		return nil, apperror.InvalidArgument("injury_type", in.InjuryType,
			fmt.Sprintf("injury_type must be at most %d characters", maxInjuryType))
	}
	if in.Duration < 0 || in.Duration > maxInjuryDays {
		return nil, apperror.InvalidArgument("duration", fmt.Sprint(in.Duration),
			fmt.Sprintf("duration must be between 0 and %d days", maxInjuryDays))
	}
	if (in.X == nil) != (in.Y == nil) {
		return nil, apperror.InvalidArgument("x", "", "x and y must be given together")
	}

	points := in.Spots
	if in.X != nil {
		points = append([]model.Point{{X: *in.X, Y: *in.Y}}, points...)
	}
	if len(points) > maxSpotsPerInjury {
		return nil, apperror.InvalidArgument("spots", fmt.Sprint(len(points)),
			fmt.Sprintf("at most %d spots per injury", maxSpotsPerInjury))
	}
	if len(points) == 0 {
		return nil, nil
	}

	spots := make([]model.InjurySpot, 0, len(points))
	for _, p := range points {
		spots = append(spots, model.InjurySpot{X: p.X, Y: p.Y})
	}
	return spots, nil
}
