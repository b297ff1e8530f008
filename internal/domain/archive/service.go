package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput indicates a loop that cannot be archived.
var ErrInvalidInput = errors.New("invalid loop input")

// Repository provides persistence for archived loops.
type Repository interface {
	Save(ctx context.Context, loop *Loop) error
	List(ctx context.Context, opts ListOptions) ([]Loop, error)
}

// Service archives loops.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new archive service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Archive stores a loop, assigning an id and timestamp when missing.
func (s *Service) Archive(ctx context.Context, loop *Loop) error {
	if loop == nil || loop.SessionID == "" || loop.TrackID < 1 || loop.Duration <= 0 {
		return ErrInvalidInput
	}
	if loop.ID == "" {
		loop.ID = uuid.NewString()
	}
	if loop.CreatedAt.IsZero() {
		loop.CreatedAt = time.Now()
	}
	if err := s.repo.Save(ctx, loop); err != nil {
		return fmt.Errorf("saving loop: %w", err)
	}
	s.logger.Debug("loop archived", "loop_id", loop.ID, "track_id", loop.TrackID, "duration", loop.Duration)
	return nil
}

// List returns archived loops, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Loop, error) {
	return s.repo.List(ctx, opts)
}
