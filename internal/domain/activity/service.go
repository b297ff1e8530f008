package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRingCapacity bounds the in-memory message log.
const DefaultRingCapacity = 1000

// Service handles activity log operations.
type Service struct {
	repo   Repository
	ring   *Ring
	logger *slog.Logger
}

// NewService creates a new activity service. repo may be nil, in which case
// entries are kept only in the in-memory message log.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, ring: NewRing(DefaultRingCapacity), logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, sessionID string, entry *ActivityEntry) error {
	if entry == nil || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.ring.Append(fmt.Sprintf("%s @%d: %s", entry.ActivityType, entry.SampleTime, entry.Summary))
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Log(ctx, sessionID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, sessionID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, sessionID, opts)
}

// LogInfo reports the retained window of the message log.
func (s *Service) LogInfo() LogInfo { return s.ring.Info() }

// LogMessage returns one message from the message log.
func (s *Service) LogMessage(index int64) (string, error) { return s.ring.Message(index) }

// DropLogMessages discards the n oldest messages.
func (s *Service) DropLogMessages(n int) error { return s.ring.Drop(n) }
