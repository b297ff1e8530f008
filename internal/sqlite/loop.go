package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/nowloop/internal/domain/archive"
)

// LoopRepository implements archive.Repository for SQLite
type LoopRepository struct {
	db *DB
}

// NewLoopRepository creates a new LoopRepository
func NewLoopRepository(db *DB) *LoopRepository {
	return &LoopRepository{db: db}
}

// Save inserts an archived loop. A track is archived at most once per session.
func (r *LoopRepository) Save(ctx context.Context, loop *archive.Loop) error {
	if loop.CreatedAt.IsZero() {
		loop.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loops (
			id, session_id, track_id, input_id, start_time, duration,
			duration_in_beats, exact_duration, beats_per_minute, beats_per_measure, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		loop.ID, loop.SessionID, loop.TrackID, loop.InputID, loop.StartTime, loop.Duration,
		loop.DurationInBeats, loop.ExactDuration, loop.BeatsPerMinute, loop.BeatsPerMeasure, loop.CreatedAt,
	)
	if err != nil {
		return storeError(err, "save loop", "loop "+loop.ID)
	}
	return nil
}

// List returns archived loops, newest first
func (r *LoopRepository) List(ctx context.Context, opts archive.ListOptions) ([]archive.Loop, error) {
	query := `
		SELECT
			id, session_id, track_id, input_id, start_time, duration,
			duration_in_beats, exact_duration, beats_per_minute, beats_per_measure, created_at
		FROM loops
	`
	args := []any{}
	if opts.SessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, opts.SessionID)
	}
	query += " ORDER BY created_at DESC, track_id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loops: %w", err)
	}
	defer rows.Close()

	var loops []archive.Loop
	for rows.Next() {
		var l archive.Loop
		if err := rows.Scan(
			&l.ID, &l.SessionID, &l.TrackID, &l.InputID, &l.StartTime, &l.Duration,
			&l.DurationInBeats, &l.ExactDuration, &l.BeatsPerMinute, &l.BeatsPerMeasure, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loop: %w", err)
		}
		loops = append(loops, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loop rows: %w", err)
	}
	return loops, nil
}
