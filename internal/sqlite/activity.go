package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/nowloop/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, sessionID string, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (
			session_id, client_id, track_id, input_id,
			activity_type, summary, details, created_at, sample_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		sessionID,
		entry.ClientID,
		entry.TrackID,
		entry.InputID,
		entry.ActivityType,
		entry.Summary,
		entry.Details,
		createdAt,
		entry.SampleTime,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	entry.SessionID = sessionID
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries of a session, newest first
func (r *ActivityRepository) List(ctx context.Context, sessionID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT
			id, session_id, client_id, track_id, input_id,
			activity_type, summary, details, created_at, sample_time
		FROM activity_log
		WHERE session_id = ?
	`

	args := []any{sessionID}
	conditions := []string{}

	if opts.TrackID != nil {
		conditions = append(conditions, "track_id = ?")
		args = append(args, *opts.TrackID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC"

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
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var entry activity.ActivityEntry
		var clientID sql.NullString
		var trackID, inputID sql.NullInt64
		var details sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&clientID,
			&trackID,
			&inputID,
			&entry.ActivityType,
			&entry.Summary,
			&details,
			&entry.CreatedAt,
			&entry.SampleTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if clientID.Valid {
			entry.ClientID = &clientID.String
		}
		if trackID.Valid {
			id := int(trackID.Int64)
			entry.TrackID = &id
		}
		if inputID.Valid {
			id := int(inputID.Int64)
			entry.InputID = &id
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}
