package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewJobRequest carries the inputs captured when a dubbing job is enqueued.
type NewJobRequest struct {
	VideoPath       string
	ScriptPath      string
	VoiceConfigPath string
	BackgroundPath  string
	OutputPath      string
	TargetDuration  float64
}

// NewJob inserts a pending dubbing job.
func (s *Store) NewJob(ctx context.Context, req NewJobRequest) (*Item, error) {
	if strings.TrimSpace(req.ScriptPath) == "" {
		return nil, errors.New("script path is required")
	}
	if req.TargetDuration < 0 {
		return nil, fmt.Errorf("target duration %.3f is negative", req.TargetDuration)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.exec(ctx,
		`INSERT INTO queue_items (
            uuid, video_path, script_path, voice_config_path, background_path,
            output_path, target_duration, status, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		nullable(req.VideoPath),
		req.ScriptPath,
		nullable(req.VoiceConfigPath),
		nullable(req.BackgroundPath),
		nullable(req.OutputPath),
		req.TargetDuration,
		StatusPending,
		now,
		now,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert job id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. Unknown ids yield (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	return oneItem(row, "get item")
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if _, err := s.exec(ctx,
		`UPDATE queue_items SET
             uuid = ?, video_path = ?, script_path = ?, voice_config_path = ?,
             background_path = ?, output_path = ?, target_duration = ?,
             status = ?, error_message = ?, dub_track_path = ?, final_path = ?,
             duration_drift = ?, updated_at = ?, progress_stage = ?,
             progress_percent = ?, progress_message = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullable(item.UUID),
		nullable(item.VideoPath),
		item.ScriptPath,
		nullable(item.VoiceConfigPath),
		nullable(item.BackgroundPath),
		nullable(item.OutputPath),
		item.TargetDuration,
		item.Status,
		nullable(item.ErrorMessage),
		nullable(item.DubTrackPath),
		nullable(item.FinalPath),
		item.DurationDrift,
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullable(item.ProgressStage),
		item.ProgressPercent,
		nullable(item.ProgressMessage),
		nullableTimestamp(item.LastHeartbeat),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateProgress persists only the progress fields for an item. The heartbeat
// column is left untouched so the stale-item reclaimer sees accurate liveness.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if _, err := s.exec(ctx,
		`UPDATE queue_items SET
             progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullable(item.ProgressStage),
		item.ProgressPercent,
		nullable(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item progress: %w", err)
	}
	return nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	return s.List(ctx, status)
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}

	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return collectItems(rows)
}

// NextForStatuses returns the oldest item matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE status IN (`+placeholders(len(statuses))+`) ORDER BY created_at LIMIT 1`,
		statusArgs(statuses)...,
	)
	return oneItem(row, "next queue item")
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	removed, err := s.deleteItems(ctx, "delete item", `DELETE FROM queue_items WHERE id = ?`, id)
	return removed > 0, err
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	return s.deleteItems(ctx, "clear queue", `DELETE FROM queue_items`)
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.deleteItems(ctx, "clear completed", `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.deleteItems(ctx, "clear failed", `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
}

func (s *Store) deleteItems(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected()
}

// oneItem normalizes single-row lookups: missing rows are (nil, nil), scan
// failures are wrapped under op.
func oneItem(row *sql.Row, op string) (*Item, error) {
	item, err := scanItem(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
