package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Claim atomically moves an item from a resting status into the given
// processing status and stamps a heartbeat. It returns false when another
// processor got there first.
func (s *Store) Claim(ctx context.Context, id int64, from, to Status) (bool, error) {
	if !IsProcessingStatus(to) {
		return false, fmt.Errorf("claim target %q is not a processing status", to)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.exec(
		ctx,
		`UPDATE queue_items
         SET status = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		to,
		now,
		now,
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("claim item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.exec(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing resets items in processing states back to the start of
// their current stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	n, err := s.rollbackProcessing(ctx, "Reset from stuck processing", "")
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return n, nil
}

// ReclaimStaleProcessing returns items whose heartbeat expired before the
// cutoff back to the start of their current stage.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.rollbackProcessing(ctx, "Reclaimed from stale processing",
		` AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return n, nil
}

// rollbackProcessing rewinds in-flight items to the resting status preceding
// their stage. The CASE arms and status list come from the same table the
// workflow manager resumes from, so the two can never disagree.
func (s *Store) rollbackProcessing(ctx context.Context, label, extraWhere string, extraArgs ...any) (int64, error) {
	var (
		arms     strings.Builder
		armArgs  []any
		inStates []any
	)
	for _, status := range allStatuses {
		resting, ok := restingBefore[status]
		if !ok {
			continue
		}
		arms.WriteString(" WHEN ? THEN ?")
		armArgs = append(armArgs, status, resting)
		inStates = append(inStates, status)
	}

	query := `UPDATE queue_items
        SET status = CASE status` + arms.String() + ` ELSE status END,
            progress_stage = ?, progress_percent = 0, progress_message = NULL,
            last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + placeholders(len(inStates)) + `)` + extraWhere

	args := make([]any, 0, len(armArgs)+len(inStates)+len(extraArgs)+2)
	args = append(args, armArgs...)
	args = append(args, label, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, inStates...)
	args = append(args, extraArgs...)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RetryFailed moves failed items back to pending for reprocessing. Without
// ids every failed item is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, time.Now().UTC().Format(time.RFC3339Nano), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
