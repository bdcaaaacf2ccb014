package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// pingTimeout bounds the connection probe inside CheckHealth.
const pingTimeout = 2 * time.Second

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	stats := make(map[Status]int)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats[status] = n
	}
	return stats, rows.Err()
}

// Health aggregates queue counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var summary HealthSummary
	for status, count := range stats {
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusFailed:
			summary.Failed += count
		case StatusCompleted:
			summary.Completed += count
		default:
			if IsProcessingStatus(status) {
				summary.Processing += count
			}
		}
	}
	return summary, nil
}

// CheckHealth inspects the queue database file, connection, schema, and
// integrity, and reports what it found.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	report := DatabaseHealth{Path: s.path}

	if s.path == "" {
		return report, errors.New("queue database path not set")
	}
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return report, nil
	case err != nil:
		return report, fmt.Errorf("stat queue database: %w", err)
	case info.IsDir():
		return report, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	report.Exists = true

	if s.db == nil {
		return report, errors.New("queue database connection unavailable")
	}
	connCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("ping queue database: %w", err)
	}
	report.Readable = true

	if err := s.inspectItemsTable(connCtx, &report); err != nil {
		report.Error = err.Error()
		return report, err
	}

	var verdict string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("integrity check: %w", err)
	}
	report.IntegrityCheck = strings.EqualFold(verdict, "ok")

	return report, nil
}

func (s *Store) inspectItemsTable(ctx context.Context, report *DatabaseHealth) error {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'queue_items'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query table info: %w", err)
	}
	report.TableExists = true

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM queue_items").Scan(&report.TotalItems); err != nil {
		return fmt.Errorf("count queue items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(queue_items)")
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{}, len(queueItemColumns))
	for rows.Next() {
		var (
			cid, notNull, pk int
			column, colType  string
			dflt             any
		)
		if err := rows.Scan(&cid, &column, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		present[column] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}
	for _, column := range queueItemColumns {
		if _, ok := present[column]; !ok {
			report.MissingColumns = append(report.MissingColumns, column)
		}
	}
	return nil
}
