package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes files matching pattern inside dir that are older than
// retentionDays, skipping the paths listed in exclude. A retentionDays value
// of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, dir, pattern string, exclude ...string) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := make(map[string]struct{}, len(exclude))
	for _, path := range exclude {
		if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
			keep[abs] = struct{}{}
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return
	}
	for _, match := range matches {
		pruneLogFile(logger, match, cutoff, keep)
	}
}

// pruneLogFile deletes match when it is a plain file older than cutoff and
// not held in keep.
func pruneLogFile(logger *slog.Logger, match string, cutoff time.Time, keep map[string]struct{}) {
	if abs, err := filepath.Abs(match); err == nil {
		if _, held := keep[abs]; held {
			return
		}
	}
	info, err := os.Stat(match)
	if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
		return
	}
	if err := os.Remove(match); err != nil {
		logger.Warn("failed to prune old log file", String("path", match), Error(err))
		return
	}
	logger.Debug("pruned old log file", String("path", match))
}
