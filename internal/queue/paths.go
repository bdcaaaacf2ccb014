package queue

import (
	"fmt"
	"path/filepath"
	"strings"
)

// WorkDir returns the per-job working directory rooted at base. The job UUID
// keeps directories stable across retries; items predating UUID assignment
// fall back to job-{ID}.
func (i Item) WorkDir(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := strings.TrimSpace(i.UUID)
	if segment == "" {
		segment = fmt.Sprintf("job-%d", i.ID)
	}
	return filepath.Join(base, segment)
}

// SegmentsDir returns the directory holding rendered per-segment clips.
func (i Item) SegmentsDir(base string) string {
	root := i.WorkDir(base)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "segments")
}

// CompositePath returns the assembled (pre-reconcile) track location.
func (i Item) CompositePath(base string) string {
	root := i.WorkDir(base)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "composite.wav")
}

// DubTrackFile returns the reconciled dub track location.
func (i Item) DubTrackFile(base string) string {
	root := i.WorkDir(base)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "dub.wav")
}

// DisplayName returns a human-readable identifier for logs and listings.
func (i Item) DisplayName() string {
	if base := strings.TrimSpace(filepath.Base(i.VideoPath)); base != "" && base != "." {
		return base
	}
	return fmt.Sprintf("job-%d", i.ID)
}
