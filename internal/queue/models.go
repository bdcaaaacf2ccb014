package queue

import (
	"slices"
	"strings"
	"time"
)

// Status is a queue item's lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusRendering   Status = "rendering"
	StatusRendered    Status = "rendered"
	StatusCompositing Status = "compositing"
	StatusComposed    Status = "composed"
	StatusReconciling Status = "reconciling"
	StatusReconciled  Status = "reconciled"
	StatusMerging     Status = "merging"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending, StatusRendering, StatusRendered,
	StatusCompositing, StatusComposed,
	StatusReconciling, StatusReconciled,
	StatusMerging, StatusCompleted, StatusFailed,
}

// restingBefore maps each processing status to the resting status work resumes
// from when the stage is rolled back or reclaimed. Its key set doubles as the
// definition of "processing".
var restingBefore = map[Status]Status{
	StatusRendering:   StatusPending,
	StatusCompositing: StatusRendered,
	StatusReconciling: StatusComposed,
	StatusMerging:     StatusReconciled,
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth is the queue database diagnostic snapshot CheckHealth reports.
type DatabaseHealth struct {
	Path           string
	Exists         bool
	Readable       bool
	TableExists    bool
	IntegrityCheck bool
	TotalItems     int
	MissingColumns []string
	Error          string
}

// Item represents a dubbing job persisted in SQLite.
type Item struct {
	ID              int64
	UUID            string
	VideoPath       string
	ScriptPath      string
	VoiceConfigPath string
	BackgroundPath  string
	OutputPath      string
	TargetDuration  float64
	Status          Status
	ErrorMessage    string
	DubTrackPath    string
	FinalPath       string
	DurationDrift   float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// AllStatuses lists every known status in pipeline order.
func AllStatuses() []Status {
	return slices.Clone(allStatuses)
}

// ParseStatus converts user input into a known Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	return status, status != "" && slices.Contains(allStatuses, status)
}

// Label returns the capitalized form used in progress fields and CLI tables,
// e.g. StatusRendering becomes "Rendering".
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(string(s))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// IsProcessing reports whether the item is mid-stage.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status marks an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := restingBefore[status]
	return ok
}

// RestingBefore returns the resting status preceding a processing status.
// Non-processing statuses map to themselves.
func RestingBefore(status Status) Status {
	if resting, ok := restingBefore[status]; ok {
		return resting
	}
	return status
}

// InitProgress seeds the progress fields for a stage that is starting and
// clears any stale error.
func (i *Item) InitProgress(stage, message string) {
	i.SetProgress(stage, message, 0)
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete pins progress at 100% with a closing stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item failed and mirrors the message into the progress
// fields the status surfaces show.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.SetProgress(StatusFailed.Label(), message, 0)
	i.ErrorMessage = message
	i.LastHeartbeat = nil
}
