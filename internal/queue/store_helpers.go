package queue

import (
	"database/sql"
	"strings"
	"time"
)

// queueItemColumns lists every column the current schema plus migrations give
// queue_items, in the order scanItem reads them. CheckHealth also uses it to
// flag databases missing columns.
var queueItemColumns = []string{
	"id", "uuid", "video_path", "script_path", "voice_config_path",
	"background_path", "output_path", "target_duration", "status",
	"error_message", "dub_track_path", "final_path", "duration_drift",
	"created_at", "updated_at", "progress_stage", "progress_percent",
	"progress_message", "last_heartbeat",
}

var itemColumns = strings.Join(queueItemColumns, ", ")

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id                                   int64
		status                               string
		uid, video, script, voices, backing  sql.NullString
		output, errMsg, dubTrack, final      sql.NullString
		stage, message, created, updated, hb sql.NullString
		targetSecs, driftSecs, percent       sql.NullFloat64
	)
	if err := scanner.Scan(
		&id, &uid, &video, &script, &voices, &backing, &output,
		&targetSecs, &status, &errMsg, &dubTrack, &final, &driftSecs,
		&created, &updated, &stage, &percent, &message, &hb,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		UUID:            uid.String,
		VideoPath:       video.String,
		ScriptPath:      script.String,
		VoiceConfigPath: voices.String,
		BackgroundPath:  backing.String,
		OutputPath:      output.String,
		TargetDuration:  targetSecs.Float64,
		Status:          Status(status),
		ErrorMessage:    errMsg.String,
		DubTrackPath:    dubTrack.String,
		FinalPath:       final.String,
		DurationDrift:   driftSecs.Float64,
		ProgressStage:   stage.String,
		ProgressPercent: percent.Float64,
		ProgressMessage: message.String,
		CreatedAt:       timeOrZero(created.String),
		UpdatedAt:       timeOrZero(updated.String),
	}
	if hb.Valid {
		if beat, err := parseStoredTime(hb.String); err == nil {
			item.LastHeartbeat = &beat
		}
	}
	return item, nil
}

// collectItems drains rows into items, closing rows on the way out.
func collectItems(rows *sql.Rows) ([]*Item, error) {
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// nullable maps empty strings to SQL NULL.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// nullableTimestamp renders an optional time as stored text, or SQL NULL.
func nullableTimestamp(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

// parseStoredTime accepts both the RFC 3339 timestamps the store writes and
// the bare format SQLite produces for CURRENT_TIMESTAMP defaults.
func parseStoredTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateTime, value)
}

// timeOrZero is parseStoredTime with unparseable values mapped to the zero time.
func timeOrZero(value string) time.Time {
	t, err := parseStoredTime(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// placeholders renders a comma-separated "?" list for IN clauses.
func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(",?", count)[1:]
}
