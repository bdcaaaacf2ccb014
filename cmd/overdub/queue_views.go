package main

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"overdub/internal/queue"
)

func queueStatusColumns() []tableColumn {
	return []tableColumn{
		{Title: "Status"},
		{Title: "Count", AlignRight: true},
	}
}

func queueListColumns() []tableColumn {
	return []tableColumn{
		{Title: "ID", AlignRight: true},
		{Title: "Job"},
		{Title: "Status"},
		{Title: "Progress"},
		{Title: "Created"},
	}
}

// buildQueueStatusRows lists the non-empty statuses in pipeline order, so the
// table reads like the job lifecycle instead of alphabetically.
func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	var rows [][]string
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{status.Label(), fmt.Sprintf("%d", count)})
	}
	return rows
}

// buildQueueListRows orders items newest first, breaking created-at ties
// toward the higher id.
func buildQueueListRows(items []*queue.Item) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b *queue.Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.DisplayName(),
			item.Status.Label(),
			formatProgress(item),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func formatProgress(item *queue.Item) string {
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return "-"
	}
	if item.ProgressPercent <= 0 {
		return stage
	}
	return fmt.Sprintf("%s (%.0f%%)", stage, item.ProgressPercent)
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}
