// Package render converts task snapshots into display lines.
package render

import (
	"fmt"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// Lines renders a snapshot as an ordered sequence of fixed-width text lines,
// one per task record in walker order. It is a pure function: identical
// snapshots produce byte-identical output. Geometry (wrapping, truncation,
// scrolling) is the window controller's job, not this package's.
func Lines(snap *domain.TaskSnapshot) []string {
	if snap == nil {
		return []string{"task registry unavailable: no snapshot"}
	}

	switch snap.Status {
	case domain.SnapshotUnavailable:
		return []string{"task registry unavailable: " + snap.Reason}
	case domain.SnapshotPartial:
		lines := make([]string, 0, len(snap.Records)+1)
		lines = append(lines, "warning: partial snapshot: "+snap.Reason)
		return appendRecords(lines, snap.Records)
	default:
		return appendRecords(make([]string, 0, len(snap.Records)), snap.Records)
	}
}

func appendRecords(lines []string, records []domain.TaskRecord) []string {
	for _, rec := range records {
		lines = append(lines, recordLine(rec))
	}
	return lines
}

// recordLine formats one task record with fixed-width columns:
// id, state, poll count, waker summary, location hint.
func recordLine(rec domain.TaskRecord) string {
	waker := "-"
	if rec.WakerTarget != nil {
		waker = fmt.Sprintf("task %d", *rec.WakerTarget)
	}
	location := rec.LocationHint
	if location == "" {
		location = "?"
	}
	return fmt.Sprintf("%4d  %-9s  %8d  %-9s  %s",
		rec.ID, rec.State.Display(), rec.PollCount, waker, location)
}
