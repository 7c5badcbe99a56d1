package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskprobe/taskprobe/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestLines_NilSnapshot(t *testing.T) {
	assert.Equal(t, []string{"task registry unavailable: no snapshot"}, Lines(nil))
}

func TestLines_Unavailable(t *testing.T) {
	snap := domain.Unavailable("target is running; a snapshot requires a stopped target")

	lines := Lines(snap)

	assert.Equal(t, []string{
		"task registry unavailable: target is running; a snapshot requires a stopped target",
	}, lines)
}

func TestLines_CompleteSnapshot(t *testing.T) {
	snap := &domain.TaskSnapshot{
		Status: domain.SnapshotComplete,
		Records: []domain.TaskRecord{
			{ID: 0, State: domain.StateReady, PollCount: 5, LocationHint: "sensor_loop"},
			{ID: 1, State: domain.StateWaiting, PollCount: 12, WakerTarget: intPtr(0), LocationHint: "uart_rx"},
			{ID: 2, State: domain.StateCompleted, PollCount: 1},
		},
	}

	lines := Lines(snap)

	assert.Equal(t, []string{
		"   0  Ready             5  -          sensor_loop",
		"   1  Waiting          12  task 0     uart_rx",
		"   2  Completed         1  -          ?",
	}, lines)
}

func TestLines_PartialSnapshotWarnsFirst(t *testing.T) {
	snap := &domain.TaskSnapshot{
		Status:       domain.SnapshotPartial,
		Reason:       "2 slot(s) unreadable",
		SkippedSlots: 2,
		Records: []domain.TaskRecord{
			{ID: 3, State: domain.StatePolling, PollCount: 40},
		},
	}

	lines := Lines(snap)

	require.Len(t, lines, 2)
	assert.Equal(t, "warning: partial snapshot: 2 slot(s) unreadable", lines[0])
	assert.Equal(t, "   3  Polling          40  -          ?", lines[1])
}

func TestLines_EmptyRegistry(t *testing.T) {
	snap := &domain.TaskSnapshot{Status: domain.SnapshotComplete}

	assert.Empty(t, Lines(snap))
}

func TestLines_Deterministic(t *testing.T) {
	snap := &domain.TaskSnapshot{
		Status: domain.SnapshotComplete,
		Records: []domain.TaskRecord{
			{ID: 0, State: domain.StateSpawned, PollCount: 0},
			{ID: 7, State: domain.StateUnknown, PollCount: 1234567},
		},
	}

	first := Lines(snap)
	second := Lines(snap)

	assert.Equal(t, first, second)
}
