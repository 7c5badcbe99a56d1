package domain

// SnapshotStatus indicates how complete a walk of the task registry was.
type SnapshotStatus string

const (
	SnapshotComplete    SnapshotStatus = "complete"    // Every populated slot was read
	SnapshotPartial     SnapshotStatus = "partial"     // At least one slot could not be read
	SnapshotUnavailable SnapshotStatus = "unavailable" // The registry itself could not be read
)

// TaskSnapshot is one consistent reconstruction of the runtime's task set,
// taken during a single stop. Records are ordered by slot index. A snapshot
// is owned by the window controller for the duration of one render cycle and
// is never shared across goroutines.
// Fields are ordered to minimize memory padding.
type TaskSnapshot struct {
	Records      []TaskRecord
	Reason       string // Why the walk degraded; set when status is not Complete
	Status       SnapshotStatus
	SkippedSlots int // Populated slots dropped because their memory was unreadable
}

// Unavailable builds a snapshot for a walk that could not start or had to be
// abandoned, carrying only the failure reason.
func Unavailable(reason string) *TaskSnapshot {
	return &TaskSnapshot{
		Status: SnapshotUnavailable,
		Reason: reason,
	}
}
