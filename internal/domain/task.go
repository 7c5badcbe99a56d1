// Package domain contains core entities and the ports the inspector depends on.
package domain

// TaskState represents the lifecycle state of a task inside the target runtime.
type TaskState string

const (
	StateSpawned   TaskState = "spawned"   // Slot claimed, task not yet scheduled
	StateReady     TaskState = "ready"     // Queued for its next poll
	StatePolling   TaskState = "polling"   // Currently inside its poll function
	StateWaiting   TaskState = "waiting"   // Pending on an external waker
	StateCompleted TaskState = "completed" // Finished, slot awaiting reuse
	StateUnknown   TaskState = "unknown"   // Tag did not match a known encoding
)

// AllStates returns all valid task states in display order.
func AllStates() []TaskState {
	return []TaskState{
		StateSpawned,
		StateReady,
		StatePolling,
		StateWaiting,
		StateCompleted,
	}
}

// StateFromTag decodes a raw state tag read from a registry slot header.
// Tag 0 marks an empty slot and is filtered out by the walker before decoding.
func StateFromTag(tag uint32) TaskState {
	switch tag {
	case 1:
		return StateSpawned
	case 2:
		return StateReady
	case 3:
		return StatePolling
	case 4:
		return StateWaiting
	case 5:
		return StateCompleted
	default:
		return StateUnknown
	}
}

// Display returns the fixed-vocabulary word used for rendering.
func (s TaskState) Display() string {
	switch s {
	case StateSpawned:
		return "Spawned"
	case StateReady:
		return "Ready"
	case StatePolling:
		return "Polling"
	case StateWaiting:
		return "Waiting"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// TaskRecord is one reconstructed task. Records are materialized fresh on
// every walk and never mutated in place. The ID is the registry slot index
// and is only meaningful within the snapshot that produced it.
// Fields are ordered to minimize memory padding.
type TaskRecord struct {
	LocationHint string // Best-effort source location / type name ("" = unknown)
	WakerTarget  *int   // Slot expected to wake this task (nil = none or out of range)
	PollCount    uint64 // Monotonic poll counter read from the slot
	ID           int    // Slot index, unique within one snapshot
	State        TaskState
}
