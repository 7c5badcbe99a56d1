package tui

import "github.com/taskprobe/taskprobe/internal/app"

// Msg is the sealed interface for all TUI messages.
type Msg interface {
	sealed()
}

// MsgSessionEvent wraps an event from the debug session (a genuine halt or a
// transparent poll hit).
type MsgSessionEvent struct {
	Event app.Event
}

func (MsgSessionEvent) sealed() {}

// MsgResumed is sent after the target was successfully resumed.
type MsgResumed struct{}

func (MsgResumed) sealed() {}

// MsgError is sent when an operation fails.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}
