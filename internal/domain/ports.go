package domain

// Symbol is a resolved entry from the target's symbol table.
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
}

// MemoryAccessor provides read-only typed access to target memory and symbol
// metadata. Reads are only valid while the target is stopped; implementations
// must return ErrTargetRunning otherwise rather than returning stale bytes.
type MemoryAccessor interface {
	// ResolveSymbol looks up a symbol by name.
	// Returns an error wrapping ErrSymbolUnavailable if it does not exist.
	ResolveSymbol(name string) (Symbol, error)

	// ReadMemory fills buf with len(buf) bytes starting at addr.
	// Returns an error wrapping ErrMemoryUnreadable on a failed read and
	// ErrTargetRunning if the target is not stopped.
	ReadMemory(addr uint64, buf []byte) error

	// Stopped reports whether the target is currently halted.
	Stopped() bool
}

// HostBreakpoint is a breakpoint object owned by the host debugger.
// The stop handler is evaluated by the host on every hit at the breakpoint's
// location; returning false makes the host resume the target transparently.
type HostBreakpoint interface {
	// SetStopHandler overrides the per-hit stop decision. The handler must
	// not mutate target state. Without a handler the breakpoint always halts.
	SetStopHandler(fn func() bool)

	// Remove deletes the breakpoint from the host. Idempotent.
	Remove() error
}

// BreakpointHost creates breakpoints in the host debugger.
type BreakpointHost interface {
	// CreateBreakpoint installs a breakpoint at a symbolic location or a
	// "*0xADDR" address spec. Returns an error wrapping ErrInvalidLocation
	// if the location cannot be resolved.
	CreateBreakpoint(location string) (HostBreakpoint, error)
}

// ExecutionController resumes the target. Implementations must not block the
// event loop that delivered the stop.
type ExecutionController interface {
	Resume() error
}

// WindowSurface is the display-surface contract the host's window framework
// expects from a panel. The window controller implements it; no method may
// let a failure escape to the caller.
type WindowSurface interface {
	// Render returns the visible lines for the given geometry, truncated to
	// width and at most height entries. It never re-reads target memory.
	Render(width, height int) []string

	// Refresh re-walks target memory and rebuilds the cached lines.
	// Called by the host on stop events.
	Refresh()

	// Resize re-applies the cached lines against new geometry.
	Resize(width, height int)

	// Scroll moves the viewport by delta lines (positive = down).
	Scroll(delta int)

	// Close releases resources. All further calls are no-ops.
	Close()
}

// Logger is the diagnostic channel for failures that must not propagate into
// the host debugger's control loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
