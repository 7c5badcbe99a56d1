// Package bridge installs per-hit stop decisions on host debugger breakpoints.
//
// The host's native breakpoint type cannot be extended here, so the bridge
// composes instead: it creates a plain host breakpoint and forwards every hit
// to an installer-supplied predicate. The predicate observes target state but
// must never mutate it; the bridge enforces this by contract only.
package bridge

import (
	"fmt"
	"sync"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// StopPredicate decides, per hit, whether the debugger should actually halt.
// data is the opaque value supplied at install time, owned by the installer.
// Returning an error is equivalent to returning false.
type StopPredicate func(data any) (bool, error)

// Bridge creates predicate-guarded breakpoints on a host.
type Bridge struct {
	host domain.BreakpointHost
	log  domain.Logger
}

// New creates a Bridge for the given host.
func New(host domain.BreakpointHost, log domain.Logger) *Bridge {
	return &Bridge{
		host: host,
		log:  log,
	}
}

// Handle refers to one installed breakpoint. Uninstall runs on the session's
// teardown path while hits arrive on the host's stop path, so the removed
// flag is mutex-guarded.
type Handle struct {
	bp       domain.HostBreakpoint
	location string
	mu       sync.Mutex
	removed  bool
}

func (h *Handle) isRemoved() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removed
}

// Install creates a breakpoint at location and attaches the predicate.
// A nil predicate keeps the conventional behavior of always halting.
// Returns an error wrapping domain.ErrInvalidLocation if the location cannot
// be resolved.
func (b *Bridge) Install(location string, pred StopPredicate, data any) (*Handle, error) {
	bp, err := b.host.CreateBreakpoint(location)
	if err != nil {
		return nil, fmt.Errorf("install breakpoint at %s: %w", location, err)
	}
	h := &Handle{bp: bp, location: location}
	bp.SetStopHandler(func() bool {
		return b.evaluate(h, pred, data)
	})
	return h, nil
}

// evaluate runs the predicate for one hit. A predicate failure must never
// cross into the host's control loop: errors and panics are logged and
// downgraded to "resume".
func (b *Bridge) evaluate(h *Handle, pred StopPredicate, data any) (halt bool) {
	if h.isRemoved() {
		// Stale hit delivered after uninstall; stay inert.
		return true
	}
	if pred == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("stop predicate panicked, resuming target",
				"location", h.location, "panic", r)
			halt = false
		}
	}()
	halt, err := pred(data)
	if err != nil {
		b.log.Error("stop predicate failed, resuming target",
			"location", h.location, "error", err)
		return false
	}
	return halt
}

// Uninstall removes the breakpoint from the host. Idempotent; the handle is
// inert from the moment this returns, even if the host still delivers a hit.
func (h *Handle) Uninstall() error {
	h.mu.Lock()
	if h.removed {
		h.mu.Unlock()
		return nil
	}
	h.removed = true
	h.mu.Unlock()
	return h.bp.Remove()
}
