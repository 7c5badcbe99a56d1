// Package window implements the display-surface contract the host's window
// framework expects, and owns the panel's refresh policy.
package window

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/taskprobe/taskprobe/internal/domain"
	"github.com/taskprobe/taskprobe/internal/render"
)

// Phase is the controller's lifecycle phase.
type Phase int

const (
	PhaseUninitialized Phase = iota // Zero value before New
	PhaseRegistered                 // Bound to the host, nothing rendered yet
	PhaseRendering                  // Walking memory and rebuilding lines
	PhaseIdle                       // Cached lines valid, waiting for events
	PhaseDestroyed                  // Torn down; every call is a no-op
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRegistered:
		return "registered"
	case PhaseRendering:
		return "rendering"
	case PhaseIdle:
		return "idle"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Snapshotter produces a fresh task snapshot from target memory.
type Snapshotter interface {
	Walk() *domain.TaskSnapshot
}

// State is the window's mutable display state. It is owned exclusively by
// the Controller; no other component retains a reference across cycles.
type State struct {
	Title        string
	CachedLines  []string // Last rendered snapshot, possibly stale
	ScrollOffset int
	Dirty        bool
}

// Controller drives one inspector panel. Stop/refresh events rebuild the
// cached lines from target memory; resize and scroll only re-apply the cache
// against new geometry. Nothing the controller does may propagate a failure
// into the host framework.
type Controller struct {
	walk    Snapshotter
	log     domain.Logger
	onClose func()
	state   State
	phase   Phase
	width   int
	height  int
}

var _ domain.WindowSurface = (*Controller)(nil)

// New creates a Controller bound to the given snapshot source. The returned
// controller is in PhaseRegistered; the registration glue is expected to call
// Refresh once to populate the initial view.
func New(title string, walk Snapshotter, log domain.Logger) *Controller {
	return &Controller{
		walk:  walk,
		log:   log,
		phase: PhaseRegistered,
		state: State{Title: title, Dirty: true},
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Title returns the window title.
func (c *Controller) Title() string {
	return c.state.Title
}

// SetOnClose registers a hook invoked once during Close, used by the glue to
// release breakpoint handles owned by the panel.
func (c *Controller) SetOnClose(fn func()) {
	if c.phase == PhaseDestroyed {
		return
	}
	c.onClose = fn
}

// Refresh re-walks target memory and rebuilds the cached lines. Called on
// every host-delivered stop/refresh event. On failure the cache is replaced
// with a single-line error display; the panel never goes blank without
// explanation and the failure never reaches the host.
func (c *Controller) Refresh() {
	if c.phase == PhaseDestroyed {
		return
	}
	c.phase = PhaseRendering
	c.state.CachedLines = c.buildLines()
	c.state.Dirty = false
	c.clampScroll()
	c.phase = PhaseIdle
}

// buildLines runs the walker and render pipeline behind a recover boundary.
func (c *Controller) buildLines() (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panel refresh failed", "panic", r)
			lines = []string{fmt.Sprintf("inspector error: %v", r)}
		}
	}()
	return render.Lines(c.walk.Walk())
}

// Render returns the visible slice of the cached lines for the given
// geometry. It never re-reads target memory; a stale cache is shown as-is.
func (c *Controller) Render(width, height int) []string {
	if c.phase == PhaseDestroyed {
		return nil
	}
	c.width, c.height = width, height
	c.clampScroll()

	if width <= 0 || height <= 0 {
		return nil
	}

	end := c.state.ScrollOffset + height
	if end > len(c.state.CachedLines) {
		end = len(c.state.CachedLines)
	}
	visible := make([]string, 0, height)
	for _, line := range c.state.CachedLines[c.state.ScrollOffset:end] {
		visible = append(visible, runewidth.Truncate(line, width, ""))
	}
	return visible
}

// Resize re-applies the cached lines against new geometry. Cheap path: no
// target access.
func (c *Controller) Resize(width, height int) {
	if c.phase == PhaseDestroyed {
		return
	}
	c.width, c.height = width, height
	c.clampScroll()
}

// Scroll moves the viewport by delta lines (positive = down). No target
// access.
func (c *Controller) Scroll(delta int) {
	if c.phase == PhaseDestroyed {
		return
	}
	c.state.ScrollOffset += delta
	c.clampScroll()
}

// Close releases resources and makes all further calls no-ops.
func (c *Controller) Close() {
	if c.phase == PhaseDestroyed {
		return
	}
	c.phase = PhaseDestroyed
	c.state.CachedLines = nil
	if c.onClose != nil {
		c.onClose()
		c.onClose = nil
	}
}

// clampScroll keeps the offset inside the cached content. The last page is
// always reachable, scrolling past it is not.
func (c *Controller) clampScroll() {
	maxOffset := len(c.state.CachedLines) - c.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if c.state.ScrollOffset > maxOffset {
		c.state.ScrollOffset = maxOffset
	}
	if c.state.ScrollOffset < 0 {
		c.state.ScrollOffset = 0
	}
}
