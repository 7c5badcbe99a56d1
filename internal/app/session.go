package app

import (
	"fmt"
	"io"

	"github.com/taskprobe/taskprobe/internal/bridge"
	"github.com/taskprobe/taskprobe/internal/domain"
	"github.com/taskprobe/taskprobe/internal/infra/elffile"
	"github.com/taskprobe/taskprobe/internal/infra/target"
	"github.com/taskprobe/taskprobe/internal/walker"
	"github.com/taskprobe/taskprobe/internal/window"
)

// windowTitle is the registered name of the inspector panel.
const windowTitle = "async tasks"

// Event is delivered to the session's host event loop.
type Event interface {
	sealed()
}

// EventStopped is a genuine halt: the host should refresh the panel and give
// control to the user.
type EventStopped struct {
	Addr uint64
}

func (EventStopped) sealed() {}

// EventPollHit is a transparent stop at a poll-site breakpoint. The target
// stays halted until the host refreshes the panel and calls Ack, after which
// it resumes without user interaction.
type EventPollHit struct {
	done chan struct{}
}

func (EventPollHit) sealed() {}

// Ack signals that the host has finished reading target memory for this hit.
func (e EventPollHit) Ack() {
	close(e.done)
}

// Session bundles everything bound to one inspected target: the accessor,
// the window controller, and any breakpoints the panel owns.
// Fields are ordered to minimize memory padding.
type Session struct {
	Controller *window.Controller
	live       *target.Live // nil for post-mortem targets
	logger     domain.Logger
	closer     io.Closer
	events     chan Event
	closing    chan struct{}
	handles    []*bridge.Handle
}

// NewCoreSession builds a session over a core dump. The target is permanently stopped,
// so there are no breakpoints and no events; refresh is driven by the host.
func (c *Container) NewCoreSession(corePath, exePath string) (*Session, error) {
	accessor, err := elffile.OpenCore(corePath, exePath)
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(accessor, accessor)
	if err != nil {
		accessor.Close()
		return nil, err
	}
	return s, nil
}

// NewLiveSession connects to a remote stub and installs the configured
// poll-site breakpoints.
func (c *Container) NewLiveSession(remoteAddr, exePath string) (*Session, error) {
	live, err := target.Connect(remoteAddr, exePath, c.Logger)
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(live, live)
	if err != nil {
		live.Close()
		return nil, err
	}
	s.live = live

	if err := s.installPollBreakpoints(c.Config.Poll.Locations); err != nil {
		s.Close()
		return nil, err
	}
	go s.forwardStops()
	return s, nil
}

// newSession wires the walker and window controller over an accessor.
func (c *Container) newSession(mem domain.MemoryAccessor, closer io.Closer) (*Session, error) {
	w, err := walker.New(mem, c.Config.Registry, c.Logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Controller: window.New(windowTitle, w, c.Logger),
		logger:     c.Logger,
		closer:     closer,
		events:     make(chan Event, 8),
		closing:    make(chan struct{}),
	}
	s.Controller.SetOnClose(s.release)

	// Initial view, before the first stop event arrives.
	s.Controller.Refresh()
	return s, nil
}

// installPollBreakpoints places transparent breakpoints at the configured
// poll-completion locations. Their predicate parks the target just long
// enough for the host to re-read memory, then resumes it.
func (s *Session) installPollBreakpoints(locations []string) error {
	if len(locations) == 0 {
		return nil
	}
	br := bridge.New(s.live, s.logger)
	for _, loc := range locations {
		h, err := br.Install(loc, s.pollPredicate, nil)
		if err != nil {
			return fmt.Errorf("poll breakpoint %s: %w", loc, err)
		}
		s.handles = append(s.handles, h)
	}
	return nil
}

// pollPredicate runs on the debug connection's stop path. It hands the hit
// to the host event loop and blocks until the host acknowledges, keeping all
// panel state on the host's single thread, then suppresses the halt.
func (s *Session) pollPredicate(any) (bool, error) {
	hit := EventPollHit{done: make(chan struct{})}
	select {
	case s.events <- hit:
	case <-s.closing:
		return false, nil
	}
	select {
	case <-hit.done:
	case <-s.closing:
	}
	return false, nil
}

// forwardStops turns genuine halts from the debug connection into session
// events.
func (s *Session) forwardStops() {
	stops := s.live.Stops()
	for {
		select {
		case stop, ok := <-stops:
			if !ok {
				return
			}
			select {
			case s.events <- EventStopped{Addr: stop.Addr}:
			case <-s.closing:
				return
			}
		case <-s.closing:
			return
		}
	}
}

// Events returns the channel the host event loop consumes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Live reports whether the session can control execution.
func (s *Session) Live() bool {
	return s.live != nil
}

// Resume continues a live target. No-op for post-mortem sessions.
func (s *Session) Resume() error {
	if s.live == nil {
		return domain.ErrNotLive
	}
	return s.live.Resume()
}

// Interrupt halts a running live target.
func (s *Session) Interrupt() error {
	if s.live == nil {
		return domain.ErrNotLive
	}
	return s.live.Interrupt()
}

// Close tears down the window, which in turn releases breakpoints and the
// target connection.
func (s *Session) Close() {
	s.Controller.Close()
}

// release is the controller's teardown hook.
func (s *Session) release() {
	select {
	case <-s.closing:
		return
	default:
		close(s.closing)
	}
	for _, h := range s.handles {
		if err := h.Uninstall(); err != nil {
			s.logger.Warn("uninstall breakpoint", "error", err)
		}
	}
	s.handles = nil
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.logger.Warn("close target", "error", err)
		}
	}
}
