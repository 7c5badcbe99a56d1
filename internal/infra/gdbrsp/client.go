package gdbrsp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/taskprobe/taskprobe/internal/domain"
)

const (
	dialTimeout = 5 * time.Second

	// breakpointKind is the Z0 kind argument (instruction width); 4 matches
	// the 32-bit targets the default registry layout is written for.
	breakpointKind = 4

	// pcRegister is the RSP register number of the program counter on those
	// targets.
	pcRegister = 15

	// readChunk bounds single m-packet reads; stubs reject oversized requests.
	readChunk = 512
)

// StopEvent is a genuine halt delivered to the session event loop.
// Suppressed breakpoint hits are resumed without producing one.
type StopEvent struct {
	Addr uint64 // Program counter at the stop; 0 if unknown
}

// Client speaks the remote serial protocol to a gdbserver-compatible stub.
//
// All commands require the target to be stopped; while it runs, the
// connection is dedicated to waiting for the asynchronous stop reply, which a
// background goroutine collects and turns into a StopEvent. Everything else
// happens on the caller's goroutine.
type Client struct {
	conn        net.Conn
	br          *bufio.Reader
	log         domain.Logger
	breakpoints map[uint64]*clientBreakpoint
	stops       chan StopEvent
	mu          sync.Mutex
	stopped     bool
	closed      bool
}

var _ domain.ExecutionController = (*Client)(nil)

// Dial connects to a stub at addr and waits for the initial halt reason.
// The stub keeps the target stopped while a debugger is attached, so the
// client starts in the stopped state.
func Dial(addr string, log domain.Logger) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:        conn,
		br:          bufio.NewReader(conn),
		log:         log,
		breakpoints: make(map[uint64]*clientBreakpoint),
		stops:       make(chan StopEvent, 8),
	}

	if _, err := c.exchange("qSupported"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake with %s: %w", addr, err)
	}
	reply, err := c.exchange("?")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("query halt reason: %w", err)
	}
	c.log.Debug("attached to remote target", "addr", addr, "haltReason", reply)
	c.stopped = true
	return c, nil
}

// Stops returns the channel of genuine halts.
func (c *Client) Stops() <-chan StopEvent {
	return c.stops
}

// Stopped reports whether the target is currently halted.
func (c *Client) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// ReadMemory fills buf from target memory using m packets.
func (c *Client) ReadMemory(addr uint64, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		return domain.ErrTargetRunning
	}

	for done := 0; done < len(buf); {
		n := len(buf) - done
		if n > readChunk {
			n = readChunk
		}
		resp, err := c.exchangeLocked(fmt.Sprintf("m%x,%x", addr+uint64(done), n))
		if err != nil {
			return fmt.Errorf("%w: %d bytes at %#x: %v", domain.ErrMemoryUnreadable, n, addr, err)
		}
		if isErrorReply(resp) {
			return fmt.Errorf("%w: %d bytes at %#x: stub replied %s", domain.ErrMemoryUnreadable, n, addr, resp)
		}
		raw, err := hex.DecodeString(resp)
		if err != nil || len(raw) != n {
			return fmt.Errorf("%w: %d bytes at %#x: bad reply", domain.ErrMemoryUnreadable, n, addr)
		}
		copy(buf[done:], raw)
		done += n
	}
	return nil
}

// CreateBreakpoint installs a software breakpoint. Only "*0xADDR" address
// specs are accepted here; symbolic locations are resolved by the target
// layer before they reach the wire.
func (c *Client) CreateBreakpoint(location string) (domain.HostBreakpoint, error) {
	addr, err := ParseAddressSpec(location)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		return nil, domain.ErrTargetRunning
	}
	if bp, ok := c.breakpoints[addr]; ok {
		return bp, nil
	}

	resp, err := c.exchangeLocked(fmt.Sprintf("Z0,%x,%d", addr, breakpointKind))
	if err != nil {
		return nil, fmt.Errorf("set breakpoint at %#x: %w", addr, err)
	}
	if resp != "OK" {
		return nil, fmt.Errorf("%w: stub rejected breakpoint at %#x (%s)", domain.ErrInvalidLocation, addr, resp)
	}

	bp := &clientBreakpoint{client: c, addr: addr}
	c.breakpoints[addr] = bp
	return bp, nil
}

// Resume continues the target. Does nothing if it is already running.
func (c *Client) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped || c.closed {
		return nil
	}
	if err := c.sendLocked("c"); err != nil {
		return fmt.Errorf("continue: %w", err)
	}
	c.stopped = false
	// The stub replies only at the next stop; collect it off-loop.
	go c.waitForStop()
	return nil
}

// Interrupt asks a running target to halt. The resulting stop reply arrives
// through the usual stop path.
func (c *Client) Interrupt() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.closed {
		return nil
	}
	if _, err := c.conn.Write([]byte{0x03}); err != nil {
		return fmt.Errorf("interrupt: %w", err)
	}
	return nil
}

// Close detaches from the stub and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.stopped {
		// Best effort; the stub resumes the target on detach.
		_ = c.sendLocked("D")
	}
	return c.conn.Close()
}

// waitForStop blocks on the asynchronous stop reply after a continue, then
// runs the hit breakpoint's stop decision.
func (c *Client) waitForStop() {
	reply, err := readPacket(c.br)
	if err != nil {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			c.log.Error("lost connection waiting for stop", "error", err)
		}
		return
	}
	_, _ = c.conn.Write([]byte{'+'})

	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.log.Debug("target stopped", "reply", reply)

	c.dispatchStop()
}

// dispatchStop decides whether a stop is user-visible. A breakpoint whose
// stop handler returns false is transparently resumed.
func (c *Client) dispatchStop() {
	addr := c.readPC()

	c.mu.Lock()
	var handler func() bool
	if bp := c.breakpoints[addr]; bp != nil {
		handler = bp.handler
	}
	c.mu.Unlock()

	if handler != nil && !handler() {
		if err := c.Resume(); err != nil {
			c.log.Error("auto-resume failed", "addr", addr, "error", err)
		}
		return
	}

	select {
	case c.stops <- StopEvent{Addr: addr}:
	default:
		c.log.Warn("stop event dropped, consumer too slow", "addr", addr)
	}
}

// readPC reads the program counter. Best effort: 0 on failure.
func (c *Client) readPC() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.exchangeLocked(fmt.Sprintf("p%x", pcRegister))
	if err != nil || isErrorReply(resp) {
		c.log.Debug("cannot read program counter", "reply", resp, "error", err)
		return 0
	}
	pc, err := decodeHexLE(resp)
	if err != nil {
		return 0
	}
	return pc
}

// exchange sends a command and reads its reply.
func (c *Client) exchange(payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchangeLocked(payload)
}

// exchangeLocked is exchange with c.mu already held.
func (c *Client) exchangeLocked(payload string) (string, error) {
	if err := c.sendLocked(payload); err != nil {
		return "", err
	}
	reply, err := readPacket(c.br)
	if err != nil {
		return "", err
	}
	_, _ = c.conn.Write([]byte{'+'})
	return reply, nil
}

// sendLocked writes one framed packet and consumes the transport ack.
func (c *Client) sendLocked(payload string) error {
	if _, err := c.conn.Write([]byte(frame(payload))); err != nil {
		return err
	}
	for {
		b, err := c.br.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case '+':
			return nil
		case '-':
			if _, err := c.conn.Write([]byte(frame(payload))); err != nil {
				return err
			}
		default:
			// Stray byte between packets; ignore.
		}
	}
}

// removeBreakpoint deletes a breakpoint from the stub and the registry.
func (c *Client) removeBreakpoint(bp *clientBreakpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.breakpoints, bp.addr)
	if c.closed {
		return nil
	}
	if !c.stopped {
		return domain.ErrTargetRunning
	}
	resp, err := c.exchangeLocked(fmt.Sprintf("z0,%x,%d", bp.addr, breakpointKind))
	if err != nil {
		return fmt.Errorf("remove breakpoint at %#x: %w", bp.addr, err)
	}
	if resp != "OK" {
		return fmt.Errorf("remove breakpoint at %#x: stub replied %s", bp.addr, resp)
	}
	return nil
}

// clientBreakpoint is a software breakpoint installed in the stub.
// handler and removed are guarded by the client's mutex: SetStopHandler and
// Remove run on the session's goroutines while dispatchStop reads the handler
// on the stop path.
type clientBreakpoint struct {
	client  *Client
	handler func() bool
	addr    uint64
	removed bool
}

var _ domain.HostBreakpoint = (*clientBreakpoint)(nil)

// SetStopHandler overrides the per-hit stop decision.
func (b *clientBreakpoint) SetStopHandler(fn func() bool) {
	b.client.mu.Lock()
	b.handler = fn
	b.client.mu.Unlock()
}

// Remove deletes the breakpoint. Idempotent; the handler is detached before
// the wire removal, so a hit racing the removal halts conventionally.
func (b *clientBreakpoint) Remove() error {
	b.client.mu.Lock()
	if b.removed {
		b.client.mu.Unlock()
		return nil
	}
	b.removed = true
	b.handler = nil
	b.client.mu.Unlock()
	return b.client.removeBreakpoint(b)
}

// ParseAddressSpec parses a "*0xADDR" breakpoint location.
func ParseAddressSpec(location string) (uint64, error) {
	spec, ok := strings.CutPrefix(location, "*")
	if !ok {
		return 0, fmt.Errorf("%w: %q is not an address spec", domain.ErrInvalidLocation, location)
	}
	addr, err := strconv.ParseUint(spec, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", domain.ErrInvalidLocation, location, err)
	}
	return addr, nil
}
