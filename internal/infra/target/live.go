// Package target composes symbol metadata and a live debug connection into
// the accessor ports the inspector core consumes.
package target

import (
	"fmt"
	"strings"

	"github.com/taskprobe/taskprobe/internal/domain"
	"github.com/taskprobe/taskprobe/internal/infra/elffile"
	"github.com/taskprobe/taskprobe/internal/infra/gdbrsp"
)

// Live is a running target reached over the remote serial protocol. Symbols
// come from the executable on disk, memory and execution control from the
// stub; the stub itself has no symbol knowledge.
type Live struct {
	client  *gdbrsp.Client
	symbols *elffile.SymbolTable
}

var (
	_ domain.MemoryAccessor      = (*Live)(nil)
	_ domain.BreakpointHost      = (*Live)(nil)
	_ domain.ExecutionController = (*Live)(nil)
)

// Connect attaches to the stub at remoteAddr using symbols from exePath.
func Connect(remoteAddr, exePath string, log domain.Logger) (*Live, error) {
	symbols, err := elffile.LoadSymbols(exePath)
	if err != nil {
		return nil, err
	}
	client, err := gdbrsp.Dial(remoteAddr, log)
	if err != nil {
		return nil, err
	}
	return &Live{
		client:  client,
		symbols: symbols,
	}, nil
}

// ResolveSymbol looks up a symbol in the executable.
func (l *Live) ResolveSymbol(name string) (domain.Symbol, error) {
	return l.symbols.ResolveSymbol(name)
}

// ReadMemory reads target memory through the stub.
func (l *Live) ReadMemory(addr uint64, buf []byte) error {
	return l.client.ReadMemory(addr, buf)
}

// Stopped reports whether the target is halted.
func (l *Live) Stopped() bool {
	return l.client.Stopped()
}

// CreateBreakpoint installs a breakpoint at an address spec ("*0xADDR") or a
// symbol name, which is resolved against the executable first.
func (l *Live) CreateBreakpoint(location string) (domain.HostBreakpoint, error) {
	spec := location
	if !strings.HasPrefix(location, "*") {
		sym, err := l.symbols.ResolveSymbol(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidLocation, location, err)
		}
		spec = fmt.Sprintf("*%#x", sym.Address)
	}
	return l.client.CreateBreakpoint(spec)
}

// Resume continues the target.
func (l *Live) Resume() error {
	return l.client.Resume()
}

// Interrupt asks a running target to halt.
func (l *Live) Interrupt() error {
	return l.client.Interrupt()
}

// Stops returns the channel of genuine halts.
func (l *Live) Stops() <-chan gdbrsp.StopEvent {
	return l.client.Stops()
}

// Close detaches from the stub.
func (l *Live) Close() error {
	return l.client.Close()
}
