package elffile

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// segment is one readable region of the target's address space.
type segment struct {
	reader io.ReaderAt
	addr   uint64
	size   uint64
}

// CoreAccessor is a MemoryAccessor over an ELF core dump plus the executable
// it was dumped from. Core segments take precedence; executable segments fill
// in read-only data the kernel does not copy into the core. A core is a dead
// target, so it is permanently "stopped".
type CoreAccessor struct {
	symbols  *SymbolTable
	core     *elf.File
	exe      *elf.File
	segments []segment
}

var _ domain.MemoryAccessor = (*CoreAccessor)(nil)

// OpenCore opens the core dump at corePath together with the executable at
// exePath.
func OpenCore(corePath, exePath string) (*CoreAccessor, error) {
	symbols, err := LoadSymbols(exePath)
	if err != nil {
		return nil, err
	}

	core, err := elf.Open(corePath)
	if err != nil {
		return nil, fmt.Errorf("open core %s: %w", corePath, err)
	}
	if core.Type != elf.ET_CORE {
		core.Close()
		return nil, fmt.Errorf("%s is not a core dump (ELF type %v)", corePath, core.Type)
	}

	exe, err := elf.Open(exePath)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("open executable %s: %w", exePath, err)
	}

	a := &CoreAccessor{
		symbols: symbols,
		core:    core,
		exe:     exe,
	}
	// Core first so its segments shadow the executable's on overlap.
	a.segments = append(a.segments, loadSegments(core)...)
	a.segments = append(a.segments, loadSegments(exe)...)
	return a, nil
}

// loadSegments collects the loadable segments that carry file data.
func loadSegments(f *elf.File) []segment {
	var segs []segment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		segs = append(segs, segment{
			reader: io.NewSectionReader(prog.ReaderAt, 0, int64(prog.Filesz)),
			addr:   prog.Vaddr,
			size:   prog.Filesz,
		})
	}
	return segs
}

// ResolveSymbol looks up a symbol in the executable's symbol table.
func (a *CoreAccessor) ResolveSymbol(name string) (domain.Symbol, error) {
	return a.symbols.ResolveSymbol(name)
}

// ReadMemory fills buf from the dumped address space.
func (a *CoreAccessor) ReadMemory(addr uint64, buf []byte) error {
	return readSegments(a.segments, addr, buf)
}

// Stopped always reports true; a core dump cannot resume.
func (a *CoreAccessor) Stopped() bool {
	return true
}

// Close releases the underlying files.
func (a *CoreAccessor) Close() error {
	var lastErr error
	if err := a.core.Close(); err != nil {
		lastErr = err
	}
	if err := a.exe.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// readSegments serves a read from the first segment covering the full range.
// Ranges spanning segment boundaries are treated as unreadable, matching how
// a live debugger reports reads that cross into unmapped memory.
func readSegments(segs []segment, addr uint64, buf []byte) error {
	n := uint64(len(buf))
	if n == 0 {
		return nil
	}
	for _, seg := range segs {
		if addr < seg.addr || addr+n > seg.addr+seg.size {
			continue
		}
		if _, err := seg.reader.ReadAt(buf, int64(addr-seg.addr)); err != nil {
			return fmt.Errorf("%w: %d bytes at %#x: %v", domain.ErrMemoryUnreadable, n, addr, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %d bytes at %#x: no mapped segment", domain.ErrMemoryUnreadable, n, addr)
}
