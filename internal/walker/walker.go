// Package walker reconstructs task snapshots from a stopped target's memory.
package walker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// locationChunk is the read granularity for location strings. Strings are
// read in small steps so a short string near an unmapped page does not turn
// into a failed read.
const locationChunk = 16

// Walker rebuilds a domain.TaskSnapshot by following the runtime's bounded
// slot table through a MemoryAccessor. A Walker holds no snapshot state;
// every Walk starts from memory.
type Walker struct {
	mem    domain.MemoryAccessor
	log    domain.Logger
	layout domain.RegistryLayout
}

// New creates a Walker for the given layout.
func New(mem domain.MemoryAccessor, layout domain.RegistryLayout, log domain.Logger) (*Walker, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Walker{
		mem:    mem,
		log:    log,
		layout: layout,
	}, nil
}

// Walk reads the task registry and returns a snapshot. It never returns an
// error: hard failures yield a snapshot with status Unavailable and a reason,
// per-slot failures degrade the snapshot to Partial. A single unreadable slot
// must not hide the others.
func (w *Walker) Walk() *domain.TaskSnapshot {
	if !w.mem.Stopped() {
		return domain.Unavailable("target is running; a snapshot requires a stopped target")
	}

	sym, err := w.mem.ResolveSymbol(w.layout.Symbol)
	if err != nil {
		w.log.Warn("registry symbol unresolved", "symbol", w.layout.Symbol, "error", err)
		return domain.Unavailable(fmt.Sprintf(
			"registry symbol %q not found (wrong runtime or stripped binary)", w.layout.Symbol))
	}

	capacity := w.layout.Capacity
	if capacity == 0 {
		if sym.Size == 0 || sym.Size < w.layout.SlotSize {
			return domain.Unavailable(fmt.Sprintf(
				"cannot derive registry capacity from symbol %q (size %d)", sym.Name, sym.Size))
		}
		capacity = int(sym.Size / w.layout.SlotSize)
	}

	snap := &domain.TaskSnapshot{Status: domain.SnapshotComplete}
	buf := make([]byte, w.layout.SlotSize)

	for slot := 0; slot < capacity; slot++ {
		addr := sym.Address + uint64(slot)*w.layout.SlotSize

		if err := w.mem.ReadMemory(addr, buf); err != nil {
			if errors.Is(err, domain.ErrTargetRunning) {
				// The target resumed mid-walk. Fail fast instead of mixing
				// bytes from two different stops into one snapshot.
				return domain.Unavailable("target resumed during walk")
			}
			w.log.Warn("slot unreadable", "slot", slot, "addr", addr, "error", err)
			snap.Status = domain.SnapshotPartial
			snap.SkippedSlots++
			continue
		}

		tag := w.stateTag(buf)
		if tag == 0 {
			continue // empty slot
		}

		rec := domain.TaskRecord{
			ID:        slot,
			State:     domain.StateFromTag(tag),
			PollCount: binary.LittleEndian.Uint64(buf[w.layout.PollOffset:]),
		}

		if waker := binary.LittleEndian.Uint32(buf[w.layout.WakerOffset:]); waker != domain.WakerNone {
			// A reference outside the registry bounds is recorded as "no
			// waker" rather than propagated as a fault.
			if int(waker) < capacity {
				target := int(waker)
				rec.WakerTarget = &target
			}
		}

		if w.layout.HasLocation {
			rec.LocationHint = w.readLocation(buf)
		}

		snap.Records = append(snap.Records, rec)
	}

	if snap.Status == domain.SnapshotPartial {
		snap.Reason = fmt.Sprintf("%d slot(s) unreadable", snap.SkippedSlots)
	}
	return snap
}

// stateTag decodes the slot header's state tag.
func (w *Walker) stateTag(slot []byte) uint32 {
	raw := slot[w.layout.StateOffset:]
	if w.layout.StateWidth == 1 {
		return uint32(raw[0])
	}
	return binary.LittleEndian.Uint32(raw)
}

// readLocation follows the slot's location pointer and reads a bounded
// NUL-terminated string. Best effort: any failure yields an empty hint.
func (w *Walker) readLocation(slot []byte) string {
	raw := slot[w.layout.LocationOffset:]
	var ptr uint64
	if w.layout.PointerSize == 4 {
		ptr = uint64(binary.LittleEndian.Uint32(raw))
	} else {
		ptr = binary.LittleEndian.Uint64(raw)
	}
	if ptr == 0 {
		return ""
	}

	var out []byte
	chunk := make([]byte, locationChunk)
	for len(out) < w.layout.MaxLocationLen {
		if err := w.mem.ReadMemory(ptr+uint64(len(out)), chunk); err != nil {
			w.log.Debug("location string unreadable", "addr", ptr, "error", err)
			return ""
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			out = append(out, chunk[:i]...)
			break
		}
		out = append(out, chunk...)
	}
	if len(out) > w.layout.MaxLocationLen {
		out = out[:w.layout.MaxLocationLen]
	}
	return string(out)
}
