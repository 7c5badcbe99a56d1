package domain

import "fmt"

// DefaultRegistrySymbol is the well-known root of the runtime's task registry.
const DefaultRegistrySymbol = "ASYNC_TASK_REGISTRY"

// RegistryLayout describes the memory layout of the runtime's bounded task
// slot table. The runtime fixes the maximum number of concurrent tasks at
// build time, so the registry is a flat array of equally sized slots starting
// at the registry symbol. Offsets are relative to the start of a slot.
//
// Layouts differ across runtime versions (notably the state tag width), so
// the layout is configurable and only defaulted here.
// Fields are ordered to minimize memory padding.
type RegistryLayout struct {
	Symbol         string `toml:"symbol" yaml:"symbol"`                     // Registry root symbol name
	SlotSize       uint64 `toml:"slot_size" yaml:"slot_size"`               // Bytes per slot
	Capacity       int    `toml:"capacity" yaml:"capacity"`                 // Slots in the table (0 = derive from symbol size)
	StateOffset    uint64 `toml:"state_offset" yaml:"state_offset"`         // Offset of the state tag
	StateWidth     int    `toml:"state_width" yaml:"state_width"`           // Tag width in bytes: 1 or 4
	PollOffset     uint64 `toml:"poll_offset" yaml:"poll_offset"`           // Offset of the 64-bit poll counter
	WakerOffset    uint64 `toml:"waker_offset" yaml:"waker_offset"`         // Offset of the 32-bit waker slot reference
	LocationOffset uint64 `toml:"location_offset" yaml:"location_offset"`   // Offset of the location string pointer
	HasLocation    bool   `toml:"has_location" yaml:"has_location"`         // Whether slots carry a location pointer
	PointerSize    int    `toml:"pointer_size" yaml:"pointer_size"`         // Target pointer width: 4 or 8
	MaxLocationLen int    `toml:"max_location_len" yaml:"max_location_len"` // Read cap for location strings
}

// WakerNone is the slot-reference sentinel for "no waker registered".
const WakerNone = ^uint32(0)

// DefaultRegistryLayout returns the layout of the runtime version the walker
// was written against.
func DefaultRegistryLayout() RegistryLayout {
	return RegistryLayout{
		Symbol:         DefaultRegistrySymbol,
		SlotSize:       64,
		Capacity:       0, // derived from the registry symbol size
		StateOffset:    0,
		StateWidth:     4,
		PollOffset:     8,
		WakerOffset:    16,
		LocationOffset: 24,
		HasLocation:    true,
		PointerSize:    4,
		MaxLocationLen: 128,
	}
}

// Validate checks the layout for internal consistency.
func (l RegistryLayout) Validate() error {
	if l.Symbol == "" {
		return fmt.Errorf("%w: empty registry symbol", ErrInvalidLayout)
	}
	if l.SlotSize == 0 {
		return fmt.Errorf("%w: slot size must be positive", ErrInvalidLayout)
	}
	if l.Capacity < 0 {
		return fmt.Errorf("%w: negative capacity", ErrInvalidLayout)
	}
	if l.StateWidth != 1 && l.StateWidth != 4 {
		return fmt.Errorf("%w: state width must be 1 or 4, got %d", ErrInvalidLayout, l.StateWidth)
	}
	if l.PointerSize != 4 && l.PointerSize != 8 {
		return fmt.Errorf("%w: pointer size must be 4 or 8, got %d", ErrInvalidLayout, l.PointerSize)
	}
	if max := l.StateOffset + uint64(l.StateWidth); max > l.SlotSize {
		return fmt.Errorf("%w: state tag extends past slot end", ErrInvalidLayout)
	}
	if max := l.PollOffset + 8; max > l.SlotSize {
		return fmt.Errorf("%w: poll counter extends past slot end", ErrInvalidLayout)
	}
	if max := l.WakerOffset + 4; max > l.SlotSize {
		return fmt.Errorf("%w: waker reference extends past slot end", ErrInvalidLayout)
	}
	if l.HasLocation {
		if max := l.LocationOffset + uint64(l.PointerSize); max > l.SlotSize {
			return fmt.Errorf("%w: location pointer extends past slot end", ErrInvalidLayout)
		}
		if l.MaxLocationLen <= 0 {
			return fmt.Errorf("%w: max location length must be positive", ErrInvalidLayout)
		}
	}
	return nil
}
