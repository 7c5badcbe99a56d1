// Package elffile reads symbol metadata and core-dump memory from ELF files.
package elffile

import (
	"debug/elf"
	"errors"
	"fmt"

	"github.com/taskprobe/taskprobe/internal/domain"
)

// SymbolTable resolves symbols from a target executable.
type SymbolTable struct {
	path string
	syms map[string]domain.Symbol
}

// LoadSymbols reads the symbol table of the ELF at path.
func LoadSymbols(path string) (*SymbolTable, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open executable %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("read symbols from %s: %w", path, err)
	}

	table := &SymbolTable{
		path: path,
		syms: make(map[string]domain.Symbol, len(syms)),
	}
	for _, s := range syms {
		if s.Name == "" {
			continue
		}
		table.syms[s.Name] = domain.Symbol{
			Name:    s.Name,
			Address: s.Value,
			Size:    s.Size,
		}
	}
	return table, nil
}

// ResolveSymbol looks up a symbol by name.
func (t *SymbolTable) ResolveSymbol(name string) (domain.Symbol, error) {
	sym, ok := t.syms[name]
	if !ok {
		return domain.Symbol{}, fmt.Errorf("%w: %q in %s", domain.ErrSymbolUnavailable, name, t.path)
	}
	return sym, nil
}

// Len returns the number of named symbols in the table.
func (t *SymbolTable) Len() int {
	return len(t.syms)
}
