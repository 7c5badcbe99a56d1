// Package testelf writes minimal ELF executables and core dumps for tests.
// The files carry just enough structure for debug/elf: a symbol table in the
// executable and loadable segments with file data in both.
package testelf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Sym is a symbol to place in an executable's symbol table.
type Sym struct {
	Name string
	Addr uint64
	Size uint64
}

// Seg is a loadable segment with file data.
type Seg struct {
	Data []byte
	Addr uint64
}

const (
	ehSize = 64
	phSize = 56
	shSize = 64

	etExec = 2
	etCore = 4

	ptLoad    = 1
	shtSymtab = 2
	shtStrtab = 3

	shnAbs = 0xfff1
)

// WriteExe writes an executable with the given symbols and segments into dir
// and returns its path.
func WriteExe(t *testing.T, dir string, syms []Sym, segs []Seg) string {
	t.Helper()

	// String table: \0 + names.
	strtab := []byte{0}
	nameOff := make([]uint32, len(syms))
	for i, s := range syms {
		nameOff[i] = uint32(len(strtab))
		strtab = append(strtab, []byte(s.Name)...)
		strtab = append(strtab, 0)
	}

	// Symbol table: null entry + one entry per symbol.
	var symtab bytes.Buffer
	symtab.Write(make([]byte, 24))
	for i, s := range syms {
		var ent [24]byte
		binary.LittleEndian.PutUint32(ent[0:], nameOff[i])
		ent[4] = 0x11 // STB_GLOBAL, STT_OBJECT
		binary.LittleEndian.PutUint16(ent[6:], shnAbs)
		binary.LittleEndian.PutUint64(ent[8:], s.Addr)
		binary.LittleEndian.PutUint64(ent[16:], s.Size)
		symtab.Write(ent[:])
	}

	shstrtab := []byte("\x00.symtab\x00.strtab\x00.shstrtab\x00")

	// Layout: ehdr, phdrs, segment data, symtab, strtab, shstrtab, shdrs.
	off := uint64(ehSize + phSize*len(segs))
	segOff := make([]uint64, len(segs))
	for i, s := range segs {
		segOff[i] = off
		off += uint64(len(s.Data))
	}
	symtabOff := off
	off += uint64(symtab.Len())
	strtabOff := off
	off += uint64(len(strtab))
	shstrtabOff := off
	off += uint64(len(shstrtab))
	shoff := off

	var buf bytes.Buffer
	writeEhdr(&buf, etExec, len(segs), shoff, 4, 3)
	for i, s := range segs {
		writePhdr(&buf, segOff[i], s.Addr, uint64(len(s.Data)))
	}
	for _, s := range segs {
		buf.Write(s.Data)
	}
	buf.Write(symtab.Bytes())
	buf.Write(strtab)
	buf.Write(shstrtab)

	writeShdr(&buf, shdr{})                                                                                   // null
	writeShdr(&buf, shdr{name: 1, typ: shtSymtab, off: symtabOff, size: uint64(symtab.Len()), link: 2, info: 1, entsize: 24, align: 8}) // .symtab
	writeShdr(&buf, shdr{name: 9, typ: shtStrtab, off: strtabOff, size: uint64(len(strtab)), align: 1})       // .strtab
	writeShdr(&buf, shdr{name: 17, typ: shtStrtab, off: shstrtabOff, size: uint64(len(shstrtab)), align: 1})  // .shstrtab

	return writeFile(t, dir, "exe.elf", buf.Bytes())
}

// WriteCore writes a core dump carrying the given segments into dir and
// returns its path.
func WriteCore(t *testing.T, dir string, segs []Seg) string {
	t.Helper()

	off := uint64(ehSize + phSize*len(segs))
	segOff := make([]uint64, len(segs))
	for i, s := range segs {
		segOff[i] = off
		off += uint64(len(s.Data))
	}

	var buf bytes.Buffer
	writeEhdr(&buf, etCore, len(segs), 0, 0, 0)
	for i, s := range segs {
		writePhdr(&buf, segOff[i], s.Addr, uint64(len(s.Data)))
	}
	for _, s := range segs {
		buf.Write(s.Data)
	}

	return writeFile(t, dir, "core.elf", buf.Bytes())
}

type shdr struct {
	name    uint32
	typ     uint32
	off     uint64
	size    uint64
	link    uint32
	info    uint32
	align   uint64
	entsize uint64
}

func writeEhdr(buf *bytes.Buffer, typ uint16, phnum int, shoff uint64, shnum, shstrndx uint16) {
	ident := [16]byte{0x7f, 'E', 'L', 'F', 2 /* 64-bit */, 1 /* LE */, 1 /* version */}
	buf.Write(ident[:])

	var h [48]byte
	binary.LittleEndian.PutUint16(h[0:], typ)
	binary.LittleEndian.PutUint16(h[2:], 62) // EM_X86_64
	binary.LittleEndian.PutUint32(h[4:], 1)  // version
	binary.LittleEndian.PutUint64(h[8:], 0)  // entry
	binary.LittleEndian.PutUint64(h[16:], ehSize)
	binary.LittleEndian.PutUint64(h[24:], shoff)
	binary.LittleEndian.PutUint32(h[32:], 0) // flags
	binary.LittleEndian.PutUint16(h[36:], ehSize)
	binary.LittleEndian.PutUint16(h[38:], phSize)
	binary.LittleEndian.PutUint16(h[40:], uint16(phnum))
	binary.LittleEndian.PutUint16(h[42:], shSize)
	binary.LittleEndian.PutUint16(h[44:], shnum)
	binary.LittleEndian.PutUint16(h[46:], shstrndx)
	buf.Write(h[:])
}

func writePhdr(buf *bytes.Buffer, off, vaddr, size uint64) {
	var h [phSize]byte
	binary.LittleEndian.PutUint32(h[0:], ptLoad)
	binary.LittleEndian.PutUint32(h[4:], 6) // RW
	binary.LittleEndian.PutUint64(h[8:], off)
	binary.LittleEndian.PutUint64(h[16:], vaddr)
	binary.LittleEndian.PutUint64(h[24:], vaddr)
	binary.LittleEndian.PutUint64(h[32:], size)
	binary.LittleEndian.PutUint64(h[40:], size)
	binary.LittleEndian.PutUint64(h[48:], 1)
	buf.Write(h[:])
}

func writeShdr(buf *bytes.Buffer, s shdr) {
	var h [shSize]byte
	binary.LittleEndian.PutUint32(h[0:], s.name)
	binary.LittleEndian.PutUint32(h[4:], s.typ)
	binary.LittleEndian.PutUint64(h[24:], s.off)
	binary.LittleEndian.PutUint64(h[32:], s.size)
	binary.LittleEndian.PutUint32(h[40:], s.link)
	binary.LittleEndian.PutUint32(h[44:], s.info)
	binary.LittleEndian.PutUint64(h[48:], s.align)
	binary.LittleEndian.PutUint64(h[56:], s.entsize)
	buf.Write(h[:])
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
