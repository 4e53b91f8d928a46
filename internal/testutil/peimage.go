package testutil

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Offsets of the synthetic image layout produced by BuildPE.
const (
	PELfanew                = 0x80
	PECharacteristicsOffset = PELfanew + 4 + 18
	peFileAlignment         = 0x200
	peSectionAlignment      = 0x1000
	peSectionRawSize        = 0x200
)

// PEOptions describes a synthetic 32-bit executable.
type PEOptions struct {
	// Characteristics of the file header. Zero means EXECUTABLE_IMAGE|32BIT_MACHINE.
	Characteristics uint16
	// Sections lists section names. Nil means .text, .rdata, .data.
	Sections []string
	// Overlay is appended after the last section.
	Overlay []byte
	// Seed varies section content so different builds hash differently.
	Seed byte
	// PointerToSymbolTable is written as-is into the file header.
	PointerToSymbolTable uint32
}

// BuildPE returns the bytes of a small but structurally valid PE32 image that
// debug/pe accepts unless PointerToSymbolTable is set.
func BuildPE(opts PEOptions) []byte {
	names := opts.Sections
	if names == nil {
		names = []string{".text", ".rdata", ".data"}
	}
	chars := opts.Characteristics
	if chars == 0 {
		chars = pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_32BIT_MACHINE
	}

	var buf bytes.Buffer
	le := binary.LittleEndian

	dos := make([]byte, PELfanew)
	dos[0], dos[1] = 'M', 'Z'
	le.PutUint32(dos[0x3c:], PELfanew)
	copy(dos[0x40:], "This program cannot be run in DOS mode.\r\r\n$")
	buf.Write(dos)

	buf.WriteString("PE\x00\x00")
	fh := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     uint16(len(names)),
		TimeDateStamp:        0x5f000000,
		PointerToSymbolTable: opts.PointerToSymbolTable,
		SizeOfOptionalHeader: uint16(binary.Size(pe.OptionalHeader32{})),
		Characteristics:      chars,
	}
	binary.Write(&buf, le, fh)

	headersEnd := buf.Len() + int(fh.SizeOfOptionalHeader) + len(names)*binary.Size(pe.SectionHeader32{})
	sizeOfHeaders := align(headersEnd, peFileAlignment)

	oh := pe.OptionalHeader32{
		Magic:               0x10b,
		MajorLinkerVersion:  14,
		SizeOfCode:          peSectionRawSize,
		AddressOfEntryPoint: peSectionAlignment,
		BaseOfCode:          peSectionAlignment,
		ImageBase:           0x400000,
		SectionAlignment:    peSectionAlignment,
		FileAlignment:       peFileAlignment,
		SizeOfImage:         uint32(peSectionAlignment * (len(names) + 1)),
		SizeOfHeaders:       uint32(sizeOfHeaders),
		Subsystem:           pe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
		SizeOfStackReserve:  0x100000,
		SizeOfStackCommit:   0x1000,
		SizeOfHeapReserve:   0x100000,
		SizeOfHeapCommit:    0x1000,
		NumberOfRvaAndSizes: 16,
	}
	oh.MajorOperatingSystemVersion = 6
	oh.MajorSubsystemVersion = 6
	binary.Write(&buf, le, oh)

	for i, name := range names {
		var sh pe.SectionHeader32
		copy(sh.Name[:], name)
		sh.VirtualSize = peSectionRawSize
		sh.VirtualAddress = uint32(peSectionAlignment * (i + 1))
		sh.SizeOfRawData = peSectionRawSize
		sh.PointerToRawData = uint32(sizeOfHeaders + i*peSectionRawSize)
		sh.Characteristics = pe.IMAGE_SCN_CNT_INITIALIZED_DATA | pe.IMAGE_SCN_MEM_READ
		binary.Write(&buf, le, sh)
	}
	buf.Write(make([]byte, sizeOfHeaders-buf.Len()))

	for i := range names {
		raw := bytes.Repeat([]byte{opts.Seed + byte(i) + 1}, peSectionRawSize)
		buf.Write(raw)
	}
	buf.Write(opts.Overlay)
	return buf.Bytes()
}

// WritePE writes a synthetic image into dir and returns its path.
func WritePE(t *testing.T, dir, name string, opts PEOptions) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, BuildPE(opts), 0o644))
	return path
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}
