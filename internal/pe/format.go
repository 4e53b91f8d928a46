package pe

const (
	// DOSSignature is "MZ" read as little-endian uint16.
	DOSSignature = 0x5A4D
	// NTSignature is "PE\0\0" read as little-endian uint32.
	NTSignature = 0x00004550

	// FileLargeAddressAware is the IMAGE_FILE_LARGE_ADDRESS_AWARE bit of the
	// file header characteristics.
	FileLargeAddressAware uint16 = 0x0020

	DOSHeaderSize     = 64
	FileHeaderSize    = 20
	SectionHeaderSize = 40

	// lfanewOffset is the offset of e_lfanew within the DOS header.
	lfanewOffset = 0x3c
	// characteristicsField is the offset of Characteristics within the file header.
	characteristicsField = 18
)

// DOSHeader is the IMAGE_DOS_HEADER. Only the fields the reader needs are
// named; the rest are skipped by binary.Read.
type DOSHeader struct {
	Magic  uint16   // Magic number
	_      [58]byte // e_cblp .. e_res2
	Lfanew int32    // File address of new exe header
}

// FileHeader is the IMAGE_FILE_HEADER, same for 32 and 64 bit images.
type FileHeader struct {
	Machine              uint16 // Architecture type
	NumberOfSections     uint16 // Number of sections
	TimeDateStamp        uint32 // Time and date stamp
	PointerToSymbolTable uint32 // File offset of symbol table
	NumberOfSymbols      uint32 // Number of symbols
	SizeOfOptionalHeader uint16 // Size of optional header
	Characteristics      uint16 // File characteristics
}

// SectionHeader is the on-disk IMAGE_SECTION_HEADER.
type SectionHeader struct {
	Name                 [8]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// A Section is one entry of the section table.
type Section struct {
	Name            string
	VirtualSize     uint32
	VirtualAddress  uint32
	Size            uint32 // SizeOfRawData
	Offset          uint32 // PointerToRawData
	Characteristics uint32
}

// End returns the file offset one past the section's raw data.
func (s Section) End() int64 {
	return int64(s.Offset) + int64(s.Size)
}
