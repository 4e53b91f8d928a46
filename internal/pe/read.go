package pe

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/vk/bbpatcher/internal/errs"
)

// An Image is the parsed header view of an executable file.
type Image struct {
	Path string
	Size int64

	DOS        DOSHeader
	FileHeader FileHeader
	Sections   []Section

	// NTHeaderOffset is the file offset of the "PE\0\0" signature.
	NTHeaderOffset int64
	// CharacteristicsOffset is the file offset of FileHeader.Characteristics.
	CharacteristicsOffset int64

	// OverlayOffset is where the data after the last section starts.
	OverlayOffset int64
	OverlaySize   int64
}

// LargeAddressAware reports whether the large-address-aware bit is set.
func (img *Image) LargeAddressAware() bool {
	return img.FileHeader.Characteristics&FileLargeAddressAware != 0
}

// Section returns the first section with the given name.
func (img *Image) Section(name string) (Section, bool) {
	for _, s := range img.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Open opens the named file and reads its image headers.
func Open(name string) (*Image, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, errs.IO("read image", name, err)
	}
	defer fp.Close()

	st, err := fp.Stat()
	if err != nil {
		return nil, errs.IO("read image", name, err)
	}
	return Read(fp, st.Size(), name)
}

// Read parses the image headers from r, which holds size bytes. name is used
// for error messages only.
func Read(r io.ReaderAt, size int64, name string) (*Image, error) {
	const op = "read image"
	img := &Image{Path: name, Size: size}

	if size < DOSHeaderSize {
		return nil, errs.Format(op, name, 0, "file is %d bytes, too small for a DOS header", size)
	}
	if err := readStruct(r, 0, &img.DOS); err != nil {
		return nil, errs.IO(op, name, err)
	}
	if img.DOS.Magic != DOSSignature {
		return nil, errs.Format(op, name, 0, "invalid DOS magic number 0x%04x", img.DOS.Magic)
	}

	nt := int64(img.DOS.Lfanew)
	if nt < DOSHeaderSize || nt+4+FileHeaderSize > size {
		return nil, errs.Format(op, name, lfanewOffset, "NT header offset 0x%x is out of bounds", nt)
	}
	var sig uint32
	if err := readStruct(r, nt, &sig); err != nil {
		return nil, errs.IO(op, name, err)
	}
	if sig != NTSignature {
		return nil, errs.Format(op, name, nt, "invalid PE signature 0x%08x", sig)
	}
	if err := readStruct(r, nt+4, &img.FileHeader); err != nil {
		return nil, errs.IO(op, name, err)
	}
	img.NTHeaderOffset = nt
	img.CharacteristicsOffset = nt + 4 + characteristicsField

	// The section table is read directly; the COFF symbol table is not
	// needed and is often stale in shipped images.
	tableOff := nt + 4 + FileHeaderSize + int64(img.FileHeader.SizeOfOptionalHeader)
	tableEnd := tableOff + int64(img.FileHeader.NumberOfSections)*SectionHeaderSize
	if tableEnd > size {
		return nil, errs.Format(op, name, tableOff, "section table of %d entries runs past end of file", img.FileHeader.NumberOfSections)
	}
	for i := 0; i < int(img.FileHeader.NumberOfSections); i++ {
		var sh SectionHeader
		if err := readStruct(r, tableOff+int64(i)*SectionHeaderSize, &sh); err != nil {
			return nil, errs.IO(op, name, err)
		}
		sec := Section{
			Name:            sectionName(sh.Name),
			VirtualSize:     sh.VirtualSize,
			VirtualAddress:  sh.VirtualAddress,
			Size:            sh.SizeOfRawData,
			Offset:          sh.PointerToRawData,
			Characteristics: sh.Characteristics,
		}
		if sec.End() > size {
			return nil, errs.Format(op, name, int64(sec.Offset), "section %q raw data runs past end of file", sec.Name)
		}
		img.Sections = append(img.Sections, sec)
		if end := sec.End(); end > img.OverlayOffset {
			img.OverlayOffset = end
		}
	}
	if img.OverlayOffset == 0 {
		img.OverlayOffset = size
	}
	img.OverlaySize = size - img.OverlayOffset
	return img, nil
}

func sectionName(raw [8]uint8) string {
	if i := bytes.IndexByte(raw[:], 0); i >= 0 {
		return string(raw[:i])
	}
	return string(raw[:])
}

func readStruct(r io.ReaderAt, off int64, data any) error {
	buf := make([]byte, binary.Size(data))
	if _, err := r.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, data)
}

// Digest returns the SHA-256 of the whole content of r.
func Digest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// DigestFile returns the SHA-256 of the named file.
func DigestFile(name string) ([]byte, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, errs.IO("digest", name, err)
	}
	defer fp.Close()
	sum, err := Digest(fp)
	if err != nil {
		return nil, errs.IO("digest", name, err)
	}
	return sum, nil
}
