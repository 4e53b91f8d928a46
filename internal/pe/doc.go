// Package pe reads just enough of a Portable Executable image to classify it
// and patch it in place: the DOS header, the NT signature, the COFF file
// header, the section table and the overlay that trails the last section.
//
// All offsets are file offsets. The package never writes; mutation belongs to
// the patcher, which uses Image.CharacteristicsOffset to address the one
// field it touches.
package pe
