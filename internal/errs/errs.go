package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindIO Kind = iota + 1
	KindFormat
	KindRefusedDRM
	KindManifest
	KindCycle
	KindMissingFile
	KindEmptyInput
	KindRefusedUnknown
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindFormat:
		return "format error"
	case KindRefusedDRM:
		return "refused: drm"
	case KindManifest:
		return "manifest error"
	case KindCycle:
		return "cycle error"
	case KindMissingFile:
		return "missing file"
	case KindEmptyInput:
		return "empty input"
	case KindRefusedUnknown:
		return "refused: unknown build"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for use with errors.Is.
var (
	ErrIO          = &Error{Kind: KindIO}
	ErrFormat      = &Error{Kind: KindFormat}
	ErrRefusedDRM  = &Error{Kind: KindRefusedDRM}
	ErrManifest    = &Error{Kind: KindManifest}
	ErrCycle       = &Error{Kind: KindCycle}
	ErrMissingFile = &Error{Kind: KindMissingFile}
	ErrEmptyInput  = &Error{Kind: KindEmptyInput}

	ErrRefusedUnknown = &Error{Kind: KindRefusedUnknown}
)

// NoOffset marks an Error that is not tied to a byte offset.
const NoOffset int64 = -1

// Error is the concrete error type returned by the core packages.
type Error struct {
	Kind   Kind
	Op     string // operation, e.g. "classify", "patch", "package"
	Path   string // file or directory involved
	Mod    string // mod identifier or directory, if any
	Offset int64  // byte offset, NoOffset when not applicable
	Err    error  // underlying cause
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Mod != "" {
		fmt.Fprintf(&sb, ": mod %q", e.Mod)
	}
	if e.Path != "" {
		fmt.Fprintf(&sb, ": %s", e.Path)
	}
	if e.Offset >= 0 && e.Err != nil {
		fmt.Fprintf(&sb, " at offset 0x%x", e.Offset)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. Sentinels carry
// only a Kind, so errors.Is(err, ErrFormat) matches any format error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind with no offset.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Offset: NoOffset, Err: err}
}

// IO wraps err as an IO error for path.
func IO(op, path string, err error) *Error {
	return New(KindIO, op, path, err)
}

// Format builds a format error for path at a byte offset.
func Format(op, path string, offset int64, format string, a ...any) *Error {
	return &Error{Kind: KindFormat, Op: op, Path: path, Offset: offset, Err: fmt.Errorf(format, a...)}
}

// Manifest builds a manifest error for a single mod.
func Manifest(mod, path string, err error) *Error {
	return &Error{Kind: KindManifest, Op: "scan", Path: path, Mod: mod, Offset: NoOffset, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
