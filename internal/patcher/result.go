package patcher

import (
	"fmt"

	"github.com/vk/bbpatcher/internal/signature"
)

// Outcome is what a patch invocation did.
type Outcome int

const (
	Failed Outcome = iota
	AlreadyPatched
	PatchedSuccessfully
	RefusedDRM
	RefusedUnknown
)

func (o Outcome) String() string {
	switch o {
	case AlreadyPatched:
		return "already patched"
	case PatchedSuccessfully:
		return "patched"
	case RefusedDRM:
		return "refused (drm)"
	case RefusedUnknown:
		return "refused (unknown build)"
	default:
		return "failed"
	}
}

// Result describes one patch invocation. It is never persisted.
type Result struct {
	Outcome Outcome
	Variant signature.Variant
	Path    string
	// Offset is the file offset of the characteristics field.
	Offset int64
	// Before and After are the characteristics values around the patch.
	Before, After uint16
	// BackupPath is the sibling backup, and BackupCreated reports whether this
	// run created it or found an existing one.
	BackupPath    string
	BackupCreated bool
	Warnings      []string
	// Reason is set when Outcome is Failed or a refusal.
	Reason string
}

func (r *Result) String() string {
	switch r.Outcome {
	case AlreadyPatched:
		return "Already patched"
	case PatchedSuccessfully:
		return fmt.Sprintf("Patched %s version (characteristics 0x%04x -> 0x%04x at offset 0x%x)", r.Variant, r.Before, r.After, r.Offset)
	case RefusedDRM, RefusedUnknown:
		return "Refused: " + r.Reason
	default:
		return "Failed: " + r.Reason
	}
}
