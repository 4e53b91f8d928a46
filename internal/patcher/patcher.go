package patcher

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/fsutil"
	"github.com/vk/bbpatcher/internal/pe"
	"github.com/vk/bbpatcher/internal/signature"
)

const op = "patch"

// WarnDRM is surfaced when a DRM-wrapped executable is patched under override.
const WarnDRM = "the Steam DRM wrapper rebuilds the image it loads at runtime, so the large-address-aware flag may not take effect"

// WarnUnknown is surfaced when the executable matched no known build.
const WarnUnknown = "the executable is not a known build; it was patched anyway"

// Options controls patch policy.
type Options struct {
	// AllowDRM patches a DRM-wrapped executable instead of refusing.
	AllowDRM bool
	// RefuseUnknown refuses an executable that matched no known build.
	RefuseUnknown bool
}

// Patcher applies the large-address-aware patch.
type Patcher struct {
	// writeAtomic replaces a file; swapped in tests to inject failures.
	writeAtomic func(path string, perm fs.FileMode, fn fsutil.WriteFunc) error
}

// New returns a Patcher writing through fsutil.WriteAtomic.
func New() *Patcher {
	return &Patcher{writeAtomic: fsutil.WriteAtomic}
}

// BackupPath returns the backup name used for path and variant.
func BackupPath(path string, v signature.Variant) string {
	return path + "." + v.BackupSuffix()
}

// Patch sets the large-address-aware flag of the executable at path.
// variant is the pre-computed classification of the file. The returned
// Result is always non-nil; err is non-nil when the outcome is a refusal or
// Failed, in which case the file is byte-for-byte unchanged.
func (p *Patcher) Patch(ctx context.Context, path string, variant signature.Variant, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("path", path, "variant", variant.String())
	res := &Result{Variant: variant, Path: path, Offset: errs.NoOffset}

	switch variant {
	case signature.AlreadyPatched:
		logger.Info("Executable is already large-address-aware, nothing to do.")
		res.Outcome = AlreadyPatched
		return res, nil
	case signature.SteamDrmWrapped:
		if !opts.AllowDRM {
			res.Outcome = RefusedDRM
			res.Reason = "the executable is wrapped by Steam DRM; strip the wrapper first or pass the DRM override"
			logger.Warn("Refusing to patch DRM-wrapped executable.")
			return res, errs.New(errs.KindRefusedDRM, op, path, fmt.Errorf("%s", res.Reason))
		}
		logger.Warn("Patching DRM-wrapped executable on explicit override.", "warning", WarnDRM)
		res.Warnings = append(res.Warnings, WarnDRM)
	case signature.Unknown:
		if opts.RefuseUnknown {
			sum, err := pe.DigestFile(path)
			if err != nil {
				res.Outcome = Failed
				res.Reason = err.Error()
				return res, err
			}
			res.Outcome = RefusedUnknown
			res.Reason = fmt.Sprintf("the executable matched no known build (sha256 %x)", sum)
			logger.Warn("Refusing to patch unrecognized executable.", "sha256", fmt.Sprintf("%x", sum))
			return res, errs.New(errs.KindRefusedUnknown, op, path, fmt.Errorf("%s", res.Reason))
		}
		logger.Warn("Patching an executable that matched no known build.")
		res.Warnings = append(res.Warnings, WarnUnknown)
	}

	if err := p.apply(ctx, res); err != nil {
		res.Outcome = Failed
		res.Reason = err.Error()
		logger.Error("Patch failed, executable left unmodified.", "error", err)
		return res, err
	}
	return res, nil
}

func (p *Patcher) apply(ctx context.Context, res *Result) error {
	logger := ctxlog.FromContext(ctx).With("path", res.Path)

	src, err := os.Open(res.Path)
	if err != nil {
		return errs.IO(op, res.Path, err)
	}
	defer func() {
		if src != nil {
			src.Close()
		}
	}()

	st, err := src.Stat()
	if err != nil {
		return errs.IO(op, res.Path, err)
	}
	img, err := pe.Read(src, st.Size(), res.Path)
	if err != nil {
		return err
	}

	res.Offset = img.CharacteristicsOffset
	var field [2]byte
	if _, err := src.ReadAt(field[:], res.Offset); err != nil {
		return errs.Format(op, res.Path, res.Offset, "characteristics field unreadable: %v", err)
	}
	res.Before = binary.LittleEndian.Uint16(field[:])
	res.After = res.Before | pe.FileLargeAddressAware
	logger.Debug("Located characteristics field.", "offset", res.Offset, "value", fmt.Sprintf("0x%04x", res.Before))

	if res.Before == res.After {
		// Classified stale; the file already carries the flag.
		logger.Info("Characteristics already carry the flag, nothing to write.")
		res.Outcome = AlreadyPatched
		return nil
	}

	if st.Mode().Perm()&0o222 == 0 {
		return errs.IO(op, res.Path, fmt.Errorf("executable is read-only: %w", fs.ErrPermission))
	}

	res.BackupPath = BackupPath(res.Path, res.Variant)
	res.BackupCreated, err = fsutil.CopyNew(res.Path, res.BackupPath)
	if err != nil {
		return errs.IO(op, res.BackupPath, fmt.Errorf("failed to create backup: %w", err))
	}
	if res.BackupCreated {
		logger.Info("Backup created.", "backup", res.BackupPath)
	} else {
		logger.Info("Backup already exists, keeping it.", "backup", res.BackupPath)
	}

	binary.LittleEndian.PutUint16(field[:], res.After)
	err = p.writeAtomic(res.Path, st.Mode().Perm(), func(tmp *os.File) error {
		if _, err := io.Copy(tmp, io.NewSectionReader(src, 0, st.Size())); err != nil {
			return err
		}
		// Release the source before the rename; Windows refuses to replace
		// a file that is still open.
		err := src.Close()
		src = nil
		if err != nil {
			return err
		}
		_, err = tmp.WriteAt(field[:], res.Offset)
		return err
	})
	if err != nil {
		return errs.IO(op, res.Path, err)
	}

	res.Outcome = PatchedSuccessfully
	logger.Info("Large-address-aware flag set.", "offset", res.Offset, "before", fmt.Sprintf("0x%04x", res.Before), "after", fmt.Sprintf("0x%04x", res.After))
	return nil
}
