package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/modlist"
	"github.com/vk/bbpatcher/internal/patcher"
	"github.com/vk/bbpatcher/internal/preload"
	"github.com/vk/bbpatcher/internal/signature"
)

// noteWidth is the column at which notes are wrapped.
const noteWidth = 76

const drmGuidance = "The executable is still wrapped by Steam DRM, which rebuilds the image it " +
	"loads at runtime. Remove the wrapper first (for example with Steamless), then run patch4gb " +
	"on the unwrapped executable. Pass --allow-drm to patch the wrapped file anyway."

const strictGuidance = "The executable matched no known build and --strict is set. Verify the " +
	"installation, or add the SHA-256 below to a signature database passed with --signatures."

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.outW, format, args...)
}

// note prints a wrapped, indented paragraph.
func (a *App) note(text string) {
	for _, line := range strings.Split(wordwrap.WrapString(text, noteWidth), "\n") {
		a.printf("  %s\n", line)
	}
}

func (a *App) detect(ctx context.Context, l *layout) error {
	exe, err := l.requireExe()
	if err != nil {
		return err
	}
	a.printf("Detecting version of: %s\n", exe)

	cls, err := a.classifier.Classify(ctx, exe)
	if err != nil {
		return err
	}
	a.printf("  Version: %s\n", cls.Variant)
	switch cls.Variant {
	case signature.SteamDrmWrapped:
		a.printf("  %s\n", color.Yellow.Sprint("Note: remove the DRM wrapper before patching"))
	case signature.SteamUnprotected, signature.Gog:
		a.printf("  %s\n", color.Green.Sprint("Ready for 4GB patch!"))
	case signature.AlreadyPatched:
		a.printf("  %s\n", color.Green.Sprint("No action needed!"))
	default:
		a.printf("  SHA-256: %s\n", cls.DigestHex())
		a.printf("  %s\n", color.Yellow.Sprint("This may be a new game version. Please report the SHA-256 above."))
	}
	return nil
}

func (a *App) check(_ context.Context, l *layout) error {
	exe, err := l.requireExe()
	if err != nil {
		return err
	}
	a.printf("Checking LAA status of: %s\n", exe)

	patched, err := signature.IsLargeAddressAware(exe)
	if err != nil {
		return err
	}
	if patched {
		a.printf("  Status: %s (Large Address Aware flag is set)\n", color.Green.Sprint("PATCHED"))
	} else {
		a.printf("  Status: %s (needs 4GB patch)\n", color.Yellow.Sprint("NOT PATCHED"))
	}
	return nil
}

func (a *App) patch(ctx context.Context, l *layout) error {
	exe, err := l.requireExe()
	if err != nil {
		return err
	}
	a.printf("Applying 4GB (LAA) patch to: %s\n", exe)

	cls, err := a.classifier.Classify(ctx, exe)
	if err != nil {
		return err
	}
	res, err := a.patcher.Patch(ctx, exe, cls.Variant, patcher.Options{
		AllowDRM:      a.config.AllowDRM,
		RefuseUnknown: a.config.Strict,
	})
	switch {
	case res.Outcome == patcher.RefusedDRM:
		a.printf("  %s\n", color.Red.Sprint("Refused: DRM-wrapped executable"))
		a.note(drmGuidance)
	case res.Outcome == patcher.RefusedUnknown:
		a.printf("  %s\n", color.Red.Sprint("Refused: unrecognized executable"))
		a.note(strictGuidance)
	case err != nil:
		a.printf("  %s\n", color.Red.Sprint(res.String()))
	default:
		a.printf("  %s\n", color.Green.Sprint(res.String()))
		if res.BackupCreated {
			a.printf("  Backup: %s\n", res.BackupPath)
		}
	}
	for _, w := range res.Warnings {
		a.note(color.Yellow.Sprint("Warning: ") + w)
	}
	if cls.Variant == signature.Unknown {
		a.printf("  SHA-256: %s\n", cls.DigestHex())
	}
	return err
}

func (a *App) preload(ctx context.Context, l *layout) error {
	a.printf("Creating mod preload from: %s\n", l.Mods)

	res, err := modlist.Scan(ctx, l.Mods)
	if err != nil {
		return err
	}
	for _, p := range res.Problems {
		a.note(color.Yellow.Sprint("Skipped: ") + p.Error())
	}

	sum, err := a.packager.Package(ctx, l.Mods, res.Mods, l.Output, preload.Options{Compression: a.config.Compression})
	if err != nil {
		return err
	}
	a.printf("  Load order: %s\n", strings.Join(res.IDs(), ", "))
	a.printf("  Created %s with %d on_start and %d on_running resources\n", sum.Path, sum.OnStart, sum.OnRunning)
	return nil
}

// all patches the executable and then builds the preload archive. A patch
// failure is reported but does not stop the preload step.
func (a *App) all(ctx context.Context, l *layout) error {
	logger := ctxlog.FromContext(ctx)
	if l.Exe == "" {
		a.printf("%s could not find %s, skipping 4GB patch\n", color.Yellow.Sprint("Warning:"), ExeName)
	} else if err := a.patch(ctx, l); err != nil {
		logger.Warn("Patch step failed, continuing with preload.", "error", err)
		if !errors.Is(err, errs.ErrRefusedDRM) && !errors.Is(err, errs.ErrRefusedUnknown) {
			a.note(color.Yellow.Sprint("Warning: ") + err.Error())
		}
	}
	a.printf("\n")
	return a.preload(ctx, l)
}
