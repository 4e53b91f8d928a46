package modlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/fsutil"
)

// Result is the outcome of a scan.
type Result struct {
	// Mods are the accepted mods in load order.
	Mods []Mod
	// Problems holds one manifest error per excluded mod, in directory order.
	Problems []error
}

// IDs returns the identifiers of the accepted mods in load order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Mods))
	for i, m := range r.Mods {
		ids[i] = m.ID
	}
	return ids
}

// Scan discovers and orders the mods below root. Problems with individual
// mods are collected in the result; a cycle between the accepted mods, or
// an unreadable root, aborts the scan.
func Scan(ctx context.Context, root string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scanning mods directory.", "path", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errs.IO("scan", root, err)
	}

	res := &Result{}
	parser := hclparse.NewParser()
	seen := make(map[string]string) // id -> dir
	var mods []Mod

	// os.ReadDir sorts by name, so duplicates resolve by directory order.
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		dir := filepath.Join(root, name)
		manifest := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(manifest); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Skipping directory without manifest.", "dir", name)
				continue
			}
			res.problem(ctx, errs.Manifest(name, manifest, err))
			continue
		}

		mb, err := parseManifest(parser, manifest)
		if err != nil {
			res.problem(ctx, errs.Manifest(name, manifest, err))
			continue
		}
		if first, dup := seen[mb.ID]; dup {
			res.problem(ctx, errs.Manifest(mb.ID, manifest, fmt.Errorf("duplicate identifier, already declared in %s", first)))
			continue
		}

		m := mb.toMod(name, dir)
		m.Files, err = fsutil.ListFiles(dir, func(rel string, d fs.DirEntry) bool {
			if rel == ManifestName {
				return true
			}
			return !d.IsDir() && excluded(mb.Exclude, rel)
		})
		if err != nil {
			res.problem(ctx, errs.Manifest(mb.ID, dir, fmt.Errorf("listing content: %w", err)))
			continue
		}

		seen[mb.ID] = name
		mods = append(mods, m)
		logger.Debug("Discovered mod.", "mod", m.ID, "dir", name, "files", len(m.Files))
	}

	mods = res.resolveRequires(ctx, mods)
	warnUnknownRefs(ctx, mods)

	ordered, err := order(ctx, mods)
	if err != nil {
		return nil, errs.New(errs.KindCycle, "order", root, err)
	}
	res.Mods = ordered
	logger.Info("Mods enumerated.", "mods", len(res.Mods), "problems", len(res.Problems))
	return res, nil
}

func (r *Result) problem(ctx context.Context, err *errs.Error) {
	ctxlog.FromContext(ctx).Warn("Excluding mod.", "mod", err.Mod, "path", err.Path, "error", err.Err)
	r.Problems = append(r.Problems, err)
}

// resolveRequires drops mods whose required mods are absent, repeating until
// nothing changes so that exclusions cascade.
func (r *Result) resolveRequires(ctx context.Context, mods []Mod) []Mod {
	for {
		present := make(map[string]bool, len(mods))
		for _, m := range mods {
			present[m.ID] = true
		}

		kept := mods[:0:0]
		for _, m := range mods {
			if missing := firstMissing(m.Requires, present); missing != "" {
				r.problem(ctx, errs.Manifest(m.ID, filepath.Join(m.Root, ManifestName),
					fmt.Errorf("missing required mod %q", missing)))
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == len(mods) {
			return kept
		}
		mods = kept
	}
}

func firstMissing(ids []string, present map[string]bool) string {
	for _, id := range ids {
		if !present[id] {
			return id
		}
	}
	return ""
}

func warnUnknownRefs(ctx context.Context, mods []Mod) {
	logger := ctxlog.FromContext(ctx)
	known := make([]string, len(mods))
	present := make(map[string]bool, len(mods))
	for i, m := range mods {
		known[i] = m.ID
		present[m.ID] = true
	}
	for _, m := range mods {
		for _, ref := range append(append([]string(nil), m.LoadAfter...), m.LoadBefore...) {
			if present[ref] {
				continue
			}
			args := []any{"mod", m.ID, "reference", ref}
			if s := suggest(ref, known); s != "" {
				args = append(args, "did_you_mean", s)
			}
			logger.Warn("Ignoring reference to unknown mod.", args...)
		}
	}
}
