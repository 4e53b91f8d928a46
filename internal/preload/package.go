package preload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/fsutil"
	"github.com/vk/bbpatcher/internal/modlist"
)

const op = "package"

// ArchiveName is the archive file name the loader looks for.
const ArchiveName = "~mod_msu_launcher.zip"

// MS-DOS encoding of 1980-01-01 00:00:00, the earliest representable time.
// Set directly so the writer adds no extended-timestamp extra field.
const (
	dosDate = 1<<5 | 1
	dosTime = 0
)

const compressionLevel = flate.BestCompression

// Packager writes preload archives.
type Packager struct {
	// writeAtomic replaces a file; swapped in tests to inject failures.
	writeAtomic func(path string, perm fs.FileMode, fn fsutil.WriteFunc) error
}

// New returns a Packager writing through fsutil.WriteAtomic.
func New() *Packager {
	return &Packager{writeAtomic: fsutil.WriteAtomic}
}

// Package writes the archive for mods, which must already be in load order,
// to dest. Content files are resolved below modsRoot. Either the complete
// archive replaces dest or dest is left exactly as it was.
func Package(ctx context.Context, modsRoot string, mods []modlist.Mod, dest string, opts Options) (*Summary, error) {
	return New().Package(ctx, modsRoot, mods, dest, opts)
}

// Package is the method form of the package-level Package.
func (p *Packager) Package(ctx context.Context, modsRoot string, mods []modlist.Mod, dest string, opts Options) (*Summary, error) {
	ctx = ctxlog.With(ctx, "path", dest)
	logger := ctxlog.FromContext(ctx)
	if len(mods) == 0 {
		return nil, errs.New(errs.KindEmptyInput, op, modsRoot, errors.New("no mods to package"))
	}

	sum := &Summary{Path: dest, Mods: len(mods)}
	for _, m := range mods {
		for _, f := range m.Files {
			src := filepath.Join(modsRoot, m.Dir, filepath.FromSlash(f))
			if err := checkRegular(src); err != nil {
				return nil, &errs.Error{Kind: errs.KindMissingFile, Op: op, Path: src, Mod: m.ID, Offset: errs.NoOffset, Err: err}
			}
			sum.Files++
			if modlist.StageOf(f) == modlist.OnStart {
				sum.OnStart++
			} else {
				sum.OnRunning++
			}
		}
	}

	manifest, err := buildManifest(mods)
	if err != nil {
		return nil, fmt.Errorf("building manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, errs.IO(op, filepath.Dir(dest), err)
	}

	err = p.writeAtomic(dest, 0o644, func(f *os.File) error {
		if err := writeArchive(f, modsRoot, mods, manifest, opts.Compression); err != nil {
			return err
		}
		n, err := f.Seek(0, io.SeekCurrent)
		sum.Bytes = n
		return err
	})
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, errs.IO(op, dest, err)
	}

	logger.Info("Preload archive written.", "mods", sum.Mods, "files", sum.Files,
		"on_start", sum.OnStart, "on_running", sum.OnRunning, "bytes", sum.Bytes)
	return sum, nil
}

func checkRegular(path string) error {
	st, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("not a regular file (mode %s)", st.Mode().Type())
	}
	return nil
}

func writeArchive(w io.Writer, modsRoot string, mods []modlist.Mod, manifest []byte, c Compression) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	method := zip.Deflate
	if c == Store {
		method = zip.Store
	}

	if err := writeEntry(zw, ManifestEntry, method, func(dst io.Writer) error {
		_, err := dst.Write(manifest)
		return err
	}); err != nil {
		return err
	}

	for _, m := range mods {
		for _, f := range m.Files {
			src := filepath.Join(modsRoot, m.Dir, filepath.FromSlash(f))
			err := writeEntry(zw, m.Path(f), method, func(dst io.Writer) error {
				in, err := os.Open(src)
				if err != nil {
					return err
				}
				defer in.Close()
				_, err = io.Copy(dst, in)
				return err
			})
			if err != nil {
				return &errs.Error{Kind: errs.KindIO, Op: op, Path: src, Mod: m.ID, Offset: errs.NoOffset, Err: err}
			}
		}
	}
	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, method uint16, fill func(io.Writer) error) error {
	fh := &zip.FileHeader{
		Name:         name,
		Method:       method,
		ModifiedDate: dosDate,
		ModifiedTime: dosTime,
	}
	fh.SetMode(0o644)
	dst, err := zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return fill(dst)
}
