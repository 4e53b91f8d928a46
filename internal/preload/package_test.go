package preload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/fsutil"
	"github.com/vk/bbpatcher/internal/modlist"
	"github.com/vk/bbpatcher/internal/testutil"
)

// writeMods lays out two mods and returns the mods root and the scanned,
// ordered mods.
func writeMods(t *testing.T) (string, []modlist.Mod) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	root := t.TempDir()
	testutil.WriteMod(t, root, "mod_msu", testutil.Manifest("mod_msu",
		`name = "Modding Standards"`,
		`version = "1.6.0"`,
		`load_after = ["mod_hooks"]`,
	), map[string]string{
		"scripts/!mods_preload/mod_msu.nut": "::MSU <- {}",
		"scripts/msu/utils.nut":             "function util() {}",
	})
	testutil.WriteMod(t, root, "mod_hooks", testutil.Manifest("mod_hooks", "priority = 0"), map[string]string{
		"scripts/!mods_preload/hooks.nut": "::Hooks <- {}",
	})
	res, err := modlist.Scan(ctx, root)
	require.NoError(t, err)
	require.Len(t, res.Mods, 2)
	return root, res.Mods
}

func readArchive(t *testing.T, path string) (*zip.Reader, map[string]string) {
	t.Helper()
	data := testutil.ReadFile(t, path)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	contents := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = string(b)
	}
	return zr, contents
}

func TestPackage_Layout(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root, mods := writeMods(t)
	dest := filepath.Join(t.TempDir(), "data", ArchiveName)

	// --- Act ---
	sum, err := Package(ctx, root, mods, dest, Options{})

	// --- Assert ---
	require.NoError(t, err)
	zr, contents := readArchive(t, dest)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
		assert.Equal(t, fs.FileMode(0o644), f.Mode().Perm(), f.Name)
		assert.Equal(t, uint16(dosDate), f.ModifiedDate, f.Name)
		assert.Empty(t, f.Extra, f.Name)
	}
	want := []string{
		ManifestEntry,
		"mod_hooks/scripts/!mods_preload/hooks.nut",
		"mod_msu/scripts/!mods_preload/mod_msu.nut",
		"mod_msu/scripts/msu/utils.nut",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "::Hooks <- {}", contents["mod_hooks/scripts/!mods_preload/hooks.nut"])

	assert.Equal(t, &Summary{
		Path:      dest,
		Mods:      2,
		Files:     3,
		OnStart:   2,
		OnRunning: 1,
		Bytes:     int64(len(testutil.ReadFile(t, dest))),
	}, sum)
}

func TestPackage_Manifest(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root, mods := writeMods(t)
	dest := filepath.Join(t.TempDir(), ArchiveName)

	// --- Act ---
	_, err := Package(ctx, root, mods, dest, Options{})

	// --- Assert ---
	require.NoError(t, err)
	_, contents := readArchive(t, dest)
	raw := contents[ManifestEntry]
	assert.True(t, bytes.HasPrefix([]byte(raw), []byte(`{"format":1,"mods":[{"dir":"mod_hooks","files":[`)), raw)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	want := map[string]any{
		"format": float64(1),
		"order":  []any{"mod_hooks", "mod_msu"},
		"mods": []any{
			map[string]any{
				"id":         "mod_hooks",
				"name":       "",
				"version":    "",
				"dir":        "mod_hooks",
				"files":      []any{"mod_hooks/scripts/!mods_preload/hooks.nut"},
				"on_start":   []any{"mod_hooks/scripts/!mods_preload/hooks.nut"},
				"on_running": []any{},
			},
			map[string]any{
				"id":         "mod_msu",
				"name":       "Modding Standards",
				"version":    "1.6.0",
				"dir":        "mod_msu",
				"files":      []any{"mod_msu/scripts/!mods_preload/mod_msu.nut", "mod_msu/scripts/msu/utils.nut"},
				"on_start":   []any{"mod_msu/scripts/!mods_preload/mod_msu.nut"},
				"on_running": []any{"mod_msu/scripts/msu/utils.nut"},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestPackage_Deterministic(t *testing.T) {
	for _, c := range []Compression{Deflate, Store} {
		t.Run(c.String(), func(t *testing.T) {
			// --- Arrange ---
			ctx, _ := testutil.Context(t)
			root, mods := writeMods(t)
			out := t.TempDir()
			first := filepath.Join(out, "first.zip")
			second := filepath.Join(out, "second.zip")

			// --- Act ---
			_, err := Package(ctx, root, mods, first, Options{Compression: c})
			require.NoError(t, err)
			later := time.Now().Add(time.Hour)
			for _, m := range mods {
				for _, f := range m.Files {
					require.NoError(t, os.Chtimes(filepath.Join(m.Root, f), later, later))
				}
			}
			_, err = Package(ctx, root, mods, second, Options{Compression: c})
			require.NoError(t, err)

			// --- Assert ---
			assert.Equal(t, testutil.ReadFile(t, first), testutil.ReadFile(t, second))
		})
	}
}

func TestPackage_MissingFileWritesNothing(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root, mods := writeMods(t)
	missing := filepath.Join(root, "mod_msu", "scripts", "msu", "utils.nut")
	require.NoError(t, os.Remove(missing))
	out := t.TempDir()
	dest := filepath.Join(out, ArchiveName)

	// --- Act ---
	sum, err := Package(ctx, root, mods, dest, Options{})

	// --- Assert ---
	require.Error(t, err)
	assert.Nil(t, sum)
	assert.True(t, errors.Is(err, errs.ErrMissingFile))
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "mod_msu", e.Mod)
	assert.Equal(t, missing, e.Path)
	assert.Empty(t, testutil.DirNames(t, out), "no archive or temp file may be left behind")
}

func TestPackage_EmptyInput(t *testing.T) {
	ctx, _ := testutil.Context(t)
	out := t.TempDir()

	_, err := Package(ctx, t.TempDir(), nil, filepath.Join(out, ArchiveName), Options{})

	assert.True(t, errors.Is(err, errs.ErrEmptyInput))
	assert.Empty(t, testutil.DirNames(t, out))
}

func TestPackage_InterruptedWriteKeepsExistingArchive(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	root, mods := writeMods(t)
	out := t.TempDir()
	dest := filepath.Join(out, ArchiveName)
	require.NoError(t, os.WriteFile(dest, []byte("previous archive"), 0o644))

	boom := errors.New("disk full")
	p := &Packager{writeAtomic: func(path string, perm fs.FileMode, fn fsutil.WriteFunc) error {
		return fsutil.WriteAtomic(path, perm, func(f *os.File) error {
			if err := fn(f); err != nil {
				return err
			}
			return boom
		})
	}}

	// --- Act ---
	_, err := p.Package(ctx, root, mods, dest, Options{})

	// --- Assert ---
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.True(t, errors.Is(err, errs.ErrIO))
	assert.Equal(t, []byte("previous archive"), testutil.ReadFile(t, dest))
	assert.Equal(t, []string{ArchiveName}, testutil.DirNames(t, out))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": Deflate, "deflate": Deflate, "STORE": Store} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("lzma")
	assert.ErrorContains(t, err, `unknown compression "lzma"`)
}
