package integration_tests

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bbpatcher/internal/app"
	"github.com/vk/bbpatcher/internal/cli"
	"github.com/vk/bbpatcher/internal/preload"
	"github.com/vk/bbpatcher/internal/signature"
	"github.com/vk/bbpatcher/internal/testutil"
)

// Test for: the all command patches the executable and writes the archive
func TestCLI_AllCommand_PatchesAndPackages(t *testing.T) {
	// --- Arrange ---
	game := t.TempDir()
	exe := testutil.WritePE(t, filepath.Join(game, "win32"), app.ExeName, testutil.PEOptions{})
	mods := filepath.Join(game, "mods")
	testutil.WriteMod(t, mods, "mod_hooks", testutil.Manifest("mod_hooks", "priority = 0"), map[string]string{
		"scripts/!mods_preload/hooks.nut": "hooks",
	})
	testutil.WriteMod(t, mods, "mod_msu", testutil.Manifest("mod_msu", `requires = ["mod_hooks"]`), map[string]string{
		"scripts/msu.nut": "msu",
	})

	outW, logW := &bytes.Buffer{}, &bytes.Buffer{}
	cfg, shouldExit, err := cli.Parse([]string{"all", "--no-color", "--log-level", "debug", exe}, outW)
	require.NoError(t, err)
	require.False(t, shouldExit)
	bbApp, err := app.NewApp(outW, logW, cfg)
	require.NoError(t, err)

	// --- Act ---
	err = bbApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err, "output:\n%s\nlogs:\n%s", outW.String(), logW.String())
	patched, err := signature.IsLargeAddressAware(exe)
	require.NoError(t, err)
	assert.True(t, patched)
	assert.FileExists(t, exe+"."+signature.Unknown.BackupSuffix())
	assert.FileExists(t, filepath.Join(game, "data", preload.ArchiveName))
	assert.Contains(t, outW.String(), "Load order: mod_hooks, mod_msu")
}
