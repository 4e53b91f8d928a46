package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/bbpatcher/internal/cli"
	"github.com/vk/bbpatcher/internal/testutil"
)

func TestRun_StartupFailure(t *testing.T) {
	// --- Arrange ---
	// A signature database with a syntax error fails application startup.
	dir := t.TempDir()
	sigs := filepath.Join(dir, "broken.hcl")
	err := os.WriteFile(sigs, []byte(`variant "gog" {`), 0o600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{"detect", "--no-color", "--signatures", sigs, dir}
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, logs, args)

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "application startup failed")
	require.Contains(t, runErr.Error(), "failed to parse")
	require.Equal(t, cli.ExitFailure, cli.ExitCode(runErr))
}

func TestRun_ShouldExit(t *testing.T) {
	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	// --- Arrange ---
	args := []string{"check", "--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	require.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestRun_RefusedDRMExitCode(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	testutil.WritePE(t, dir, "BattleBrothers.exe", testutil.PEOptions{Sections: []string{".text", ".bind"}})
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, []string{"patch4gb", "--no-color", "-p", dir})

	// --- Assert ---
	require.Error(t, err)
	require.Equal(t, cli.ExitRefusedDRM, cli.ExitCode(err))
	require.Contains(t, out.String(), "Refused")
}

func TestRun_StrictRefusesUnknownBuild(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	exe := testutil.WritePE(t, dir, "BattleBrothers.exe", testutil.PEOptions{})
	original := testutil.ReadFile(t, exe)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, []string{"patch4gb", "--strict", "--no-color", "-p", dir})

	// --- Assert ---
	require.Error(t, err)
	require.Equal(t, cli.ExitRefusedDRM, cli.ExitCode(err))
	require.Contains(t, out.String(), "Refused: unrecognized executable")
	require.Equal(t, original, testutil.ReadFile(t, exe))
}

func TestRun_Check(t *testing.T) {
	dir := t.TempDir()
	exe := testutil.WritePE(t, dir, "BattleBrothers.exe", testutil.PEOptions{Characteristics: 0x0122})
	out := &bytes.Buffer{}

	err := run(out, &bytes.Buffer{}, []string{"check", "--no-color", exe})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Status: PATCHED")
}
