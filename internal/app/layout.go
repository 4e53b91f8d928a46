package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/preload"
)

// ExeName is the game executable.
const ExeName = "BattleBrothers.exe"

// exeSubdir is where Steam and GOG installs keep the executable.
const exeSubdir = "win32"

// layout is the resolved set of paths one run works on.
type layout struct {
	GameDir string
	// Exe is empty when no executable was found.
	Exe    string
	Mods   string
	Output string
}

// resolveLayout interprets the game path. A path to the executable names
// the game directory as its parent, or the parent of win32/. For a
// directory the executable is looked up directly inside it, then in win32/.
func resolveLayout(cfg *Config) (*layout, error) {
	st, err := os.Stat(cfg.GamePath)
	if err != nil {
		return nil, errs.IO("resolve", cfg.GamePath, err)
	}

	l := &layout{}
	if st.IsDir() {
		l.GameDir = cfg.GamePath
		for _, candidate := range []string{
			filepath.Join(cfg.GamePath, ExeName),
			filepath.Join(cfg.GamePath, exeSubdir, ExeName),
		} {
			if fileExists(candidate) {
				l.Exe = candidate
				break
			}
		}
	} else {
		if !strings.EqualFold(filepath.Base(cfg.GamePath), ExeName) {
			return nil, errs.New(errs.KindIO, "resolve", cfg.GamePath,
				fmt.Errorf("expected path to %s or the game directory", ExeName))
		}
		l.Exe = cfg.GamePath
		l.GameDir = filepath.Dir(cfg.GamePath)
		if strings.EqualFold(filepath.Base(l.GameDir), exeSubdir) {
			l.GameDir = filepath.Dir(l.GameDir)
		}
	}

	l.Mods = cfg.ModsPath
	if l.Mods == "" {
		l.Mods = filepath.Join(l.GameDir, "mods")
	}
	l.Output = cfg.OutputPath
	if l.Output == "" {
		l.Output = filepath.Join(l.GameDir, "data", preload.ArchiveName)
	}
	return l, nil
}

// requireExe returns the executable path or an error naming where it was
// looked for.
func (l *layout) requireExe() (string, error) {
	if l.Exe == "" {
		return "", errs.IO("resolve", l.GameDir, fmt.Errorf("could not find %s: %w", ExeName, fs.ErrNotExist))
	}
	return l.Exe, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
