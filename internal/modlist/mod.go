package modlist

import (
	"fmt"
	"strings"
)

// ManifestName is the per-mod manifest file.
const ManifestName = "modinfo.hcl"

// preloadDir holds the files the loader runs before the game starts.
const preloadDir = "scripts/!mods_preload/"

// Stage is the point at which the runtime loader consumes a file.
type Stage int

const (
	// OnRunning files are loaded once the game is running.
	OnRunning Stage = iota
	// OnStart files are loaded before the game starts.
	OnStart
)

func (s Stage) String() string {
	if s == OnStart {
		return "on_start"
	}
	return "on_running"
}

// StageOf returns the load stage of a mod-relative, slash-separated path.
func StageOf(rel string) Stage {
	if strings.HasPrefix(rel, preloadDir) {
		return OnStart
	}
	return OnRunning
}

// Mod is one discovered mod. It is handed around by value.
type Mod struct {
	// ID is the declared identifier (the label of the mod block).
	ID string
	// Dir is the directory name below the mods root.
	Dir string
	// Root is the full path of the mod directory.
	Root    string
	Name    string
	Version string
	// Priority is only meaningful when HasPriority is set.
	Priority    int
	HasPriority bool
	LoadAfter   []string
	LoadBefore  []string
	Requires    []string
	// Files are the content files relative to Root, slash-separated, sorted.
	Files []string
}

// Path returns the mods-root-relative path of a content file.
func (m Mod) Path(rel string) string {
	return m.Dir + "/" + rel
}

// FilesIn returns the content files of the given stage, in sorted order.
func (m Mod) FilesIn(s Stage) []string {
	var out []string
	for _, f := range m.Files {
		if StageOf(f) == s {
			out = append(out, f)
		}
	}
	return out
}

func (m Mod) String() string {
	if m.Version != "" {
		return fmt.Sprintf("%s@%s", m.ID, m.Version)
	}
	return m.ID
}

// after returns every identifier this mod must load after.
func (m Mod) after() []string {
	out := make([]string, 0, len(m.LoadAfter)+len(m.Requires))
	out = append(out, m.LoadAfter...)
	return append(out, m.Requires...)
}
