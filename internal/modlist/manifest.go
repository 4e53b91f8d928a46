package modlist

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// manifestFile is the HCL shape of modinfo.hcl.
type manifestFile struct {
	Mods []*modBlock `hcl:"mod,block"`
}

type modBlock struct {
	ID         string   `hcl:"id,label"`
	Name       *string  `hcl:"name,optional"`
	Version    *string  `hcl:"version,optional"`
	Priority   *int     `hcl:"priority,optional"`
	LoadAfter  []string `hcl:"load_after,optional"`
	LoadBefore []string `hcl:"load_before,optional"`
	Requires   []string `hcl:"requires,optional"`
	Exclude    []string `hcl:"exclude,optional"`
}

// parseManifest reads and validates a manifest. The returned error carries
// no location; the caller wraps it.
func parseManifest(parser *hclparse.Parser, file string) (*modBlock, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	f, diags := parser.ParseHCL(src, file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse: %w", diags)
	}

	var root manifestFile
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode: %w", diags)
	}
	if len(root.Mods) != 1 {
		return nil, fmt.Errorf("expected exactly one mod block, found %d", len(root.Mods))
	}

	mb := root.Mods[0]
	if !identPattern.MatchString(mb.ID) {
		return nil, fmt.Errorf("invalid identifier %q", mb.ID)
	}
	for _, list := range []struct {
		name string
		ids  []string
	}{
		{"load_after", mb.LoadAfter},
		{"load_before", mb.LoadBefore},
		{"requires", mb.Requires},
	} {
		for _, id := range list.ids {
			if id == mb.ID {
				return nil, fmt.Errorf("%s references the mod itself", list.name)
			}
			if !identPattern.MatchString(id) {
				return nil, fmt.Errorf("%s: invalid identifier %q", list.name, id)
			}
		}
	}
	for _, pattern := range mb.Exclude {
		if _, err := path.Match(strings.ReplaceAll(pattern, "**", "*"), ""); err != nil {
			return nil, fmt.Errorf("exclude: bad pattern %q: %w", pattern, err)
		}
	}
	return mb, nil
}

func (mb *modBlock) toMod(dir, root string) Mod {
	m := Mod{
		ID:         mb.ID,
		Dir:        dir,
		Root:       root,
		LoadAfter:  mb.LoadAfter,
		LoadBefore: mb.LoadBefore,
		Requires:   mb.Requires,
	}
	if mb.Name != nil {
		m.Name = *mb.Name
	}
	if mb.Version != nil {
		m.Version = *mb.Version
	}
	if mb.Priority != nil {
		m.Priority, m.HasPriority = *mb.Priority, true
	}
	return m
}

// excluded reports whether rel matches one of the exclude patterns. A
// pattern without a slash matches the base name at any depth; a "**"
// segment matches any number of path segments.
func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
			continue
		}
		if matchSegments(strings.Split(p, "/"), strings.Split(rel, "/")) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(name); i++ {
				if matchSegments(pattern[1:], name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], name[0]); !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
