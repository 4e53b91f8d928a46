package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// Manifest renders a modinfo.hcl holding one mod block. Each body line is
// placed inside the block verbatim, e.g. `priority = 1`.
func Manifest(id string, body ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mod %q {\n", id)
	for _, line := range body {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// WriteMod creates root/dir with the given manifest source and content
// files, and returns the mod directory.
func WriteMod(t *testing.T, root, dir, manifest string, files map[string]string) string {
	t.Helper()
	tree := map[string]string{"modinfo.hcl": manifest}
	for name, content := range files {
		tree[name] = content
	}
	modDir := filepath.Join(root, dir)
	WriteTree(t, modDir, tree)
	return modDir
}
