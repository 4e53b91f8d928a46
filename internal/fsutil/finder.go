// Package fsutil holds the file system helpers shared by the patcher and the
// preload packager: sorted file discovery, atomic replacement and
// never-overwrite copies.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"slices"
)

// ListFiles walks root and returns the paths of all regular files below it,
// relative to root, using forward slashes, sorted. skip is consulted for every
// relative path (files and directories); returning true prunes it.
func ListFiles(root string, skip func(rel string, d fs.DirEntry) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
