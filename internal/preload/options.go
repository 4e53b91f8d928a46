package preload

import (
	"fmt"
	"strings"
)

// Compression selects how content entries are stored.
type Compression int

const (
	// Deflate compresses every entry at a fixed level.
	Deflate Compression = iota
	// Store writes entries uncompressed.
	Store
)

func (c Compression) String() string {
	if c == Store {
		return "store"
	}
	return "deflate"
}

// ParseCompression accepts "deflate" or "store". An empty string means
// Deflate.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "deflate":
		return Deflate, nil
	case "store":
		return Store, nil
	default:
		return 0, fmt.Errorf("unknown compression %q, must be one of: deflate, store", s)
	}
}

// Options controls packaging.
type Options struct {
	Compression Compression
}

// Summary describes a written archive.
type Summary struct {
	Path      string
	Mods      int
	Files     int
	OnStart   int
	OnRunning int
	// Bytes is the size of the archive on disk.
	Bytes int64
}
