package signature

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/pe"
)

// Classification is the result of classifying one file.
type Classification struct {
	Variant Variant
	// Rule describes which check matched, for diagnostics.
	Rule   string
	Digest []byte
	Image  *pe.Image
}

// DigestHex returns the digest as lowercase hex.
func (c *Classification) DigestHex() string {
	return hex.EncodeToString(c.Digest)
}

// Classifier classifies executables against a Database.
type Classifier struct {
	db *Database
}

// NewClassifier returns a Classifier backed by db.
func NewClassifier(db *Database) *Classifier {
	return &Classifier{db: db}
}

// Classify inspects the file at path. It never modifies the file. A file that
// is not a PE image fails with a format error; Unknown is not an error.
func (c *Classifier) Classify(ctx context.Context, path string) (*Classification, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("Classifying executable.")

	img, err := pe.Open(path)
	if err != nil {
		return nil, err
	}
	sum, err := pe.DigestFile(path)
	if err != nil {
		return nil, err
	}
	res := &Classification{Digest: sum, Image: img}
	res.Variant, res.Rule = c.match(img, sum)

	logger.Debug("Executable classified.",
		"variant", res.Variant.String(),
		"rule", res.Rule,
		"sha256", res.DigestHex(),
		"sections", len(img.Sections),
		"overlay_size", img.OverlaySize,
	)
	return res, nil
}

func (c *Classifier) match(img *pe.Image, sum []byte) (Variant, string) {
	if img.LargeAddressAware() {
		return AlreadyPatched, "large-address-aware flag set"
	}
	for _, s := range img.Sections {
		if c.db.IsDRMSection(s.Name) {
			return SteamDrmWrapped, fmt.Sprintf("drm wrapper section %q", s.Name)
		}
	}
	if v, ok := c.db.Lookup(sum); ok {
		return v, "known digest"
	}
	return Unknown, "no rule matched"
}

// IsLargeAddressAware reports whether the file at path already has the
// large-address-aware flag set.
func IsLargeAddressAware(path string) (bool, error) {
	img, err := pe.Open(path)
	if err != nil {
		return false, err
	}
	return img.LargeAddressAware(), nil
}
