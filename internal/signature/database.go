package signature

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/bbpatcher/internal/errs"
)

//go:embed data/signatures.hcl
var defaultDatabase []byte

// databaseFile is the HCL shape of a signature database.
type databaseFile struct {
	DRMSectionNames []string        `hcl:"drm_section_names,optional"`
	Variants        []*variantBlock `hcl:"variant,block"`
}

type variantBlock struct {
	Label  string   `hcl:"label,label"`
	SHA256 []string `hcl:"sha256"`
}

// Database holds the known digests and DRM section names.
type Database struct {
	digests     map[string]Variant // lowercase hex digest
	drmSections []string
	source      string // filename the database was parsed from
}

// DefaultDatabase returns the database compiled into the binary.
func DefaultDatabase() (*Database, error) {
	return ParseDatabase(defaultDatabase, "signatures.hcl")
}

// LoadDatabase reads a database from an HCL file.
func LoadDatabase(path string) (*Database, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("load signatures", path, err)
	}
	return ParseDatabase(src, path)
}

// ParseDatabase parses HCL source. filename is used in diagnostics.
func ParseDatabase(src []byte, filename string) (*Database, error) {
	const op = "load signatures"
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errs.New(errs.KindFormat, op, filename, fmt.Errorf("failed to parse: %w", diags))
	}

	var root databaseFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, errs.New(errs.KindFormat, op, filename, fmt.Errorf("failed to decode: %w", diags))
	}

	db := &Database{digests: make(map[string]Variant), source: filename}
	for _, name := range root.DRMSectionNames {
		db.addDRMSection(name)
	}
	for _, vb := range root.Variants {
		variant, ok := variantLabels[vb.Label]
		if !ok {
			return nil, errs.New(errs.KindFormat, op, filename, fmt.Errorf("unknown variant %q", vb.Label))
		}
		for i, raw := range vb.SHA256 {
			digest := strings.ToLower(strings.TrimSpace(raw))
			if b, err := hex.DecodeString(digest); err != nil || len(b) != 32 {
				return nil, errs.New(errs.KindFormat, op, filename,
					fmt.Errorf("variant %q: sha256[%d] %q is not a hex SHA-256 digest", vb.Label, i, raw))
			}
			if err := db.add(digest, variant); err != nil {
				return nil, errs.New(errs.KindFormat, op, filename, err)
			}
		}
	}
	return db, nil
}

func (d *Database) add(digest string, v Variant) error {
	if prev, ok := d.digests[digest]; ok && prev != v {
		return fmt.Errorf("digest %s listed as both %s and %s", digest, prev, v)
	}
	d.digests[digest] = v
	return nil
}

func (d *Database) addDRMSection(name string) {
	if i, found := slices.BinarySearch(d.drmSections, name); !found {
		d.drmSections = slices.Insert(d.drmSections, i, name)
	}
}

// Merge adds the entries of o. A digest mapped to two different variants is
// a format error.
func (d *Database) Merge(o *Database) error {
	for digest, v := range o.digests {
		if err := d.add(digest, v); err != nil {
			return errs.New(errs.KindFormat, "load signatures", o.source, err)
		}
	}
	for _, name := range o.drmSections {
		d.addDRMSection(name)
	}
	return nil
}

// Lookup returns the variant registered for a raw SHA-256 digest.
func (d *Database) Lookup(sum []byte) (Variant, bool) {
	v, ok := d.digests[hex.EncodeToString(sum)]
	return v, ok
}

// IsDRMSection reports whether a section name marks a DRM wrapper.
func (d *Database) IsDRMSection(name string) bool {
	_, found := slices.BinarySearch(d.drmSections, name)
	return found
}

// Len returns the number of known digests.
func (d *Database) Len() int { return len(d.digests) }
