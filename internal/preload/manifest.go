package preload

import (
	"github.com/vk/bbpatcher/internal/modlist"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ManifestEntry is the name of the first archive entry.
const ManifestEntry = "msu_launcher/manifest.json"

// FormatVersion is written as the manifest "format" field.
const FormatVersion = 1

type manifestDoc struct {
	Format int           `cty:"format"`
	Mods   []manifestMod `cty:"mods"`
	Order  []string      `cty:"order"`
}

type manifestMod struct {
	ID        string   `cty:"id"`
	Name      string   `cty:"name"`
	Version   string   `cty:"version"`
	Dir       string   `cty:"dir"`
	Files     []string `cty:"files"`
	OnStart   []string `cty:"on_start"`
	OnRunning []string `cty:"on_running"`
}

// buildManifest renders the manifest for mods in load order. Object keys are
// emitted sorted, so the output depends only on the input.
func buildManifest(mods []modlist.Mod) ([]byte, error) {
	doc := manifestDoc{
		Format: FormatVersion,
		Mods:   make([]manifestMod, 0, len(mods)),
		Order:  make([]string, 0, len(mods)),
	}
	for _, m := range mods {
		mm := manifestMod{
			ID:        m.ID,
			Name:      m.Name,
			Version:   m.Version,
			Dir:       m.Dir,
			Files:     make([]string, 0, len(m.Files)),
			OnStart:   []string{},
			OnRunning: []string{},
		}
		for _, f := range m.Files {
			p := m.Path(f)
			mm.Files = append(mm.Files, p)
			if modlist.StageOf(f) == modlist.OnStart {
				mm.OnStart = append(mm.OnStart, p)
			} else {
				mm.OnRunning = append(mm.OnRunning, p)
			}
		}
		doc.Mods = append(doc.Mods, mm)
		doc.Order = append(doc.Order, m.ID)
	}

	ty, err := gocty.ImpliedType(doc)
	if err != nil {
		return nil, err
	}
	val, err := gocty.ToCtyValue(doc, ty)
	if err != nil {
		return nil, err
	}
	return ctyjson.Marshal(val, ty)
}
