package signature

// Variant is the distribution variant of a game executable.
type Variant int

const (
	Unknown Variant = iota
	SteamUnprotected
	SteamDrmWrapped
	Gog
	AlreadyPatched
)

func (v Variant) String() string {
	switch v {
	case SteamUnprotected:
		return "Steam (DRM removed)"
	case SteamDrmWrapped:
		return "Steam (DRM wrapped)"
	case Gog:
		return "GOG"
	case AlreadyPatched:
		return "Already patched"
	default:
		return "Unknown"
	}
}

// BackupSuffix names the sibling backup file written before patching a file
// of this variant, e.g. "BattleBrothers.exe.gog_backup".
func (v Variant) BackupSuffix() string {
	switch v {
	case SteamUnprotected:
		return "steamless_backup"
	case SteamDrmWrapped:
		return "steam_backup"
	case Gog:
		return "gog_backup"
	default:
		return "unknown_backup"
	}
}

// variantLabels maps the block labels of the signature database to variants.
var variantLabels = map[string]Variant{
	"steam_drm": SteamDrmWrapped,
	"steamless": SteamUnprotected,
	"gog":       Gog,
}
