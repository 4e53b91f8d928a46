package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Format("classify", "game.exe", 0x3c, "bad e_lfanew %d", 9999))

	assert.ErrorIs(t, err, ErrFormat)
	assert.NotErrorIs(t, err, ErrIO)
	assert.Equal(t, KindFormat, KindOf(err))
}

func TestError_MessageNamesLocation(t *testing.T) {
	t.Run("offset", func(t *testing.T) {
		err := Format("patch", "/games/bb/BattleBrothers.exe", 0x96, "characteristics out of bounds")
		assert.Equal(t, "patch: format error: /games/bb/BattleBrothers.exe at offset 0x96: characteristics out of bounds", err.Error())
	})

	t.Run("mod", func(t *testing.T) {
		err := Manifest("mod_a", "mods/a/modinfo.hcl", errors.New("missing mod block"))
		assert.Equal(t, `scan: manifest error: mod "mod_a": mods/a/modinfo.hcl: missing mod block`, err.Error())
	})
}

func TestError_UnwrapReachesCause(t *testing.T) {
	err := IO("patch", "x.exe", fs.ErrPermission)

	require.ErrorIs(t, err, fs.ErrPermission)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "x.exe", e.Path)
	assert.Equal(t, NoOffset, e.Offset)
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "kind(42)", Kind(42).String())
}
