package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinThemes(t *testing.T) {
	set := BuiltinThemes()

	require.Equal(t, "boardsmith-professional", set.Default())
	require.Len(t, set.List(), 4)

	financial, err := set.Get("Financial")
	require.NoError(t, err)
	require.Equal(t, "#E46C44", financial.Colors[0])

	_, err = set.Get("neon")
	require.ErrorIs(t, err, ErrThemeNotFound)
	require.Equal(t, "boardsmith-professional", set.Resolve("neon").Name)
}

func TestThemeStyling(t *testing.T) {
	theme, err := BuiltinThemes().Get("monochrome")
	require.NoError(t, err)

	s := theme.Styling()

	require.Equal(t, theme.Colors, s.Palette)
	require.Equal(t, "rgba(206, 233, 231, 0.3)", s.GridColor)
	require.Equal(t, "#0A766C", s.IncreaseColor)
	require.True(t, s.ShowLegend)
}

func TestLoadThemesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	doc := `
default: night
themes:
  - name: Night
    colors: ["#000000", "#333333"]
  - name: day
    colors: ["#ffffff"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	set, err := LoadThemes(path, "")
	require.NoError(t, err)
	require.Equal(t, "night", set.Default())
	require.Equal(t, []string{"#000000", "#333333"}, set.Resolve("").Colors)

	set, err = LoadThemes(path, "day")
	require.NoError(t, err)
	require.Equal(t, "day", set.Resolve("").Name)

	_, err = LoadThemes(path, "dusk")
	require.ErrorIs(t, err, ErrThemeNotFound)
}

func TestParseThemesRejectsInvalid(t *testing.T) {
	_, err := ParseThemes([]byte("themes: []"))
	require.Error(t, err)

	_, err = ParseThemes([]byte("themes:\n  - name: a\n    colors: []\n"))
	require.Error(t, err)

	_, err = ParseThemes([]byte("themes:\n  - name: a\n    colors: [red]\n  - name: A\n    colors: [blue]\n"))
	require.Error(t, err)
}
