package chart

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var builtinThemes []byte

// ErrThemeNotFound is returned when a theme name is unknown.
var ErrThemeNotFound = errors.New("chart: theme not found")

// WaterfallColors colors waterfall bars by direction.
type WaterfallColors struct {
	Increase string `yaml:"increase" json:"increase"`
	Decrease string `yaml:"decrease" json:"decrease"`
	Total    string `yaml:"total" json:"total"`
}

// Theme is a named palette plus typography and grid colors.
type Theme struct {
	Name            string          `yaml:"name" json:"name"`
	Label           string          `yaml:"label" json:"label"`
	Colors          []string        `yaml:"colors" json:"colors"`
	FontFamily      string          `yaml:"fontFamily" json:"fontFamily"`
	GridColor       string          `yaml:"gridColor" json:"gridColor"`
	BackgroundColor string          `yaml:"backgroundColor" json:"backgroundColor"`
	TextColor       string          `yaml:"textColor" json:"textColor"`
	BorderColor     string          `yaml:"borderColor" json:"borderColor"`
	Waterfall       WaterfallColors `yaml:"waterfall" json:"waterfall"`
}

// Styling returns DefaultStyling recolored with the theme.
func (t Theme) Styling() Styling {
	s := DefaultStyling()
	if len(t.Colors) > 0 {
		s.Palette = append([]string(nil), t.Colors...)
	}
	s.FontFamily = orDefault(t.FontFamily, s.FontFamily)
	s.GridColor = orDefault(t.GridColor, s.GridColor)
	s.BackgroundColor = orDefault(t.BackgroundColor, s.BackgroundColor)
	s.TextColor = orDefault(t.TextColor, s.TextColor)
	s.IncreaseColor = orDefault(t.Waterfall.Increase, s.IncreaseColor)
	s.DecreaseColor = orDefault(t.Waterfall.Decrease, s.DecreaseColor)
	s.TotalColor = orDefault(t.Waterfall.Total, s.TotalColor)
	return s
}

// ThemeSet is an immutable, ordered collection of themes.
type ThemeSet struct {
	fallback string
	themes   []Theme
}

type themeFile struct {
	Default string  `yaml:"default"`
	Themes  []Theme `yaml:"themes"`
}

// ParseThemes decodes a YAML theme document.
func ParseThemes(data []byte) (ThemeSet, error) {
	var doc themeFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ThemeSet{}, fmt.Errorf("chart: parse themes: %w", err)
	}
	set := ThemeSet{fallback: strings.TrimSpace(doc.Default)}
	seen := make(map[string]struct{}, len(doc.Themes))
	for _, theme := range doc.Themes {
		theme.Name = normalizeKey(theme.Name)
		if theme.Name == "" {
			return ThemeSet{}, errors.New("chart: parse themes: theme without name")
		}
		if _, dup := seen[theme.Name]; dup {
			return ThemeSet{}, fmt.Errorf("chart: parse themes: duplicate theme %q", theme.Name)
		}
		if len(theme.Colors) == 0 {
			return ThemeSet{}, fmt.Errorf("chart: parse themes: theme %q has no colors", theme.Name)
		}
		seen[theme.Name] = struct{}{}
		set.themes = append(set.themes, theme)
	}
	if len(set.themes) == 0 {
		return ThemeSet{}, errors.New("chart: parse themes: no themes defined")
	}
	if _, ok := seen[normalizeKey(set.fallback)]; !ok {
		set.fallback = set.themes[0].Name
	}
	set.fallback = normalizeKey(set.fallback)
	return set, nil
}

// BuiltinThemes returns the themes compiled into the binary.
func BuiltinThemes() ThemeSet {
	set, err := ParseThemes(builtinThemes)
	if err != nil {
		panic(err)
	}
	return set
}

// LoadThemes reads themes from path, or the builtin set when path is empty.
// defaultName, when set, overrides the file's default theme.
func LoadThemes(path, defaultName string) (ThemeSet, error) {
	set := BuiltinThemes()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ThemeSet{}, fmt.Errorf("chart: read themes: %w", err)
		}
		if set, err = ParseThemes(data); err != nil {
			return ThemeSet{}, err
		}
	}
	if strings.TrimSpace(defaultName) != "" {
		if _, err := set.Get(defaultName); err != nil {
			return ThemeSet{}, fmt.Errorf("chart: default theme %q: %w", defaultName, err)
		}
		set.fallback = normalizeKey(defaultName)
	}
	return set, nil
}

// Get returns the named theme.
func (s ThemeSet) Get(name string) (Theme, error) {
	name = normalizeKey(name)
	for _, theme := range s.themes {
		if theme.Name == name {
			return theme, nil
		}
	}
	return Theme{}, ErrThemeNotFound
}

// Resolve returns the named theme, or the default theme when name is blank
// or unknown.
func (s ThemeSet) Resolve(name string) Theme {
	if theme, err := s.Get(name); err == nil {
		return theme
	}
	if theme, err := s.Get(s.fallback); err == nil {
		return theme
	}
	if len(s.themes) > 0 {
		return s.themes[0]
	}
	return Theme{Name: "default", Colors: append([]string(nil), defaultPalette...)}
}

// Default returns the default theme name.
func (s ThemeSet) Default() string { return s.fallback }

// List returns the themes in file order.
func (s ThemeSet) List() []Theme {
	return append([]Theme(nil), s.themes...)
}
