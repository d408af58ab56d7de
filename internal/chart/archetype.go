package chart

import (
	"encoding/json"
	"strings"
)

// Archetype is the chart shape that decides how series are derived.
type Archetype int

const (
	Clustered Archetype = iota
	Stacked
	Stacked100
	Waterfall
	Combination
	Line
	Area
	Area100
)

// DefaultArchetype is used whenever a (kind, subkind) pair is unknown.
const DefaultArchetype = Clustered

// Archetypes lists every archetype in catalog order.
var Archetypes = []Archetype{Stacked, Stacked100, Clustered, Waterfall, Combination, Line, Area, Area100}

var archetypeIDs = map[Archetype]string{
	Clustered:   "clustered",
	Stacked:     "stacked",
	Stacked100:  "stacked100",
	Waterfall:   "waterfall",
	Combination: "combination",
	Line:        "line",
	Area:        "area",
	Area100:     "area100",
}

var archetypeNames = map[Archetype]string{
	Clustered:   "Clustered",
	Stacked:     "Stacked",
	Stacked100:  "Stacked 100%",
	Waterfall:   "Waterfall",
	Combination: "Combination",
	Line:        "Line",
	Area:        "Area",
	Area100:     "Area 100%",
}

// String returns the chart id used by the editor ("stacked100", "area").
func (a Archetype) String() string {
	if id, ok := archetypeIDs[a]; ok {
		return id
	}
	return archetypeIDs[DefaultArchetype]
}

// Name is the human readable label.
func (a Archetype) Name() string {
	if name, ok := archetypeNames[a]; ok {
		return name
	}
	return archetypeNames[DefaultArchetype]
}

// HasOrientations reports whether the archetype can be drawn horizontally.
func (a Archetype) HasOrientations() bool {
	switch a {
	case Stacked, Stacked100, Clustered:
		return true
	default:
		return false
	}
}

// IsStacked reports whether series are stacked on top of each other.
func (a Archetype) IsStacked() bool {
	switch a {
	case Stacked, Stacked100, Area100:
		return true
	default:
		return false
	}
}

// IsPercent reports whether the value axis shows percentages.
func (a Archetype) IsPercent() bool {
	return a == Stacked100 || a == Area100
}

// SupportsStackTotals reports whether per-category totals can be shown.
func (a Archetype) SupportsStackTotals() bool {
	return a == Stacked || a == Stacked100
}

// MarshalJSON encodes the archetype as its chart id.
func (a Archetype) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a chart id; unknown ids decode to DefaultArchetype.
func (a *Archetype) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*a, _ = ParseArchetype(id)
	return nil
}

// ParseArchetype resolves a chart id such as "area100".
func ParseArchetype(id string) (Archetype, bool) {
	id = normalizeKey(id)
	for a, candidate := range archetypeIDs {
		if candidate == id {
			return a, true
		}
	}
	return DefaultArchetype, false
}

type classifyKey struct {
	kind    string
	subkind string
}

const anySubkind = "*"

var classifyTable = map[classifyKey]Archetype{
	{"column", "stacked"}:       Stacked,
	{"column", "stacked100"}:    Stacked100,
	{"column", "clustered"}:     Clustered,
	{"column", "grouped"}:       Clustered,
	{"column", "standard"}:      Clustered,
	{"column", anySubkind}:      Clustered,
	{"bar", "stacked"}:          Stacked,
	{"bar", "stacked100"}:       Stacked100,
	{"bar", "clustered"}:        Clustered,
	{"bar", "grouped"}:          Clustered,
	{"bar", "standard"}:         Clustered,
	{"bar", anySubkind}:         Clustered,
	{"area", "stacked100"}:      Area100,
	{"area", anySubkind}:        Area,
	{"line", anySubkind}:        Line,
	{"waterfall", anySubkind}:   Waterfall,
	{"combo", anySubkind}:       Combination,
	{"combination", anySubkind}: Combination,

	// Chart ids coming straight from the chart picker.
	{"stacked", anySubkind}:    Stacked,
	{"stacked100", anySubkind}: Stacked100,
	{"clustered", anySubkind}:  Clustered,
	{"area100", anySubkind}:    Area100,
}

// Classify maps an editor (kind, subkind) pair onto an Archetype. Unknown
// pairs fall back to DefaultArchetype so stale configs still render.
func Classify(kind, subkind string) Archetype {
	kind = normalizeKey(kind)
	subkind = normalizeKey(subkind)
	if a, ok := classifyTable[classifyKey{kind, subkind}]; ok {
		return a
	}
	if a, ok := classifyTable[classifyKey{kind, anySubkind}]; ok {
		return a
	}
	return DefaultArchetype
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CatalogEntry describes one archetype offered by the chart picker.
type CatalogEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	HasOrientations bool     `json:"hasOrientations"`
	Orientations    []string `json:"orientations"`
}

// Catalog lists the chart picker entries in display order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(Archetypes))
	for _, a := range Archetypes {
		orientations := []string{string(OrientationTop)}
		if a.HasOrientations() {
			orientations = append(orientations, string(OrientationRight))
		}
		out = append(out, CatalogEntry{
			ID:              a.String(),
			Name:            a.Name(),
			HasOrientations: a.HasOrientations(),
			Orientations:    orientations,
		})
	}
	return out
}
