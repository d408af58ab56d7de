package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDropsInvalidRows(t *testing.T) {
	rows := []RawRow{
		NewRawRow("category", "Q1", "revenue", 100, "costs", "80"),
		NewRawRow("category", "", "revenue", 50, "costs", 10),
		NewRawRow("category", "Q2", "revenue", "", "costs", nil),
		NewRawRow("revenue", 70),
		NewRawRow("category", "Q3", "revenue", "120.5", "costs", "n/a"),
	}

	ds := Normalize(rows, NormalizeOptions{})

	require.Equal(t, "category", ds.CategoryKey)
	require.Equal(t, []string{"Q1", "Q3"}, ds.Categories())
	require.Equal(t, []string{"revenue", "costs"}, ds.Columns)
	require.Equal(t, []float64{100, 120.5}, ds.Floats("revenue"))

	costs := ds.Cell(1, "costs")
	require.False(t, costs.IsNumber())
	require.Equal(t, "n/a", costs.String())
	require.Equal(t, 80.0, ds.Cell(0, "costs").Float())
}

func TestNormalizeExcludesInactiveColumns(t *testing.T) {
	rows := []RawRow{
		NewRawRow("category", "A", "sales", 10, "empty", "", "zeros", 0),
		NewRawRow("category", "B", "sales", 20, "empty", nil, "zeros", "0"),
	}

	ds := Normalize(rows, NormalizeOptions{})

	require.Equal(t, []string{"sales", "empty", "zeros"}, ds.Columns)
	require.Equal(t, []string{"sales"}, ds.Series)
	require.True(t, ds.HasColumn("zeros"))
}

func TestNormalizeKeepsCategoryLabelsVerbatim(t *testing.T) {
	var rows []RawRow
	require.NoError(t, json.Unmarshal([]byte(`[
		{"category": " 007 ", "a": 1},
		{"category": "1e3", "a": 2},
		{"category": "2024.10", "a": 3},
		{"category": 2024, "a": 4}
	]`), &rows))

	ds := Normalize(rows, NormalizeOptions{})

	require.Equal(t, []string{"007", "1e3", "2024.10", "2024"}, ds.Categories())
}

func TestNormalizeKeepsCaseDistinctColumns(t *testing.T) {
	rows := []RawRow{
		NewRawRow("category", "A", "Sales", 10, "sales", 1),
		NewRawRow("category", "B", "Sales", 20, "sales", 2),
	}

	ds := Normalize(rows, NormalizeOptions{})

	require.Equal(t, []string{"Sales", "sales"}, ds.Series)
	require.Equal(t, []float64{10, 20}, ds.Floats("Sales"))
	require.Equal(t, []float64{1, 2}, ds.Floats("sales"))
	require.True(t, ds.HasColumn("SALES"))
}

func TestNormalizeEmptyInput(t *testing.T) {
	ds := Normalize(nil, NormalizeOptions{})
	require.True(t, ds.Empty())
	require.Empty(t, ds.Series)
	require.Empty(t, ds.Categories())
}

func TestNormalizeFallsBackToFirstColumn(t *testing.T) {
	rows := []RawRow{
		NewRawRow("month", "Jan", "users", 1200),
		NewRawRow("month", "Feb", "users", 1450),
	}

	ds := Normalize(rows, NormalizeOptions{})

	require.Equal(t, "month", ds.CategoryKey)
	require.Equal(t, []string{"Jan", "Feb"}, ds.Categories())
	require.Equal(t, []string{"users"}, ds.Series)
}

func TestNormalizeTotalFlag(t *testing.T) {
	rows := []RawRow{
		NewRawRow("category", "Start", "value", 100, "isTotal", true),
		NewRawRow("category", "Q1", "value", 30),
		NewRawRow("category", "End", "isTotal", "true"),
	}

	ds := Normalize(rows, NormalizeOptions{})

	require.Len(t, ds.Rows, 3)
	require.True(t, ds.Rows[0].IsTotal)
	require.False(t, ds.Rows[1].IsTotal)
	require.True(t, ds.Rows[2].IsTotal)
	require.NotContains(t, ds.Columns, "isTotal")
}

func TestNormalizeLimits(t *testing.T) {
	rows := []RawRow{
		NewRawRow("category", "A", "a", 1, "b", 2, "c", 3),
		NewRawRow("category", "B", "a", 1, "b", 2, "c", 3),
		NewRawRow("category", "C", "a", 1, "b", 2, "c", 3),
	}

	ds := Normalize(rows, NormalizeOptions{MaxRows: 2, MaxColumns: 2})

	require.Equal(t, []string{"A", "B"}, ds.Categories())
	require.Equal(t, []string{"a", "b"}, ds.Columns)
}

func TestRawRowJSONKeepsColumnOrder(t *testing.T) {
	var rows []RawRow
	err := json.Unmarshal([]byte(`[{"category":"Q1","zeta":1,"alpha":"2"}]`), &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "zeta", rows[0].Cells[1].Column)
	require.Equal(t, "alpha", rows[0].Cells[2].Column)

	ds := Normalize(rows, NormalizeOptions{})
	require.Equal(t, []string{"zeta", "alpha"}, ds.Series)

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"category":"Q1","zeta":1,"alpha":"2"}`, string(out))
}

func TestRawRowRejectsNonObject(t *testing.T) {
	var row RawRow
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &row))
}

func TestCategoriesDefaultLabel(t *testing.T) {
	ds := Dataset{Rows: []Row{{Category: "North"}, {Category: " "}}}
	require.Equal(t, []string{"North", "Item 2"}, ds.Categories())
}

func TestCoerce(t *testing.T) {
	require.True(t, Coerce("42").IsNumber())
	require.Equal(t, 42.0, Coerce(" 42 ").Float())
	require.True(t, Coerce("").IsEmpty())
	require.True(t, Coerce(nil).IsEmpty())
	require.False(t, Coerce("NaN").IsNumber())
	require.Equal(t, "hello", Coerce("hello").String())
	require.Equal(t, 3.5, Coerce(float32(3.5)).Float())
	require.Equal(t, "true", Coerce(true).String())
}
