package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const (
	// DefaultCategoryKey names the grid column holding category labels.
	DefaultCategoryKey = "category"
	// DefaultTotalKey names the row flag marking waterfall total bars.
	DefaultTotalKey = "isTotal"
)

// Value is a single grid cell holding a number, free text, or nothing.
type Value struct {
	num  float64
	text string
	kind valueKind
}

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueNumber
	valueText
)

// Number wraps a numeric cell.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{num: f, kind: valueNumber}
}

// Text wraps a textual cell. Blank text is treated as an absent cell.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{text: s, kind: valueText}
}

// IsNumber reports whether the cell holds a number.
func (v Value) IsNumber() bool { return v.kind == valueNumber }

// IsEmpty reports whether the cell is missing or blank.
func (v Value) IsEmpty() bool { return v.kind == valueAbsent }

// Float returns the numeric content, or 0 for text and absent cells.
func (v Value) Float() float64 {
	if v.kind == valueNumber {
		return v.num
	}
	return 0
}

// String renders the cell the way the grid shows it.
func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON emits a number, a string or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		return json.Marshal(v.num)
	case valueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// active reports whether the cell makes its column worth plotting.
func (v Value) active() bool {
	switch v.kind {
	case valueNumber:
		return v.num != 0
	case valueText:
		return true
	default:
		return false
	}
}

// Coerce converts an arbitrary grid value into a Value. Numeric-looking
// strings become numbers; other strings stay text.
func Coerce(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Value{}
	case Value:
		if val.kind == valueText {
			return Coerce(val.text)
		}
		return val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return Value{}
		}
		f, err := cast.ToFloat64E(s)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Text(s)
		}
		return Number(f)
	case bool:
		return Text(strconv.FormatBool(val))
	default:
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return Text(fmt.Sprint(val))
		}
		return Number(f)
	}
}

// Cell is one (column, value) pair of a raw grid row.
type Cell struct {
	Column string
	Value  any
}

// RawRow is a grid row exactly as the editor sent it. Cell order is the
// column order the user sees.
type RawRow struct {
	Cells []Cell
}

// NewRawRow builds a row from alternating column/value arguments.
func NewRawRow(pairs ...any) RawRow {
	row := RawRow{Cells: make([]Cell, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Cells = append(row.Cells, Cell{Column: fmt.Sprint(pairs[i]), Value: pairs[i+1]})
	}
	return row
}

// Get returns the value stored under column, matched case-insensitively.
func (r RawRow) Get(column string) (any, bool) {
	for _, cell := range r.Cells {
		if strings.EqualFold(cell.Column, column) {
			return cell.Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("chart: row must be a JSON object")
	}
	cells := make([]Cell, 0, 4)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("chart: row key must be a string")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("chart: row column %q: %w", key, err)
		}
		replaced := false
		for i := range cells {
			if cells[i].Column == key {
				cells[i].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			cells = append(cells, Cell{Column: key, Value: value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.Cells = cells
	return nil
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range r.Cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cell.Column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cell.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizeOptions tunes Normalize.
type NormalizeOptions struct {
	// CategoryKey names the category column. When no row carries it the
	// first column seen is used instead.
	CategoryKey string
	// TotalKey names the boolean flag marking total rows.
	TotalKey   string
	MaxRows    int
	MaxColumns int
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if strings.TrimSpace(o.CategoryKey) == "" {
		o.CategoryKey = DefaultCategoryKey
	}
	if strings.TrimSpace(o.TotalKey) == "" {
		o.TotalKey = DefaultTotalKey
	}
	return o
}

// Row is a validated dataset row. Values line up with Dataset.Columns.
type Row struct {
	Category string
	IsTotal  bool
	Values   []Value
}

// Dataset is the canonical tabular model handed to derivation.
type Dataset struct {
	CategoryKey string
	// Columns is the stored schema in first-seen order.
	Columns []string
	// Series lists the active columns, in Columns order.
	Series []string
	Rows   []Row
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Empty reports whether no row survived normalisation.
func (d Dataset) Empty() bool { return len(d.Rows) == 0 }

// HasColumn reports whether column is part of the stored schema.
func (d Dataset) HasColumn(column string) bool {
	return d.columnIndex(column) >= 0
}

// columnIndex looks a column up exactly, then case-insensitively for
// designated columns such as "bars" or "value".
func (d Dataset) columnIndex(column string) int {
	if i := d.exactColumn(column); i >= 0 {
		return i
	}
	for i, c := range d.Columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

func (d Dataset) exactColumn(column string) int {
	for i, c := range d.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for column; missing cells are absent.
func (d Dataset) Cell(i int, column string) Value {
	if i < 0 || i >= len(d.Rows) {
		return Value{}
	}
	idx := d.columnIndex(column)
	if idx < 0 || idx >= len(d.Rows[i].Values) {
		return Value{}
	}
	return d.Rows[i].Values[idx]
}

// Floats returns the numeric column, missing or textual cells read as 0.
func (d Dataset) Floats(column string) []float64 {
	out := make([]float64, len(d.Rows))
	idx := d.columnIndex(column)
	if idx < 0 {
		return out
	}
	for i, row := range d.Rows {
		if idx < len(row.Values) {
			out[i] = row.Values[idx].Float()
		}
	}
	return out
}

// Categories returns one label per row, defaulting blank ones to "Item n".
func (d Dataset) Categories() []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = categoryLabel(row.Category, i)
	}
	return out
}

func categoryLabel(category string, index int) string {
	if strings.TrimSpace(category) == "" {
		return "Item " + strconv.Itoa(index+1)
	}
	return category
}

// Normalize turns raw grid rows into a Dataset. Rows without a category are
// dropped, as are rows without any series value unless they are flagged as
// totals. Numeric strings are coerced, and columns with no non-empty
// non-zero value are left out of Series.
func Normalize(raw []RawRow, opts NormalizeOptions) Dataset {
	opts = opts.withDefaults()
	categoryKey := resolveCategoryKey(raw, opts.CategoryKey, opts.TotalKey)
	ds := Dataset{CategoryKey: categoryKey}
	if len(raw) == 0 || categoryKey == "" {
		return ds
	}

	for _, row := range raw {
		for _, cell := range row.Cells {
			if isReserved(cell.Column, categoryKey, opts.TotalKey) {
				continue
			}
			if ds.exactColumn(cell.Column) >= 0 {
				continue
			}
			if opts.MaxColumns > 0 && len(ds.Columns) >= opts.MaxColumns {
				continue
			}
			ds.Columns = append(ds.Columns, cell.Column)
		}
	}

	for _, row := range raw {
		if opts.MaxRows > 0 && len(ds.Rows) >= opts.MaxRows {
			break
		}
		rawCategory, _ := row.Get(categoryKey)
		category := categoryText(rawCategory)
		if category == "" {
			continue
		}
		values := make([]Value, len(ds.Columns))
		hasValue := false
		for _, cell := range row.Cells {
			if isReserved(cell.Column, categoryKey, opts.TotalKey) {
				continue
			}
			idx := ds.exactColumn(cell.Column)
			if idx < 0 {
				continue
			}
			values[idx] = Coerce(cell.Value)
			if !values[idx].IsEmpty() {
				hasValue = true
			}
		}
		flag, _ := row.Get(opts.TotalKey)
		isTotal := cast.ToBool(flag)
		// Total rows carry no amount of their own.
		if !hasValue && !isTotal {
			continue
		}
		ds.Rows = append(ds.Rows, Row{
			Category: category,
			IsTotal:  isTotal,
			Values:   values,
		})
	}

	for idx, column := range ds.Columns {
		for _, row := range ds.Rows {
			if row.Values[idx].active() {
				ds.Series = append(ds.Series, column)
				break
			}
		}
	}
	return ds
}

// categoryText keeps category labels verbatim; only non-string cells are
// stringified.
func categoryText(raw any) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case Value:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(cast.ToString(val))
	}
}

func resolveCategoryKey(raw []RawRow, preferred, totalKey string) string {
	for _, row := range raw {
		for _, cell := range row.Cells {
			if strings.EqualFold(cell.Column, preferred) {
				return cell.Column
			}
		}
	}
	for _, row := range raw {
		for _, cell := range row.Cells {
			if !strings.EqualFold(cell.Column, totalKey) {
				return cell.Column
			}
		}
	}
	return ""
}

func isReserved(column, categoryKey, totalKey string) bool {
	return strings.EqualFold(column, categoryKey) || strings.EqualFold(column, totalKey)
}
