package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/boardsmith/chartsmith/internal/chart"
)

// ErrEmptyCSV is returned when an import has no header row.
var ErrEmptyCSV = errors.New("export: csv has no header")

// WriteCSV writes the derived data table: one row per category and one
// column per series. Waterfalls list each bar's range instead.
func WriteCSV(w io.Writer, plan chart.Plan) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	d := plan.Derivation
	if d.Archetype == chart.Waterfall {
		return writeWaterfallCSV(writer, d)
	}

	header := make([]string, 0, len(d.Series)+1)
	header = append(header, "Category")
	for _, s := range d.Series {
		header = append(header, s.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, category := range d.Categories {
		record := make([]string, 0, len(header))
		record = append(record, category)
		for _, s := range d.Series {
			record = append(record, formatFloat(valueAt(s.Values, i)))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeWaterfallCSV(writer *csv.Writer, d chart.Derivation) error {
	if err := writer.Write([]string{"Category", "Start", "End", "Change", "Total"}); err != nil {
		return err
	}
	ranges := d.Ranges()
	for i, category := range d.Categories {
		if i >= len(ranges) {
			break
		}
		r := ranges[i]
		if err := writer.Write([]string{
			category,
			formatFloat(r.Start),
			formatFloat(r.End),
			formatFloat(r.Change),
			strconv.FormatBool(r.Total),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a header row plus data rows into raw grid rows. Cells stay
// strings; Normalize coerces them.
func ReadCSV(r io.Reader) ([]chart.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("export: read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = "column" + strconv.Itoa(i+1)
		}
		columns[i] = name
	}

	var rows []chart.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: read csv: %w", err)
		}
		if blank(record) {
			continue
		}
		row := chart.RawRow{Cells: make([]chart.Cell, 0, len(columns))}
		for i, column := range columns {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row.Cells = append(row.Cells, chart.Cell{Column: column, Value: value})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
