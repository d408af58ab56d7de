package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/boardsmith/chartsmith/internal/chart"
)

const (
	dataSheet  = "Data"
	chartCell  = "H2"
	chartWidth = 720
	chartRows  = 400
)

// WriteXLSX writes a workbook with the data table and a native Excel chart
// of the same archetype.
func WriteXLSX(w io.Writer, plan chart.Plan) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	table := tableFor(plan)
	if err := writeTable(f, table); err != nil {
		return err
	}
	if len(table.categories) > 0 && len(table.series) > 0 {
		if err := addChart(f, plan, table); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

type column struct {
	name   string
	values []float64
	fill   string
	line   bool
}

type table struct {
	categories []string
	series     []column
}

// tableFor lays out the sheet columns. Waterfalls are written as the
// base/increase/decrease stack Excel can draw.
func tableFor(plan chart.Plan) table {
	d := plan.Derivation
	s := plan.Styling
	t := table{categories: d.Categories}
	if d.Archetype == chart.Waterfall {
		for _, series := range chart.StackRanges(d.Ranges()) {
			switch series.Role {
			case chart.RoleBase:
				t.series = append(t.series, column{name: series.Name, values: series.Values, fill: "FFFFFF"})
			case chart.RoleIncrease:
				t.series = append(t.series, column{name: series.Name, values: series.Values, fill: hex(s.IncreaseColor)})
			case chart.RoleDecrease:
				t.series = append(t.series, column{name: series.Name, values: series.Values, fill: hex(s.DecreaseColor)})
			}
		}
		return t
	}
	for i, series := range d.Series {
		t.series = append(t.series, column{
			name:   series.Name,
			values: series.Values,
			fill:   hex(s.Color(i)),
			line:   series.Kind == chart.SeriesLine && d.Archetype == chart.Combination,
		})
	}
	return t
}

func writeTable(f *excelize.File, t table) error {
	if err := f.SetCellValue(dataSheet, "A1", "Category"); err != nil {
		return err
	}
	for j, s := range t.series {
		cell, err := excelize.CoordinatesToCellName(j+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(dataSheet, cell, s.name); err != nil {
			return err
		}
	}
	for i, category := range t.categories {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(dataSheet, cell, category); err != nil {
			return err
		}
		for j, s := range t.series {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(dataSheet, cell, valueAt(s.values, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func addChart(f *excelize.File, plan chart.Plan, t table) error {
	last := len(t.categories) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, last)

	var bars, lines []excelize.ChartSeries
	for j, s := range t.series {
		col, err := excelize.ColumnNumberToName(j + 2)
		if err != nil {
			return err
		}
		series := excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", dataSheet, col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", dataSheet, col, col, last),
			Fill:       excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.fill}},
		}
		if s.line {
			lines = append(lines, series)
			continue
		}
		bars = append(bars, series)
	}

	c := &excelize.Chart{
		Type:      chartType(plan),
		Series:    bars,
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartRows},
		Legend:    legend(plan),
		PlotArea:  excelize.ChartPlotArea{ShowVal: plan.Styling.ShowDataLabels},
		XAxis:     excelize.ChartAxis{Title: richText(plan.Styling.XAxisTitle)},
		YAxis:     excelize.ChartAxis{Title: richText(plan.Styling.YAxisTitle)},
	}
	if title := plan.Styling.Title; title != "" {
		c.Title = richText(title)
	}
	if plan.Layout.StackPercent && plan.Styling.CapPercentAxis && plan.Archetype == chart.Area100 {
		hundred := 100.0
		c.YAxis.Maximum = &hundred
	}

	var combo []*excelize.Chart
	if len(lines) > 0 {
		combo = append(combo, &excelize.Chart{Type: excelize.Line, Series: lines})
	}
	if err := f.AddChart(dataSheet, chartCell, c, combo...); err != nil {
		return fmt.Errorf("export: add %s chart: %w", plan.Archetype, err)
	}
	return nil
}

func chartType(plan chart.Plan) excelize.ChartType {
	horizontal := plan.Layout.Horizontal
	switch plan.Archetype {
	case chart.Stacked:
		if horizontal {
			return excelize.BarStacked
		}
		return excelize.ColStacked
	case chart.Stacked100:
		if horizontal {
			return excelize.BarPercentStacked
		}
		return excelize.ColPercentStacked
	case chart.Waterfall:
		return excelize.ColStacked
	case chart.Combination:
		return excelize.Col
	case chart.Line:
		return excelize.Line
	case chart.Area:
		return excelize.Area
	case chart.Area100:
		return excelize.AreaStacked
	default:
		if horizontal {
			return excelize.Bar
		}
		return excelize.Col
	}
}

func legend(plan chart.Plan) excelize.ChartLegend {
	if !plan.Styling.ShowLegend || plan.Archetype == chart.Waterfall {
		return excelize.ChartLegend{Position: "none"}
	}
	return excelize.ChartLegend{Position: string(plan.Styling.LegendPosition)}
}

func richText(text string) []excelize.RichTextRun {
	if text == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: text}}
}

// hex strips the leading '#' Excel colors do without. Non-hex colors such
// as rgba() fall back to a neutral grey.
func hex(color string) string {
	color = strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(color) != 6 {
		return "808080"
	}
	for _, r := range color {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "808080"
		}
	}
	return strings.ToUpper(color)
}
