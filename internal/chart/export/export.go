// Package export turns chart plans into downloadable artifacts and keeps
// asynchronously produced artifacts in Redis.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/echarts"
	"github.com/boardsmith/chartsmith/internal/chart/raster"
	"github.com/boardsmith/chartsmith/internal/chart/svg"
	"github.com/boardsmith/chartsmith/report"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Format is an export file type.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

var formats = map[Format]struct {
	contentType string
}{
	FormatJSON: {"application/json"},
	FormatCSV:  {"text/csv; charset=utf-8"},
	FormatXLSX: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	FormatHTML: {"text/html; charset=utf-8"},
	FormatPDF:  {"application/pdf"},
	FormatSVG:  {"image/svg+xml"},
	FormatPNG:  {"image/png"},
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if _, ok := formats[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string { return formats[f].contentType }

// Filename names a download of the format.
func (f Format) Filename(base string) string {
	if base = strings.TrimSpace(base); base == "" {
		base = "chart"
	}
	return base + "." + string(f)
}

// Exporter writes plans in any supported format.
type Exporter struct {
	pdf *report.Client
}

// NewExporter wires the Gotenberg client used for PDFs; nil disables PDF.
func NewExporter(pdf *report.Client) *Exporter {
	return &Exporter{pdf: pdf}
}

// Export writes plan to w in format f.
func (e *Exporter) Export(ctx context.Context, w io.Writer, plan chart.Plan, f Format) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(plan.Config())
	case FormatCSV:
		return WriteCSV(w, plan)
	case FormatXLSX:
		return WriteXLSX(w, plan)
	case FormatHTML:
		return echarts.Render(w, plan)
	case FormatSVG:
		doc, err := svg.Render(plan, svg.Options{})
		if err != nil {
			return fmt.Errorf("export: svg: %w", err)
		}
		_, err = io.WriteString(w, string(doc))
		return err
	case FormatPNG:
		return raster.Render(w, plan, raster.Options{})
	case FormatPDF:
		pdf, err := e.PDF(ctx, plan)
		if err != nil {
			return err
		}
		_, err = w.Write(pdf)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Bytes is Export into memory.
func (e *Exporter) Bytes(ctx context.Context, plan chart.Plan, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Export(ctx, &buf, plan, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF prints the HTML preview through Gotenberg.
func (e *Exporter) PDF(ctx context.Context, plan chart.Plan) ([]byte, error) {
	if e == nil || !e.pdf.Configured() {
		return nil, report.ErrNotConfigured
	}
	var html bytes.Buffer
	if err := echarts.Render(&html, plan); err != nil {
		return nil, err
	}
	pdf, err := e.pdf.RenderHTML(ctx, html.Bytes(), report.Page{Landscape: true, WaitDelay: time.Second})
	if err != nil {
		return nil, fmt.Errorf("export: pdf: %w", err)
	}
	return pdf, nil
}
