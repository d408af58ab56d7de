package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/export"
	"github.com/boardsmith/chartsmith/report"
)

// RenderOptions configures a one-shot render.
type RenderOptions struct {
	Input         string
	Kind          string
	Subkind       string
	Orientation   string
	Theme         string
	ThemesFile    string
	Title         string
	WaterfallMode string
	InferTotals   bool
	Format        string
	Output        string
	GotenbergURL  string
	MaxRows       int
	MaxColumns    int
}

func newRenderCommand() *cobra.Command {
	opts := RenderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a JSON or CSV grid into a chart configuration or export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Render(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.Input, "input", "i", "-", "rows as JSON (array or build request) or CSV; - reads stdin")
	flags.StringVar(&opts.Kind, "kind", "", "chart kind, e.g. column, bar, line, waterfall")
	flags.StringVar(&opts.Subkind, "subkind", "", "chart subkind, e.g. stacked, stacked100")
	flags.StringVar(&opts.Orientation, "orientation", "", "top or right")
	flags.StringVar(&opts.Theme, "theme", "", "theme preset name")
	flags.StringVar(&opts.ThemesFile, "themes-file", os.Getenv("THEMES_FILE"), "YAML theme presets overriding the built-in set")
	flags.StringVar(&opts.Title, "title", "", "chart title")
	flags.StringVar(&opts.WaterfallMode, "waterfall-mode", "", "range or stacked")
	flags.BoolVar(&opts.InferTotals, "infer-totals", false, "treat a trailing total/end/final row as a total bar")
	flags.StringVarP(&opts.Format, "format", "f", "", "json, html, csv, xlsx, svg, png or pdf (default from --output extension, else json)")
	flags.StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&opts.GotenbergURL, "gotenberg", os.Getenv("GOTENBERG_URL"), "Gotenberg base URL for pdf output")
	flags.IntVar(&opts.MaxRows, "max-rows", 50, "row cap")
	flags.IntVar(&opts.MaxColumns, "max-columns", 20, "series column cap")
	return cmd
}

// Render reads the grid, runs the pipeline and writes the chosen format.
func Render(ctx context.Context, opts RenderOptions, stdin io.Reader, stdout io.Writer) error {
	format, err := resolveFormat(opts.Format, opts.Output)
	if err != nil {
		return err
	}
	themes, err := chart.LoadThemes(opts.ThemesFile, "")
	if err != nil {
		return err
	}
	in, err := readRequest(opts.Input, stdin)
	if err != nil {
		return err
	}
	applyFlags(&in, opts)
	if in.Theme != "" {
		if _, err := themes.Get(in.Theme); err != nil {
			return err
		}
	}

	service := chart.NewService(themes, chart.Limits{MaxRows: opts.MaxRows, MaxColumns: opts.MaxColumns}, nil, nil)
	var pdf *report.Client
	if opts.GotenbergURL != "" {
		pdf = report.NewClient(opts.GotenbergURL)
	}
	data, err := export.NewExporter(pdf).Bytes(ctx, service.Plan(in), format)
	if err != nil {
		return err
	}
	if opts.Output == "" || opts.Output == "-" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(opts.Output, data, 0o644)
}

func resolveFormat(format, output string) (export.Format, error) {
	if format == "" {
		format = filepath.Ext(output)
	}
	if format == "" {
		return export.FormatJSON, nil
	}
	return export.ParseFormat(format)
}

// readRequest accepts a CSV file, a JSON array of row objects or a full
// build request object.
func readRequest(path string, stdin io.Reader) (chart.BuildRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return chart.BuildRequest{}, fmt.Errorf("read input: %w", err)
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return chart.BuildRequest{}, errors.New("read input: empty")
	}
	switch {
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		rows, err := export.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return chart.BuildRequest{}, err
		}
		return chart.BuildRequest{Rows: rows}, nil
	case trimmed[0] == '[':
		var rows []chart.RawRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return chart.BuildRequest{}, fmt.Errorf("decode rows: %w", err)
		}
		return chart.BuildRequest{Rows: rows}, nil
	case trimmed[0] == '{':
		var in chart.BuildRequest
		if err := json.Unmarshal(trimmed, &in); err != nil {
			return chart.BuildRequest{}, fmt.Errorf("decode build request: %w", err)
		}
		return in, nil
	default:
		rows, err := export.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return chart.BuildRequest{}, err
		}
		return chart.BuildRequest{Rows: rows}, nil
	}
}

func applyFlags(in *chart.BuildRequest, opts RenderOptions) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&in.Kind, opts.Kind)
	override(&in.Subkind, opts.Subkind)
	override(&in.Orientation, opts.Orientation)
	override(&in.Theme, opts.Theme)
	override(&in.Styling.Title, opts.Title)
	override(&in.Options.WaterfallMode, opts.WaterfallMode)
	if opts.InferTotals {
		in.Options.InferTotals = true
	}
}
