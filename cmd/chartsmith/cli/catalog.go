package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boardsmith/chartsmith/internal/chart"
)

func newArchetypesCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "List the chart archetypes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintArchetypes(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// PrintArchetypes writes the archetype catalog.
func PrintArchetypes(w io.Writer, asJSON bool) error {
	catalog := chart.Catalog()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tORIENTATIONS")
	for _, entry := range catalog {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.ID, entry.Name, strings.Join(entry.Orientations, ","))
	}
	return tw.Flush()
}

func newThemesCommand() *cobra.Command {
	var (
		asJSON     bool
		themesFile string
	)
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the theme presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			themes, err := chart.LoadThemes(themesFile, "")
			if err != nil {
				return err
			}
			return PrintThemes(cmd.OutOrStdout(), themes, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&themesFile, "themes-file", os.Getenv("THEMES_FILE"), "YAML theme presets overriding the built-in set")
	return cmd
}

// PrintThemes writes the theme presets, marking the default.
func PrintThemes(w io.Writer, themes chart.ThemeSet, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(themes.List())
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tFONT\tPALETTE")
	for _, theme := range themes.List() {
		name := theme.Name
		if name == themes.Default() {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, theme.Label, theme.FontFamily, strings.Join(theme.Colors, " "))
	}
	return tw.Flush()
}
