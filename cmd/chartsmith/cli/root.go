// Package cli implements the chartsmith command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the chartsmith CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chartsmith",
		Short:         "Turn tabular data into chart render configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRenderCommand(),
		newServeCommand(),
		newArchetypesCommand(),
		newThemesCommand(),
		newCacheCommand(),
		newJobsCommand(),
	)
	return root
}
