package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boardsmith/chartsmith/internal/app"
	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/platform/cache"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}
	var async bool
	flush := &cobra.Command{
		Use:   "flush",
		Short: "Invalidate every cached render configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if async {
				c := NewJobsCLI(asynqOpts(cfg))
				defer c.Close()
				info, err := c.client.EnqueueCacheInvalidate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.ID, info.Queue)
				return nil
			}
			client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
			if err != nil {
				return err
			}
			defer client.Close()
			version, err := chart.NewCache(client, cfg.CacheTTL).Bump(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache version %d\n", version)
			return nil
		},
	}
	flush.Flags().BoolVar(&async, "async", false, "enqueue the flush for the worker instead of running it here")
	cmd.AddCommand(flush)
	return cmd
}
