package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"muralis/internal/ipc"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the preview cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show preview cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.CacheStats()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Previews: %d, %s used of %s budget\n",
					stats.Previews,
					humanize.Bytes(uint64(stats.PreviewBytes)),
					humanize.Bytes(uint64(stats.BudgetBytes)))
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict old previews back under the cache budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				result, err := client.CachePrune()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if result.Removed == 0 {
					fmt.Fprintln(stdout, "Preview cache already under budget")
					return nil
				}
				fmt.Fprintf(stdout, "Removed %d previews, freed %s (%s remaining)\n",
					result.Removed,
					humanize.Bytes(uint64(result.FreedBytes)),
					humanize.Bytes(uint64(result.RemainingBytes)))
				return nil
			})
		},
	}
}
