package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"muralis/internal/config"
	"muralis/internal/ipc"
)

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	favoritesCmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage the wallpaper library",
	}

	favoritesCmd.AddCommand(newFavoritesListCommand(ctx))
	favoritesCmd.AddCommand(newFavoritesStatsCommand(ctx))
	favoritesCmd.AddCommand(newFavoritesAddCommand(ctx))
	favoritesCmd.AddCommand(newFavoritesRemoveCommand(ctx))

	return favoritesCmd
}

func newFavoritesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorited wallpapers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				data, err := client.FavoritesList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(data.Wallpapers) == 0 {
					fmt.Fprintln(stdout, "No favorites yet. Add one with `muralis favorites add <url>` or `muralis import <path>`.")
					return nil
				}

				rows := make([][]string, 0, len(data.Wallpapers))
				for _, wallpaper := range data.Wallpapers {
					rows = append(rows, []string{
						fmt.Sprintf("%d", wallpaper.ID),
						wallpaper.Source,
						formatDimensions(wallpaper.Width, wallpaper.Height),
						humanize.Bytes(uint64(wallpaper.SizeBytes)),
						fmt.Sprintf("%d", wallpaper.UseCount),
						strings.Join(wallpaper.Tags, ", "),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]tableColumn{
						{title: "ID", numeric: true},
						{title: "Source"},
						{title: "Size"},
						{title: "Bytes", numeric: true},
						{title: "Uses", numeric: true},
						{title: "Tags"},
					},
					rows,
				))
				return nil
			})
		},
	}
}

func newFavoritesStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.FavoritesStats()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Favorites: %d (%s)\n", stats.Favorites, humanize.Bytes(uint64(stats.FavoriteBytes)))
				for _, source := range sortedSourceNames(stats.BySource) {
					fmt.Fprintf(stdout, "  %-10s %d\n", source, stats.BySource[source])
				}
				fmt.Fprintf(stdout, "Previews:  %d (%s of %s budget)\n",
					stats.Previews,
					humanize.Bytes(uint64(stats.PreviewBytes)),
					humanize.Bytes(uint64(stats.BudgetBytes)))
				return nil
			})
		},
	}
}

func newFavoritesAddCommand(ctx *commandContext) *cobra.Command {
	var sourceName string
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Download a wallpaper into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				wallpaper, err := client.FavoritesAdd(strings.TrimSpace(args[0]), sourceName)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Favorited #%d (%s, %s)\n",
					wallpaper.ID, wallpaper.Source, humanize.Bytes(uint64(wallpaper.SizeBytes)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sourceName, "source", "", "Source to attribute the wallpaper to")
	return cmd
}

func newFavoritesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a favorite and its file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWallpaperID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.FavoritesRemove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed favorite #%d\n", id)
				return nil
			})
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Copy a local image into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				wallpaper, err := client.Import(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported #%d (%s)\n",
					wallpaper.ID, humanize.Bytes(uint64(wallpaper.SizeBytes)))
				return nil
			})
		},
	}
}

func formatDimensions(width, height int) string {
	if width <= 0 || height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", width, height)
}

func sortedSourceNames(bySource map[string]int) []string {
	names := make([]string, 0, len(bySource))
	for name := range bySource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
