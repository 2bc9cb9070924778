package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"muralis/internal/ipc"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var sourceName string
	var aspect string
	var page int
	var perPage int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search remote wallpaper sources",
		Long:  "Search configured sources (wallhaven, unsplash, pexels, or feed) and list candidate wallpapers. Without --source every enabled source is queried. Favorite a result with `muralis favorites add <url>`.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				data, err := client.Search(strings.TrimSpace(sourceName), query, aspect, page, perPage)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(data.Results) == 0 {
					fmt.Fprintln(stdout, "No results")
					return nil
				}

				rows := make([][]string, 0, len(data.Results))
				for i, result := range data.Results {
					rows = append(rows, []string{
						fmt.Sprintf("%d", i+1),
						result.Source,
						formatDimensions(result.Width, result.Height),
						strings.Join(result.Tags, ", "),
						result.URL,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]tableColumn{
						{title: "#", numeric: true},
						{title: "Source"},
						{title: "Size"},
						{title: "Tags"},
						{title: "URL"},
					},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Source to search (default: all enabled)")
	cmd.Flags().StringVar(&aspect, "aspect", "", "Filter results by aspect (any, landscape, portrait, square)")
	cmd.Flags().IntVar(&page, "page", 1, "Result page to fetch")
	cmd.Flags().IntVar(&perPage, "per-page", 24, "Results per page")
	return cmd
}
