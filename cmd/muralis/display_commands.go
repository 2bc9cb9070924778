package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"muralis/internal/ipc"
)

func newDisplayCommands(ctx *commandContext) []*cobra.Command {
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Advance to the next wallpaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Next()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now showing %s\n", status.CurrentPath)
				return nil
			})
		},
	}

	prevCmd := &cobra.Command{
		Use:   "prev",
		Short: "Return to the previous wallpaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Prev()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now showing %s\n", status.CurrentPath)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Display a specific favorite by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWallpaperID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Set(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now showing %s\n", status.CurrentPath)
				return nil
			})
		},
	}

	modeCmd := &cobra.Command{
		Use:   "mode <mode>",
		Short: "Switch the display mode",
		Long:  "Switch the display mode: static, random, random_startup, sequential, workspace, or schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Mode(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Display mode set to %s\n", status.Mode)
				return nil
			})
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause automatic rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Pause(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rotation paused")
				return nil
			})
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume automatic rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Resume(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rotation resumed")
				return nil
			})
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Reload()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration reloaded (mode %s)\n", status.Mode)
				return nil
			})
		},
	}

	return []*cobra.Command{nextCmd, prevCmd, setCmd, modeCmd, pauseCmd, resumeCmd, reloadCmd}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon display state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderStatus(status, colorize) {
					fmt.Fprintln(stdout, line)
				}
				return nil
			})
		},
	}
}

func parseWallpaperID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid wallpaper id %q", arg)
	}
	return id, nil
}
