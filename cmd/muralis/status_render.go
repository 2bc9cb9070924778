package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"muralis/internal/ipc"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

func renderStatus(status ipc.StatusData, colorize bool) []string {
	lines := []string{
		renderStatusField("Daemon", fmt.Sprintf("running (pid %d)", status.PID)),
		renderStatusField("Mode", status.Mode),
	}

	rotation := "active"
	if status.Paused {
		rotation = "paused"
	}
	line := renderStatusField("Rotation", rotation)
	if colorize {
		color := ansiGreen
		if status.Paused {
			color = ansiYellow
		}
		line = color + line + ansiReset
	}
	lines = append(lines, line)

	if status.CurrentID > 0 {
		lines = append(lines, renderStatusField("Wallpaper", fmt.Sprintf("#%d %s", status.CurrentID, status.CurrentPath)))
	} else {
		lines = append(lines, renderStatusField("Wallpaper", "none"))
	}
	if !status.ChangedAt.IsZero() {
		lines = append(lines, renderStatusField("Changed", humanize.Time(status.ChangedAt)))
	}
	if !status.NextChange.IsZero() {
		lines = append(lines, renderStatusField("Next change", formatNextChange(status.NextChange)))
	}
	if status.Workspace > 0 {
		lines = append(lines, renderStatusField("Workspace", fmt.Sprintf("%d", status.Workspace)))
	}
	if status.LastError != "" {
		line := renderStatusField("Last error", status.LastError)
		if colorize {
			line = ansiRed + line + ansiReset
		}
		lines = append(lines, line)
	}
	return lines
}

func renderStatusField(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func formatNextChange(at time.Time) string {
	if remaining := time.Until(at); remaining > 0 {
		return fmt.Sprintf("%s (in %s)", at.Local().Format("15:04:05"), remaining.Round(time.Second))
	}
	return at.Local().Format("15:04:05")
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
