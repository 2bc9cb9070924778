package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muralis/internal/daemon"
	"muralis/internal/ipc"
	"muralis/internal/logging"
)

// startFakeDaemon serves canned responses so commands can be exercised
// without a real engine behind the socket.
func startFakeDaemon(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "muralis.sock")
	server, err := ipc.NewServer(context.Background(), socketPath, func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.OK(ipc.StatusData{
				PID:         os.Getpid(),
				Mode:        "random",
				CurrentID:   3,
				CurrentPath: "/data/wallpapers/abc.jpg",
				ChangedAt:   time.Now().Add(-time.Minute),
			})
		case ipc.CommandNext:
			return ipc.OK(ipc.StatusData{Mode: "random", CurrentID: 4, CurrentPath: "/data/wallpapers/def.jpg"})
		case ipc.CommandFavoritesList:
			return ipc.OK(ipc.FavoritesListData{Wallpapers: []ipc.WallpaperData{
				{ID: 3, Source: "wallhaven", Width: 3840, Height: 2160, SizeBytes: 1 << 20, UseCount: 2, Tags: []string{"nature"}},
			}})
		case ipc.CommandCachePrune:
			return ipc.OK(ipc.PruneData{Removed: 2, FreedBytes: 1 << 20, RemainingBytes: 1 << 19})
		case ipc.CommandSearch:
			if req.Aspect != "" && req.Aspect != "landscape" {
				return ipc.Error("unexpected aspect " + req.Aspect)
			}
			return ipc.OK(ipc.SearchData{Results: []ipc.SearchResultData{
				{ID: "abc123", URL: "https://w.example/full/a.png", ThumbURL: "https://w.example/small/a.png", Source: "wallhaven", Width: 2560, Height: 1440, Tags: []string{"nature"}},
			}})
		default:
			return ipc.Error("unknown command " + req.Command)
		}
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	return socketPath
}

func runCommand(t *testing.T, socketPath string, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--socket", socketPath}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestStatusCommand(t *testing.T) {
	socketPath := startFakeDaemon(t)
	output := runCommand(t, socketPath, "status")
	if !strings.Contains(output, "random") || !strings.Contains(output, "#3") {
		t.Fatalf("status output = %q", output)
	}
}

func TestNextCommand(t *testing.T) {
	socketPath := startFakeDaemon(t)
	output := runCommand(t, socketPath, "next")
	if !strings.Contains(output, "/data/wallpapers/def.jpg") {
		t.Fatalf("next output = %q", output)
	}
}

func TestFavoritesListCommand(t *testing.T) {
	socketPath := startFakeDaemon(t)
	output := runCommand(t, socketPath, "favorites", "list")
	if !strings.Contains(output, "wallhaven") || !strings.Contains(output, "3840x2160") {
		t.Fatalf("favorites list output = %q", output)
	}
}

func TestCachePruneCommand(t *testing.T) {
	socketPath := startFakeDaemon(t)
	output := runCommand(t, socketPath, "cache", "prune")
	if !strings.Contains(output, "Removed 2 previews") {
		t.Fatalf("cache prune output = %q", output)
	}
}

func TestSearchCommandWithoutSource(t *testing.T) {
	socketPath := startFakeDaemon(t)
	output := runCommand(t, socketPath, "search", "mountains", "--aspect", "landscape")
	if !strings.Contains(output, "wallhaven") || !strings.Contains(output, "https://w.example/full/a.png") {
		t.Fatalf("search output = %q", output)
	}
	if !strings.Contains(output, "2560x1440") {
		t.Fatalf("search output missing dimensions: %q", output)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(daemon.ErrAlreadyRunning); got != 2 {
		t.Fatalf("exitCode(ErrAlreadyRunning) = %d, want 2", got)
	}
	wrapped := fmt.Errorf("start daemon: %w", daemon.ErrAlreadyRunning)
	if got := exitCode(wrapped); got != 2 {
		t.Fatalf("exitCode(wrapped) = %d, want 2", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Fatalf("exitCode(generic) = %d, want 1", got)
	}
}

func TestCommandsFailWithoutDaemon(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--socket", socketPath, "next"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error without a daemon")
	}
	if !strings.Contains(err.Error(), "muralis daemon start") {
		t.Fatalf("error = %v", err)
	}
}

func TestParseWallpaperID(t *testing.T) {
	if _, err := parseWallpaperID("0"); err == nil {
		t.Fatal("expected rejection of zero id")
	}
	if _, err := parseWallpaperID("abc"); err == nil {
		t.Fatal("expected rejection of non-numeric id")
	}
	id, err := parseWallpaperID(" 42 ")
	if err != nil || id != 42 {
		t.Fatalf("id = %d, err = %v", id, err)
	}
}

func TestFormatDimensions(t *testing.T) {
	if got := formatDimensions(1920, 1080); got != "1920x1080" {
		t.Fatalf("formatDimensions = %q", got)
	}
	if got := formatDimensions(0, 1080); got != "unknown" {
		t.Fatalf("formatDimensions = %q", got)
	}
}
