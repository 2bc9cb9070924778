package backend

import (
	"context"
	"fmt"
)

// Hyprpaper drives the hyprpaper daemon through hyprctl. Each apply preloads
// the image, sets it on every monitor, then unloads the previous image to
// keep hyprpaper's memory bounded.
type Hyprpaper struct {
	run      commandRunner
	previous string
}

// NewHyprpaper returns a hyprpaper backend.
func NewHyprpaper() *Hyprpaper {
	return &Hyprpaper{run: runCommand}
}

func (h *Hyprpaper) Name() string { return "hyprpaper" }

// Apply sets the wallpaper on all monitors.
func (h *Hyprpaper) Apply(ctx context.Context, path string) error {
	if _, err := h.run(ctx, "hyprctl", "hyprpaper", "preload", path); err != nil {
		return fmt.Errorf("preload wallpaper: %w", err)
	}

	// Empty monitor selector applies to every monitor.
	if _, err := h.run(ctx, "hyprctl", "hyprpaper", "wallpaper", ","+path); err != nil {
		return fmt.Errorf("set wallpaper: %w", err)
	}

	if h.previous != "" && h.previous != path {
		// Unload failures are not fatal; the image is simply kept resident.
		_, _ = h.run(ctx, "hyprctl", "hyprpaper", "unload", h.previous)
	}
	h.previous = path
	return nil
}
