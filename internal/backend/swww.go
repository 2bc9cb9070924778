package backend

import (
	"context"
	"fmt"
	"strconv"

	"muralis/internal/config"
)

// Swww drives the swww daemon, forwarding the configured transition.
type Swww struct {
	run        commandRunner
	transition config.Transition
}

// NewSwww returns a swww backend with the given transition settings.
func NewSwww(transition config.Transition) *Swww {
	return &Swww{run: runCommand, transition: transition}
}

func (s *Swww) Name() string { return "swww" }

// Apply sets the wallpaper with the configured transition.
func (s *Swww) Apply(ctx context.Context, path string) error {
	args := []string{
		"img", path,
		"--transition-type", s.transition.Type,
		"--transition-duration", strconv.FormatFloat(s.transition.Duration, 'f', -1, 64),
		"--transition-fps", strconv.Itoa(s.transition.FPS),
		"--transition-step", strconv.Itoa(s.transition.Step),
	}
	if _, err := s.run(ctx, "swww", args...); err != nil {
		return fmt.Errorf("set wallpaper: %w", err)
	}
	return nil
}
