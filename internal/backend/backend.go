package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"muralis/internal/config"
)

// Backend applies a wallpaper image to the desktop.
type Backend interface {
	Name() string
	Apply(ctx context.Context, path string) error
}

// New returns the backend named in the configuration.
func New(cfg *config.Config) (Backend, error) {
	switch cfg.General.Backend {
	case "hyprpaper":
		return NewHyprpaper(), nil
	case "swww":
		return NewSwww(cfg.Transition), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.General.Backend)
	}
}

// commandRunner abstracts exec so tests can capture invocations.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// applyTimeout bounds one compositor invocation. A wedged hyprctl or swww
// must not block the rotation loop indefinitely.
var applyTimeout = 10 * time.Second

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed != "" {
			return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, trimmed)
		}
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}
