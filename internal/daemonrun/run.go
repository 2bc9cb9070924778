package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"muralis/internal/backend"
	"muralis/internal/config"
	"muralis/internal/daemon"
	"muralis/internal/logging"
	"muralis/internal/paths"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// Run starts the muralis daemon and blocks until a signal or a quit command
// arrives.
func Run(cmdCtx context.Context, opts Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configPath, exists, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	p, err := paths.Resolve()
	if err != nil {
		return err
	}
	if err := p.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg, p, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if exists {
		logger.Info("configuration loaded", logging.String("config", configPath))
	} else {
		logger.Warn("no configuration file found; using defaults",
			logging.String("config", configPath))
	}

	applier, err := backend.New(cfg)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, configPath, p, applier, logger)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		return fmt.Errorf("start daemon: %w", err)
	}

	return d.Run(signalCtx)
}

func buildLogger(cfg *config.Config, p paths.Paths, levelOverride string) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if levelOverride != "" {
		level = levelOverride
	}

	outputs := []string{"stdout"}
	switch cfg.Logging.File {
	case "":
		outputs = append(outputs, filepath.Join(p.LogDir(), "muralis.log"))
	case "none":
	default:
		expanded, err := config.ExpandPath(cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		outputs = append(outputs, expanded)
	}

	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}
