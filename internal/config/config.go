package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// General contains daemon-wide settings.
type General struct {
	Backend       string `toml:"backend"`
	CacheMaxMB    int64  `toml:"cache_max_mb"`
	Notifications bool   `toml:"notifications"`
}

// Display contains rotation mode and timing settings. WallpaperID pins the
// wallpaper shown by the static mode; zero falls back to the most recently
// used favorite.
type Display struct {
	Mode        string `toml:"mode"`
	Interval    string `toml:"interval"`
	WallpaperID int64  `toml:"wallpaper_id"`
}

// Transition contains settings forwarded to backends that animate
// wallpaper changes (currently only swww).
type Transition struct {
	Type     string  `toml:"type"`
	Duration float64 `toml:"duration"`
	FPS      int     `toml:"fps"`
	Step     int     `toml:"step"`
}

// Filter constrains which wallpapers are eligible for automatic rotation.
type Filter struct {
	MinWidth    int      `toml:"min_width"`
	MinHeight   int      `toml:"min_height"`
	Aspect      string   `toml:"aspect"`
	ExcludeTags []string `toml:"exclude_tags"`
}

// Wallhaven contains wallhaven.cc API settings.
type Wallhaven struct {
	Enabled    bool   `toml:"enabled"`
	APIKey     string `toml:"api_key"`
	Categories string `toml:"categories"`
	Purity     string `toml:"purity"`
}

// Unsplash contains Unsplash API settings.
type Unsplash struct {
	Enabled   bool   `toml:"enabled"`
	AccessKey string `toml:"access_key"`
}

// Pexels contains Pexels API settings.
type Pexels struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
}

// Feed describes a single RSS/Atom wallpaper feed.
type Feed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Sources groups all remote wallpaper source settings.
type Sources struct {
	Wallhaven Wallhaven `toml:"wallhaven"`
	Unsplash  Unsplash  `toml:"unsplash"`
	Pexels    Pexels    `toml:"pexels"`
	Feeds     []Feed    `toml:"feeds"`
}

// WorkspaceRule binds a compositor workspace to a wallpaper selector:
// either an explicit library id or a tag picked randomly among matches.
type WorkspaceRule struct {
	Workspace   int    `toml:"workspace"`
	WallpaperID int64  `toml:"wallpaper_id"`
	Tag         string `toml:"tag"`
}

// ScheduleEntry maps a time of day to a tag set; wallpapers carrying any of
// the tags are eligible while the entry is active.
type ScheduleEntry struct {
	At   string   `toml:"at"`
	Tags []string `toml:"tags"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for muralis.
//
// Configuration sections:
//   - General: backend selection, cache budget, notifications
//   - Display: rotation mode and interval
//   - Transition: animation settings for backends that support them
//   - Filter: eligibility constraints for automatic rotation
//   - Sources: wallhaven / unsplash / pexels / RSS feed settings
//   - Workspaces: per-workspace wallpaper pins
//   - Schedules: time-of-day wallpaper entries
//   - Logging: log format, level, and optional file output
type Config struct {
	General    General         `toml:"general"`
	Display    Display         `toml:"display"`
	Transition Transition      `toml:"transition"`
	Filter     Filter          `toml:"filter"`
	Sources    Sources         `toml:"sources"`
	Workspaces []WorkspaceRule `toml:"workspaces"`
	Schedules  []ScheduleEntry `toml:"schedules"`
	Logging    Logging         `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location, honoring XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "muralis", "config.toml"), nil
	}
	return expandPath("~/.config/muralis/config.toml")
}

// Load locates, parses, and validates a configuration file. Missing files are
// not an error: defaults apply and exists reports false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// RotationInterval returns the parsed display.interval.
func (c *Config) RotationInterval() (time.Duration, error) {
	return ParseInterval(c.Display.Interval)
}

// ParseInterval parses a rotation interval such as "30m", "1h", or "90s".
func ParseInterval(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("interval must not be empty")
	}
	duration, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse interval %q: %w", trimmed, err)
	}
	if duration < time.Second {
		return 0, fmt.Errorf("interval %q must be at least one second", trimmed)
	}
	return duration, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
