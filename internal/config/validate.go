package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeneral(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateWorkspaces(); err != nil {
		return err
	}
	if err := c.validateSchedules(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneral() error {
	switch c.General.Backend {
	case "hyprpaper", "swww":
	default:
		return fmt.Errorf("general.backend must be \"hyprpaper\" or \"swww\", got %q", c.General.Backend)
	}
	if c.General.CacheMaxMB <= 0 {
		return errors.New("general.cache_max_mb must be positive")
	}
	return nil
}

func (c *Config) validateDisplay() error {
	switch c.Display.Mode {
	case "static", "random", "random_startup", "sequential", "workspace", "schedule":
	default:
		return fmt.Errorf("display.mode %q is not a known mode", c.Display.Mode)
	}
	if _, err := ParseInterval(c.Display.Interval); err != nil {
		return fmt.Errorf("display.interval: %w", err)
	}
	if c.Display.WallpaperID < 0 {
		return errors.New("display.wallpaper_id must be >= 0")
	}
	if c.Display.Mode == "workspace" && len(c.Workspaces) == 0 {
		return errors.New("display.mode \"workspace\" requires at least one [[workspaces]] entry")
	}
	if c.Display.Mode == "schedule" && len(c.Schedules) == 0 {
		return errors.New("display.mode \"schedule\" requires at least one [[schedules]] entry")
	}
	return nil
}

func (c *Config) validateFilter() error {
	if c.Filter.MinWidth < 0 {
		return errors.New("filter.min_width must be >= 0")
	}
	if c.Filter.MinHeight < 0 {
		return errors.New("filter.min_height must be >= 0")
	}
	switch c.Filter.Aspect {
	case "any", "landscape", "portrait", "square":
	default:
		return fmt.Errorf("filter.aspect %q must be one of any, landscape, portrait, square", c.Filter.Aspect)
	}
	return nil
}

func (c *Config) validateSources() error {
	if c.Sources.Wallhaven.Enabled {
		switch c.Sources.Wallhaven.Purity {
		case "sfw", "sketchy":
		default:
			return fmt.Errorf("sources.wallhaven.purity %q must be \"sfw\" or \"sketchy\"", c.Sources.Wallhaven.Purity)
		}
	}
	if c.Sources.Unsplash.Enabled && c.Sources.Unsplash.AccessKey == "" {
		return errors.New("sources.unsplash.access_key must be set when sources.unsplash.enabled is true (or set UNSPLASH_ACCESS_KEY)")
	}
	if c.Sources.Pexels.Enabled && c.Sources.Pexels.APIKey == "" {
		return errors.New("sources.pexels.api_key must be set when sources.pexels.enabled is true (or set PEXELS_API_KEY)")
	}
	for i, feed := range c.Sources.Feeds {
		if !strings.HasPrefix(feed.URL, "http://") && !strings.HasPrefix(feed.URL, "https://") {
			return fmt.Errorf("sources.feeds[%d].url %q must be an http(s) URL", i, feed.URL)
		}
	}
	return nil
}

func (c *Config) validateWorkspaces() error {
	seen := make(map[int]struct{}, len(c.Workspaces))
	for i, rule := range c.Workspaces {
		if rule.Workspace < 1 {
			return fmt.Errorf("workspaces[%d].workspace must be >= 1", i)
		}
		hasID := rule.WallpaperID > 0
		hasTag := strings.TrimSpace(rule.Tag) != ""
		if hasID == hasTag {
			return fmt.Errorf("workspaces[%d] must set exactly one of wallpaper_id or tag", i)
		}
		if rule.WallpaperID < 0 {
			return fmt.Errorf("workspaces[%d].wallpaper_id must be a positive library id", i)
		}
		if _, exists := seen[rule.Workspace]; exists {
			return fmt.Errorf("workspaces[%d] duplicates workspace %d", i, rule.Workspace)
		}
		seen[rule.Workspace] = struct{}{}
	}
	return nil
}

func (c *Config) validateSchedules() error {
	seen := make(map[string]struct{}, len(c.Schedules))
	for i, entry := range c.Schedules {
		if _, err := ParseClock(entry.At); err != nil {
			return fmt.Errorf("schedules[%d].at: %w", i, err)
		}
		if len(entry.Tags) == 0 {
			return fmt.Errorf("schedules[%d].tags must name at least one tag", i)
		}
		if _, exists := seen[entry.At]; exists {
			return fmt.Errorf("schedules[%d] duplicates time %q", i, entry.At)
		}
		seen[entry.At] = struct{}{}
	}
	return nil
}

// ParseClock parses an "HH:MM" time of day into minutes since midnight.
func ParseClock(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q must use HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", value)
	}
	return hour*60 + minute, nil
}
