package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeGeneral()
	c.normalizeDisplay()
	c.normalizeTransition()
	c.normalizeFilter()
	c.normalizeSources()
	c.normalizeSelectors()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeGeneral() {
	c.General.Backend = strings.ToLower(strings.TrimSpace(c.General.Backend))
	if c.General.Backend == "" {
		c.General.Backend = defaultBackend
	}
	if c.General.CacheMaxMB <= 0 {
		c.General.CacheMaxMB = defaultCacheMaxMB
	}
}

func (c *Config) normalizeDisplay() {
	c.Display.Mode = strings.ToLower(strings.TrimSpace(c.Display.Mode))
	if c.Display.Mode == "" {
		c.Display.Mode = defaultDisplayMode
	}
	c.Display.Interval = strings.TrimSpace(c.Display.Interval)
	if c.Display.Interval == "" {
		c.Display.Interval = defaultDisplayInterval
	}
}

func (c *Config) normalizeTransition() {
	c.Transition.Type = strings.ToLower(strings.TrimSpace(c.Transition.Type))
	if c.Transition.Type == "" {
		c.Transition.Type = defaultTransitionType
	}
	if c.Transition.Duration <= 0 {
		c.Transition.Duration = defaultTransitionDuration
	}
	if c.Transition.FPS <= 0 {
		c.Transition.FPS = defaultTransitionFPS
	}
	if c.Transition.Step <= 0 {
		c.Transition.Step = defaultTransitionStep
	}
}

func (c *Config) normalizeFilter() {
	c.Filter.Aspect = strings.ToLower(strings.TrimSpace(c.Filter.Aspect))
	if c.Filter.Aspect == "" {
		c.Filter.Aspect = "any"
	}
	c.Filter.ExcludeTags = normalizeTags(c.Filter.ExcludeTags)
}

func (c *Config) normalizeSelectors() {
	for i := range c.Workspaces {
		c.Workspaces[i].Tag = strings.ToLower(strings.TrimSpace(c.Workspaces[i].Tag))
	}
	for i := range c.Schedules {
		c.Schedules[i].At = strings.TrimSpace(c.Schedules[i].At)
		c.Schedules[i].Tags = normalizeTags(c.Schedules[i].Tags)
	}
}

// normalizeTags lowercases, trims, and deduplicates a tag list, preserving
// first-seen order.
func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
	}
	return tags
}

func (c *Config) normalizeSources() {
	c.Sources.Wallhaven.APIKey = strings.TrimSpace(c.Sources.Wallhaven.APIKey)
	if c.Sources.Wallhaven.APIKey == "" {
		if value, ok := os.LookupEnv("WALLHAVEN_API_KEY"); ok {
			c.Sources.Wallhaven.APIKey = strings.TrimSpace(value)
		}
	}
	c.Sources.Wallhaven.Categories = strings.ToLower(strings.TrimSpace(c.Sources.Wallhaven.Categories))
	if c.Sources.Wallhaven.Categories == "" {
		c.Sources.Wallhaven.Categories = defaultWallhavenCategories
	}
	c.Sources.Wallhaven.Purity = strings.ToLower(strings.TrimSpace(c.Sources.Wallhaven.Purity))
	if c.Sources.Wallhaven.Purity == "" {
		c.Sources.Wallhaven.Purity = defaultWallhavenPurity
	}

	c.Sources.Unsplash.AccessKey = strings.TrimSpace(c.Sources.Unsplash.AccessKey)
	if c.Sources.Unsplash.AccessKey == "" {
		if value, ok := os.LookupEnv("UNSPLASH_ACCESS_KEY"); ok {
			c.Sources.Unsplash.AccessKey = strings.TrimSpace(value)
		}
	}

	c.Sources.Pexels.APIKey = strings.TrimSpace(c.Sources.Pexels.APIKey)
	if c.Sources.Pexels.APIKey == "" {
		if value, ok := os.LookupEnv("PEXELS_API_KEY"); ok {
			c.Sources.Pexels.APIKey = strings.TrimSpace(value)
		}
	}

	feeds := make([]Feed, 0, len(c.Sources.Feeds))
	for _, feed := range c.Sources.Feeds {
		feed.Name = strings.TrimSpace(feed.Name)
		feed.URL = strings.TrimSpace(feed.URL)
		if feed.URL == "" {
			continue
		}
		feeds = append(feeds, feed)
	}
	c.Sources.Feeds = feeds
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	} else {
		c.Logging.File = ""
	}
	return nil
}
