package source

import "muralis/internal/config"

// FromConfig builds the source registry for the enabled providers.
func FromConfig(cfg config.Sources) *Registry {
	var sources []Source
	if cfg.Wallhaven.Enabled {
		sources = append(sources, NewWallhaven(cfg.Wallhaven.APIKey, cfg.Wallhaven.Categories, cfg.Wallhaven.Purity))
	}
	if cfg.Unsplash.Enabled {
		sources = append(sources, NewUnsplash(cfg.Unsplash.AccessKey))
	}
	if cfg.Pexels.Enabled {
		sources = append(sources, NewPexels(cfg.Pexels.APIKey))
	}
	for _, feed := range cfg.Feeds {
		sources = append(sources, NewFeed(feed.Name, feed.URL))
	}
	return NewRegistry(sources...)
}
