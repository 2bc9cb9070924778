package library

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies where a wallpaper originally came from.
type SourceType string

const (
	SourceWallhaven SourceType = "wallhaven"
	SourceUnsplash  SourceType = "unsplash"
	SourcePexels    SourceType = "pexels"
	SourceFeed      SourceType = "feed"
	SourceLocal     SourceType = "local"
)

// ParseSourceType validates a source type string.
func ParseSourceType(value string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(value))) {
	case SourceWallhaven:
		return SourceWallhaven, nil
	case SourceUnsplash:
		return SourceUnsplash, nil
	case SourcePexels:
		return SourcePexels, nil
	case SourceFeed:
		return SourceFeed, nil
	case SourceLocal:
		return SourceLocal, nil
	default:
		return "", fmt.Errorf("unknown source type %q", value)
	}
}

// DisplayMode selects how the daemon chooses the next wallpaper.
type DisplayMode string

const (
	ModeStatic        DisplayMode = "static"
	ModeRandom        DisplayMode = "random"
	ModeRandomStartup DisplayMode = "random_startup"
	ModeSequential    DisplayMode = "sequential"
	ModeWorkspace     DisplayMode = "workspace"
	ModeSchedule      DisplayMode = "schedule"
)

// ParseDisplayMode validates a display mode string.
func ParseDisplayMode(value string) (DisplayMode, error) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeStatic:
		return ModeStatic, nil
	case ModeRandom:
		return ModeRandom, nil
	case ModeRandomStartup:
		return ModeRandomStartup, nil
	case ModeSequential:
		return ModeSequential, nil
	case ModeWorkspace:
		return ModeWorkspace, nil
	case ModeSchedule:
		return ModeSchedule, nil
	default:
		return "", fmt.Errorf("unknown display mode %q", value)
	}
}

// String returns the canonical lowercase form.
func (m DisplayMode) String() string { return string(m) }

// Rotates reports whether the mode advances on a timer.
func (m DisplayMode) Rotates() bool {
	return m == ModeRandom || m == ModeSequential
}

// Wallpaper is a favorited library entry. The content hash is the SHA-256 of
// the image bytes and is unique across the library.
type Wallpaper struct {
	ID          int64
	ContentHash string
	Path        string
	Source      SourceType
	SourceURL   string
	Width       int
	Height      int
	SizeBytes   int64
	Tags        []string
	FavoritedAt time.Time
	LastUsed    *time.Time
	UseCount    int64
}

// HasTag reports whether the wallpaper carries the given tag.
func (w *Wallpaper) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, candidate := range w.Tags {
		if strings.ToLower(candidate) == tag {
			return true
		}
	}
	return false
}

// Preview is a cached, not-yet-favorited download tracked for LRU pruning.
type Preview struct {
	ID          int64
	ContentHash string
	Path        string
	SourceURL   string
	SizeBytes   int64
	CreatedAt   time.Time
	LastAccess  time.Time
}

// Stats summarizes library contents for status output.
type Stats struct {
	Favorites      int
	FavoriteBytes  int64
	BySource       map[SourceType]int
	Previews       int
	PreviewBytes   int64
	OldestPreview  *time.Time
	LatestFavorite *time.Time
}
