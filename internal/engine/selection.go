package engine

import (
	"errors"

	"muralis/internal/config"
	"muralis/internal/library"
	"muralis/internal/source"
)

// ErrNoEligible indicates rotation found no wallpaper passing the filter.
var ErrNoEligible = errors.New("no eligible wallpapers in library")

// eligible applies the configured filter to the full favorites list. The
// order of the input is preserved.
func eligible(wallpapers []*library.Wallpaper, filter config.Filter) []*library.Wallpaper {
	out := make([]*library.Wallpaper, 0, len(wallpapers))
	for _, wallpaper := range wallpapers {
		if passesFilter(wallpaper, filter) {
			out = append(out, wallpaper)
		}
	}
	return out
}

func passesFilter(wallpaper *library.Wallpaper, filter config.Filter) bool {
	// Unknown dimensions pass the size checks rather than hiding entries.
	if wallpaper.Width > 0 && filter.MinWidth > 0 && wallpaper.Width < filter.MinWidth {
		return false
	}
	if wallpaper.Height > 0 && filter.MinHeight > 0 && wallpaper.Height < filter.MinHeight {
		return false
	}
	if !source.MatchesAspect(wallpaper.Width, wallpaper.Height, filter.Aspect) {
		return false
	}
	for _, tag := range filter.ExcludeTags {
		if wallpaper.HasTag(tag) {
			return false
		}
	}
	return true
}

// matchingAnyTag keeps the wallpapers carrying at least one of the tags.
func matchingAnyTag(wallpapers []*library.Wallpaper, tags []string) []*library.Wallpaper {
	out := make([]*library.Wallpaper, 0, len(wallpapers))
	for _, wallpaper := range wallpapers {
		for _, tag := range tags {
			if wallpaper.HasTag(tag) {
				out = append(out, wallpaper)
				break
			}
		}
	}
	return out
}

// pickRandom chooses a random eligible wallpaper, avoiding the current one
// when more than one candidate exists. A single-entry library repeats.
func (e *Engine) pickRandom(candidates []*library.Wallpaper, currentID int64) (*library.Wallpaper, error) {
	if len(candidates) == 0 {
		return nil, ErrNoEligible
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	for {
		choice := candidates[e.rng.IntN(len(candidates))]
		if choice.ID != currentID {
			return choice, nil
		}
	}
}

// pickSequential returns the entry after the current cursor position,
// wrapping at the end of the list.
func pickSequential(candidates []*library.Wallpaper, currentID int64) (*library.Wallpaper, error) {
	if len(candidates) == 0 {
		return nil, ErrNoEligible
	}
	for i, wallpaper := range candidates {
		if wallpaper.ID == currentID {
			return candidates[(i+1)%len(candidates)], nil
		}
	}
	// Current entry is gone or was never in the list: restart at the front.
	return candidates[0], nil
}

// pickStartup chooses the wallpaper to apply when the daemon starts.
func (e *Engine) pickStartup(wallpapers []*library.Wallpaper, candidates []*library.Wallpaper) (*library.Wallpaper, error) {
	switch e.state.Mode {
	case library.ModeStatic:
		if e.cfg.Display.WallpaperID > 0 {
			for _, wallpaper := range wallpapers {
				if wallpaper.ID == e.cfg.Display.WallpaperID {
					return wallpaper, nil
				}
			}
		}
		return mostRecentlyUsed(wallpapers)
	case library.ModeRandom, library.ModeRandomStartup:
		return e.pickRandom(candidates, 0)
	case library.ModeSequential:
		if len(candidates) == 0 {
			return nil, ErrNoEligible
		}
		return candidates[0], nil
	case library.ModeSchedule:
		entry, ok := activeEntry(e.schedule, e.clock())
		if !ok {
			return nil, ErrNoEligible
		}
		return e.pickRandom(matchingAnyTag(candidates, entry.tags), 0)
	default:
		// Workspace mode waits for the first workspace event.
		return nil, nil
	}
}

func mostRecentlyUsed(wallpapers []*library.Wallpaper) (*library.Wallpaper, error) {
	if len(wallpapers) == 0 {
		return nil, ErrNoEligible
	}
	best := wallpapers[0]
	for _, wallpaper := range wallpapers[1:] {
		if wallpaper.LastUsed == nil {
			continue
		}
		if best.LastUsed == nil || wallpaper.LastUsed.After(*best.LastUsed) {
			best = wallpaper
		}
	}
	return best, nil
}
