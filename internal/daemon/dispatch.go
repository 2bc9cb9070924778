package daemon

import (
	"context"
	"errors"
	"os"

	"muralis/internal/config"
	"muralis/internal/engine"
	"muralis/internal/ipc"
	"muralis/internal/library"
	"muralis/internal/logging"
	"muralis/internal/source"
)

// Dispatch executes one control request. It is the single entry point for
// the ipc server.
func (d *Daemon) Dispatch(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return d.engineResponse(d.engine.Status(ctx))
	case ipc.CommandNext:
		return d.engineResponse(d.engine.Next(ctx))
	case ipc.CommandPrev:
		return d.engineResponse(d.engine.Prev(ctx))
	case ipc.CommandSet:
		if req.ID <= 0 {
			return ipc.Error("set requires a positive wallpaper id")
		}
		return d.engineResponse(d.engine.Set(ctx, req.ID))
	case ipc.CommandMode:
		mode, err := library.ParseDisplayMode(req.Mode)
		if err != nil {
			return ipc.Error(err.Error())
		}
		return d.engineResponse(d.engine.SetMode(ctx, mode))
	case ipc.CommandPause:
		return d.engineResponse(d.engine.Pause(ctx))
	case ipc.CommandResume:
		return d.engineResponse(d.engine.Resume(ctx))
	case ipc.CommandReload:
		return d.handleReload(ctx)
	case ipc.CommandFavoritesList:
		return d.handleFavoritesList(ctx)
	case ipc.CommandFavoritesStats, ipc.CommandCacheStats:
		return d.handleStats(ctx)
	case ipc.CommandFavoritesAdd:
		return d.handleFavoritesAdd(ctx, req)
	case ipc.CommandFavoritesRemove:
		return d.handleFavoritesRemove(ctx, req)
	case ipc.CommandImport:
		return d.handleImport(ctx, req)
	case ipc.CommandCachePrune:
		return d.handlePrune(ctx)
	case ipc.CommandSearch:
		return d.handleSearch(ctx, req)
	case ipc.CommandQuit:
		d.requestQuit()
		return ipc.OK(nil)
	default:
		return ipc.Error("unknown command " + req.Command)
	}
}

func (d *Daemon) engineResponse(state engine.State, err error) ipc.Response {
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(statusData(state))
}

func statusData(state engine.State) ipc.StatusData {
	return ipc.StatusData{
		PID:         os.Getpid(),
		Mode:        state.Mode.String(),
		Paused:      state.Paused,
		CurrentID:   state.CurrentID,
		CurrentPath: state.CurrentPath,
		Workspace:   state.Workspace,
		ChangedAt:   state.ChangedAt,
		NextChange:  state.NextChange,
		LastError:   state.LastError,
	}
}

func wallpaperData(wallpaper *library.Wallpaper) ipc.WallpaperData {
	return ipc.WallpaperData{
		ID:          wallpaper.ID,
		ContentHash: wallpaper.ContentHash,
		Path:        wallpaper.Path,
		Source:      string(wallpaper.Source),
		SourceURL:   wallpaper.SourceURL,
		Width:       wallpaper.Width,
		Height:      wallpaper.Height,
		SizeBytes:   wallpaper.SizeBytes,
		Tags:        wallpaper.Tags,
		FavoritedAt: wallpaper.FavoritedAt,
		LastUsed:    wallpaper.LastUsed,
		UseCount:    wallpaper.UseCount,
	}
}

func (d *Daemon) handleReload(ctx context.Context) ipc.Response {
	cfg, path, exists, err := config.Load(d.configPath)
	if err != nil {
		return ipc.Error("reload config: " + err.Error())
	}
	if !exists {
		return ipc.Error("config file not found at " + path)
	}

	state, err := d.engine.Reload(ctx, cfg)
	if err != nil {
		return ipc.Error(err.Error())
	}

	d.sourceMu.Lock()
	d.cfg = cfg
	d.sources = source.FromConfig(cfg.Sources)
	d.sourceMu.Unlock()

	d.logger.Info("configuration reloaded", logging.String("config", path))
	return ipc.OK(statusData(state))
}

// Library and cache mutations run on the engine goroutine via Exec so they
// never race a concurrent apply.

func (d *Daemon) handleFavoritesList(ctx context.Context) ipc.Response {
	var data ipc.FavoritesListData
	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		wallpapers, err := d.store.List(ctx)
		if err != nil {
			return err
		}
		data.Wallpapers = make([]ipc.WallpaperData, 0, len(wallpapers))
		for _, wallpaper := range wallpapers {
			data.Wallpapers = append(data.Wallpapers, wallpaperData(wallpaper))
		}
		return nil
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(data)
}

func (d *Daemon) handleStats(ctx context.Context) ipc.Response {
	var data ipc.StatsData
	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		stats, budget, err := d.cache.Stats(ctx)
		if err != nil {
			return err
		}
		bySource := make(map[string]int, len(stats.BySource))
		for sourceType, count := range stats.BySource {
			bySource[string(sourceType)] = count
		}
		data = ipc.StatsData{
			Favorites:     stats.Favorites,
			FavoriteBytes: stats.FavoriteBytes,
			BySource:      bySource,
			Previews:      stats.Previews,
			PreviewBytes:  stats.PreviewBytes,
			BudgetBytes:   budget,
		}
		return nil
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(data)
}

func (d *Daemon) handleFavoritesAdd(ctx context.Context, req ipc.Request) ipc.Response {
	if req.URL == "" {
		return ipc.Error("favorites_add requires a url")
	}

	sourceType := library.SourceFeed
	var meta *source.Result
	if recalled, ok := d.recallResult(req.URL); ok {
		sourceType = recalled.Source
		meta = &recalled
	}
	if req.Source != "" {
		parsed, err := library.ParseSourceType(req.Source)
		if err != nil {
			return ipc.Error(err.Error())
		}
		sourceType = parsed
	}

	var wallpaper *library.Wallpaper
	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		var err error
		// A recalled result downloads through its own source so provider
		// credentials travel with the request.
		if meta != nil {
			if src, srcErr := d.registry().Get(string(meta.Source)); srcErr == nil {
				data, dlErr := src.Download(ctx, *meta)
				if dlErr != nil {
					return dlErr
				}
				wallpaper, err = d.cache.FavoriteFetched(ctx, data, req.URL, sourceType, meta)
				return err
			}
		}
		wallpaper, err = d.cache.Favorite(ctx, req.URL, sourceType, meta)
		return err
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(wallpaperData(wallpaper))
}

func (d *Daemon) handleFavoritesRemove(ctx context.Context, req ipc.Request) ipc.Response {
	if req.ID <= 0 {
		return ipc.Error("favorites_remove requires a positive wallpaper id")
	}

	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		wallpaper, err := d.store.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if _, err := d.store.Delete(ctx, req.ID); err != nil {
			return err
		}
		if err := os.Remove(wallpaper.Path); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("favorite file not removed",
				logging.String("path", wallpaper.Path),
				logging.Error(err))
		}
		return nil
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(nil)
}

func (d *Daemon) handleImport(ctx context.Context, req ipc.Request) ipc.Response {
	if req.Path == "" {
		return ipc.Error("import requires a file path")
	}
	var wallpaper *library.Wallpaper
	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		var err error
		wallpaper, err = d.cache.ImportLocal(ctx, req.Path)
		return err
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(wallpaperData(wallpaper))
}

func (d *Daemon) handlePrune(ctx context.Context) ipc.Response {
	var data ipc.PruneData
	err := d.engine.Exec(ctx, func(ctx context.Context) error {
		result, err := d.cache.Prune(ctx)
		if err != nil {
			return err
		}
		data = ipc.PruneData{
			Removed:        result.Removed,
			FreedBytes:     result.FreedBytes,
			RemainingBytes: result.RemainingBytes,
		}
		return nil
	})
	if err != nil {
		return ipc.Error(err.Error())
	}
	return ipc.OK(data)
}

// handleSearch stays off the engine queue: it touches no library or cache
// state, only the mutex-guarded registry and result memory, so a slow
// provider cannot stall rotation.
func (d *Daemon) handleSearch(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Aspect {
	case "", "any", "landscape", "portrait", "square":
	default:
		return ipc.Error("aspect must be one of any, landscape, portrait, square")
	}

	opts := source.SearchOptions{
		Query:   req.Query,
		Page:    req.Page,
		PerPage: req.PerPage,
		Aspect:  req.Aspect,
	}

	results, err := d.searchSources(ctx, req.Source, opts)
	if err != nil {
		return ipc.Error(err.Error())
	}
	results = source.FilterAspect(results, req.Aspect)
	d.rememberResults(results)

	data := ipc.SearchData{Results: make([]ipc.SearchResultData, 0, len(results))}
	for _, result := range results {
		data.Results = append(data.Results, ipc.SearchResultData{
			ID:       result.ID,
			URL:      result.URL,
			ThumbURL: result.ThumbURL,
			Source:   string(result.Source),
			Width:    result.Width,
			Height:   result.Height,
			Tags:     result.Tags,
		})
	}
	return ipc.OK(data)
}

// searchSources queries one named source, or every enabled source when the
// name is empty.
func (d *Daemon) searchSources(ctx context.Context, name string, opts source.SearchOptions) ([]source.Result, error) {
	registry := d.registry()
	if name != "" {
		src, err := registry.Get(name)
		if err != nil {
			return nil, err
		}
		return src.Search(ctx, opts)
	}

	if registry.Len() == 0 {
		return nil, errors.New("no sources are enabled")
	}

	var results []source.Result
	var firstErr error
	for _, srcName := range registry.Names() {
		src, err := registry.Get(srcName)
		if err != nil {
			continue
		}
		found, err := src.Search(ctx, opts)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			d.logger.Warn("source search failed",
				logging.String(logging.FieldSource, srcName),
				logging.Error(err))
			continue
		}
		results = append(results, found...)
	}
	if len(results) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
