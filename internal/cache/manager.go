package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"muralis/internal/library"
	"muralis/internal/logging"
	"muralis/internal/source"
)

// Manager owns the wallpaper files on disk: favorites live permanently under
// the wallpapers directory, previews live under the previews directory and
// are pruned LRU against the configured budget.
type Manager struct {
	store         *library.Store
	downloader    *source.Downloader
	wallpapersDir string
	previewsDir   string
	maxBytes      int64
	logger        *slog.Logger
}

// NewManager returns a cache manager. maxMB bounds preview storage only;
// favorites never count against it.
func NewManager(store *library.Store, downloader *source.Downloader, wallpapersDir, previewsDir string, maxMB int64, logger *slog.Logger) (*Manager, error) {
	for _, dir := range []string{wallpapersDir, previewsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}
	return &Manager{
		store:         store,
		downloader:    downloader,
		wallpapersDir: wallpapersDir,
		previewsDir:   previewsDir,
		maxBytes:      maxMB << 20,
		logger:        logging.NewComponentLogger(logger, "cache"),
	}, nil
}

// Favorite downloads the image at url and stores it in the library exactly
// once. A duplicate content hash returns the existing entry without writing
// anything. A cached preview of the same content is promoted instead of
// re-downloaded.
func (m *Manager) Favorite(ctx context.Context, url string, sourceType library.SourceType, meta *source.Result) (*library.Wallpaper, error) {
	data, err := m.downloader.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return m.favoriteBytes(ctx, data, url, sourceType, meta)
}

// FavoriteFetched stores already-downloaded image bytes as a favorite. It
// backs favorites whose bytes came through a source client rather than the
// shared downloader.
func (m *Manager) FavoriteFetched(ctx context.Context, data []byte, url string, sourceType library.SourceType, meta *source.Result) (*library.Wallpaper, error) {
	return m.favoriteBytes(ctx, data, url, sourceType, meta)
}

// ImportLocal copies a file from disk into the library.
func (m *Manager) ImportLocal(ctx context.Context, path string) (*library.Wallpaper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read local wallpaper: %w", err)
	}
	return m.favoriteBytes(ctx, data, "", library.SourceLocal, nil)
}

func (m *Manager) favoriteBytes(ctx context.Context, data []byte, url string, sourceType library.SourceType, meta *source.Result) (*library.Wallpaper, error) {
	hash := hashBytes(data)

	existing, err := m.store.GetByHash(ctx, hash)
	if err != nil && !errors.Is(err, library.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		m.logger.Debug("favorite already in library",
			logging.String("content_hash", hash),
			logging.Int64(logging.FieldWallpaperID, existing.ID))
		return existing, nil
	}

	path := filepath.Join(m.wallpapersDir, hash+source.GuessExtension(data))
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}

	wallpaper := &library.Wallpaper{
		ContentHash: hash,
		Path:        path,
		Source:      sourceType,
		SourceURL:   url,
		SizeBytes:   int64(len(data)),
	}
	if meta != nil {
		wallpaper.Width = meta.Width
		wallpaper.Height = meta.Height
		wallpaper.Tags = meta.Tags
	}
	if wallpaper.Width == 0 || wallpaper.Height == 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			wallpaper.Width = cfg.Width
			wallpaper.Height = cfg.Height
		}
	}

	inserted, err := m.store.Insert(ctx, wallpaper)
	if err != nil && !errors.Is(err, library.ErrDuplicate) {
		_ = os.Remove(path)
		return nil, err
	}

	// A preview with the same content is now redundant.
	if preview, previewErr := m.store.GetPreviewByHash(ctx, hash); previewErr == nil {
		_ = os.Remove(preview.Path)
		_, _ = m.store.DeletePreview(ctx, hash)
	}

	m.logger.Info("favorited wallpaper",
		logging.Int64(logging.FieldWallpaperID, inserted.ID),
		logging.String(logging.FieldSource, string(sourceType)),
		logging.Int64("size_bytes", inserted.SizeBytes))
	return inserted, nil
}

// Preview downloads a search result into the preview cache and prunes the
// cache back under budget afterwards.
func (m *Manager) Preview(ctx context.Context, result source.Result) (*library.Preview, error) {
	data, err := m.downloader.Fetch(ctx, result.URL)
	if err != nil {
		return nil, err
	}
	hash := hashBytes(data)

	if existing, err := m.store.GetPreviewByHash(ctx, hash); err == nil {
		if err := m.store.TouchPreview(ctx, hash); err != nil {
			return nil, err
		}
		return existing, nil
	}

	path := filepath.Join(m.previewsDir, hash+source.GuessExtension(data))
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}

	preview, err := m.store.UpsertPreview(ctx, &library.Preview{
		ContentHash: hash,
		Path:        path,
		SourceURL:   result.URL,
		SizeBytes:   int64(len(data)),
	})
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	if _, err := m.Prune(ctx); err != nil {
		m.logger.Warn("preview cache prune failed", logging.Error(err))
	}
	return preview, nil
}

// EnsurePath verifies the wallpaper file still exists, re-downloading it from
// its source URL when it vanished.
func (m *Manager) EnsurePath(ctx context.Context, wallpaper *library.Wallpaper) (string, error) {
	if _, err := os.Stat(wallpaper.Path); err == nil {
		return wallpaper.Path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat wallpaper file: %w", err)
	}

	if wallpaper.SourceURL == "" {
		return "", fmt.Errorf("wallpaper %d file missing and has no source url", wallpaper.ID)
	}

	m.logger.Warn("wallpaper file missing, re-downloading",
		logging.Int64(logging.FieldWallpaperID, wallpaper.ID),
		logging.String("url", wallpaper.SourceURL))

	data, err := m.downloader.Fetch(ctx, wallpaper.SourceURL)
	if err != nil {
		return "", err
	}
	if hashBytes(data) != wallpaper.ContentHash {
		return "", fmt.Errorf("re-downloaded wallpaper %d no longer matches its content hash", wallpaper.ID)
	}
	if err := writeAtomic(wallpaper.Path, data); err != nil {
		return "", err
	}
	return wallpaper.Path, nil
}

// Reconcile drops preview rows whose files vanished and reports favorites
// with missing files. It is safe to run at startup.
func (m *Manager) Reconcile(ctx context.Context) error {
	previews, err := m.store.ListPreviewsLRU(ctx)
	if err != nil {
		return err
	}
	for _, preview := range previews {
		if _, err := os.Stat(preview.Path); errors.Is(err, fs.ErrNotExist) {
			if _, err := m.store.DeletePreview(ctx, preview.ContentHash); err != nil {
				return err
			}
			m.logger.Debug("dropped orphaned preview row", logging.String("content_hash", preview.ContentHash))
		}
	}

	wallpapers, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	for _, wallpaper := range wallpapers {
		if _, err := os.Stat(wallpaper.Path); errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("favorite file missing",
				logging.Int64(logging.FieldWallpaperID, wallpaper.ID),
				logging.String("path", wallpaper.Path))
		}
	}
	return nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic writes via a temp file and rename so readers never observe a
// partial image.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".muralis-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
