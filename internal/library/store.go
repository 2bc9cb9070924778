package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Insert adds a wallpaper to the library. ErrDuplicate is returned when an
// entry with the same content hash already exists.
func (s *Store) Insert(ctx context.Context, wallpaper *Wallpaper) (*Wallpaper, error) {
	if wallpaper == nil {
		return nil, errors.New("wallpaper is nil")
	}
	if strings.TrimSpace(wallpaper.ContentHash) == "" {
		return nil, errors.New("wallpaper content hash is empty")
	}

	existing, err := s.GetByHash(ctx, wallpaper.ContentHash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, ErrDuplicate
	}

	favoritedAt := wallpaper.FavoritedAt
	if favoritedAt.IsZero() {
		favoritedAt = time.Now().UTC()
	}

	tagsJSON, err := marshalTags(wallpaper.Tags)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO wallpapers (
            content_hash, path, source, source_url, width, height,
            size_bytes, tags_json, favorited_at, last_used, use_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wallpaper.ContentHash,
		wallpaper.Path,
		string(wallpaper.Source),
		nullableString(wallpaper.SourceURL),
		wallpaper.Width,
		wallpaper.Height,
		wallpaper.SizeBytes,
		tagsJSON,
		favoritedAt.Format(time.RFC3339Nano),
		nullableTime(wallpaper.LastUsed),
		wallpaper.UseCount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallpaper: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a wallpaper by library identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Wallpaper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers WHERE id = ?`, id)
	wallpaper, err := scanWallpaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallpaper %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wallpaper: %w", err)
	}
	return wallpaper, nil
}

// GetByHash fetches a wallpaper by content hash.
func (s *Store) GetByHash(ctx context.Context, contentHash string) (*Wallpaper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers WHERE content_hash = ?`, contentHash)
	wallpaper, err := scanWallpaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hash %s: %w", contentHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wallpaper by hash: %w", err)
	}
	return wallpaper, nil
}

// List returns all favorites in stable rotation order: favorited_at ascending
// with id breaking ties.
func (s *Store) List(ctx context.Context) ([]*Wallpaper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers ORDER BY favorited_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list wallpapers: %w", err)
	}
	defer rows.Close()

	var wallpapers []*Wallpaper
	for rows.Next() {
		wallpaper, err := scanWallpaper(rows)
		if err != nil {
			return nil, err
		}
		wallpapers = append(wallpapers, wallpaper)
	}
	return wallpapers, rows.Err()
}

// Delete removes a wallpaper row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wallpapers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete wallpaper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkUsed records a display of the wallpaper.
func (s *Store) MarkUsed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE wallpapers SET last_used = ?, use_count = use_count + 1 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	return nil
}

// Count returns the number of favorites in the library.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM wallpapers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count wallpapers: %w", err)
	}
	return count, nil
}

// Stats aggregates library and preview cache state for status output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[SourceType]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(1), COALESCE(SUM(size_bytes), 0) FROM wallpapers GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("library stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		var bytes int64
		if err := rows.Scan(&source, &count, &bytes); err != nil {
			return Stats{}, err
		}
		stats.BySource[SourceType(source)] = count
		stats.Favorites += count
		stats.FavoriteBytes += bytes
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	var latestFavoriteRaw sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(favorited_at) FROM wallpapers`).Scan(&latestFavoriteRaw); err != nil {
		return Stats{}, fmt.Errorf("latest favorite: %w", err)
	}
	if latestFavoriteRaw.Valid {
		if ts, err := parseTimeString(latestFavoriteRaw.String); err == nil {
			stats.LatestFavorite = &ts
		}
	}

	var oldestPreviewRaw sql.NullString
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(size_bytes), 0), MIN(last_access) FROM previews`)
	if err := row.Scan(&stats.Previews, &stats.PreviewBytes, &oldestPreviewRaw); err != nil {
		return Stats{}, fmt.Errorf("preview stats: %w", err)
	}
	if oldestPreviewRaw.Valid {
		if ts, err := parseTimeString(oldestPreviewRaw.String); err == nil {
			stats.OldestPreview = &ts
		}
	}

	return stats, nil
}

const wallpaperColumns = "id, content_hash, path, source, source_url, width, height, size_bytes, tags_json, favorited_at, last_used, use_count"

func scanWallpaper(scanner interface{ Scan(dest ...any) error }) (*Wallpaper, error) {
	var (
		id          int64
		contentHash string
		path        string
		source      string
		sourceURL   sql.NullString
		width       int
		height      int
		sizeBytes   int64
		tagsJSON    sql.NullString
		favoritedAt sql.NullString
		lastUsedRaw sql.NullString
		useCount    int64
	)

	if err := scanner.Scan(
		&id,
		&contentHash,
		&path,
		&source,
		&sourceURL,
		&width,
		&height,
		&sizeBytes,
		&tagsJSON,
		&favoritedAt,
		&lastUsedRaw,
		&useCount,
	); err != nil {
		return nil, err
	}

	wallpaper := &Wallpaper{
		ID:          id,
		ContentHash: contentHash,
		Path:        path,
		Source:      SourceType(source),
		SourceURL:   sourceURL.String,
		Width:       width,
		Height:      height,
		SizeBytes:   sizeBytes,
		UseCount:    useCount,
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &wallpaper.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if ts, err := parseTimeString(favoritedAt.String); err == nil {
		wallpaper.FavoritedAt = ts
	}
	if lastUsedRaw.Valid {
		if ts, err := parseTimeString(lastUsedRaw.String); err == nil {
			wallpaper.LastUsed = &ts
		}
	}
	return wallpaper, nil
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
