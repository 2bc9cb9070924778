package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertPreview records a cached download, refreshing last_access when the
// content hash is already tracked.
func (s *Store) UpsertPreview(ctx context.Context, preview *Preview) (*Preview, error) {
	if preview == nil {
		return nil, errors.New("preview is nil")
	}
	now := time.Now().UTC()
	createdAt := preview.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	lastAccess := preview.LastAccess
	if lastAccess.IsZero() {
		lastAccess = now
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO previews (content_hash, path, source_url, size_bytes, created_at, last_access)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(content_hash) DO UPDATE SET
             path = excluded.path,
             source_url = excluded.source_url,
             size_bytes = excluded.size_bytes,
             last_access = excluded.last_access`,
		preview.ContentHash,
		preview.Path,
		nullableString(preview.SourceURL),
		preview.SizeBytes,
		createdAt.Format(time.RFC3339Nano),
		lastAccess.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert preview: %w", err)
	}

	return s.GetPreviewByHash(ctx, preview.ContentHash)
}

// GetPreviewByHash fetches a cached preview by content hash.
func (s *Store) GetPreviewByHash(ctx context.Context, contentHash string) (*Preview, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+previewColumns+` FROM previews WHERE content_hash = ?`, contentHash)
	preview, err := scanPreview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preview %s: %w", contentHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get preview: %w", err)
	}
	return preview, nil
}

// TouchPreview refreshes the LRU timestamp for a cached preview.
func (s *Store) TouchPreview(ctx context.Context, contentHash string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE previews SET last_access = ? WHERE content_hash = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		contentHash,
	)
	if err != nil {
		return fmt.Errorf("touch preview: %w", err)
	}
	return nil
}

// ListPreviewsLRU returns all cached previews ordered oldest access first.
func (s *Store) ListPreviewsLRU(ctx context.Context) ([]*Preview, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+previewColumns+` FROM previews ORDER BY last_access, id`)
	if err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	defer rows.Close()

	var previews []*Preview
	for rows.Next() {
		preview, err := scanPreview(rows)
		if err != nil {
			return nil, err
		}
		previews = append(previews, preview)
	}
	return previews, rows.Err()
}

// DeletePreview removes a preview row and reports whether it existed.
func (s *Store) DeletePreview(ctx context.Context, contentHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM previews WHERE content_hash = ?`, contentHash)
	if err != nil {
		return false, fmt.Errorf("delete preview: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const previewColumns = "id, content_hash, path, source_url, size_bytes, created_at, last_access"

func scanPreview(scanner interface{ Scan(dest ...any) error }) (*Preview, error) {
	var (
		id         int64
		hash       string
		path       string
		sourceURL  sql.NullString
		sizeBytes  int64
		createdRaw sql.NullString
		accessRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &hash, &path, &sourceURL, &sizeBytes, &createdRaw, &accessRaw); err != nil {
		return nil, err
	}

	preview := &Preview{
		ID:          id,
		ContentHash: hash,
		Path:        path,
		SourceURL:   sourceURL.String,
		SizeBytes:   sizeBytes,
	}
	if ts, err := parseTimeString(createdRaw.String); err == nil {
		preview.CreatedAt = ts
	}
	if ts, err := parseTimeString(accessRaw.String); err == nil {
		preview.LastAccess = ts
	}
	return preview, nil
}
