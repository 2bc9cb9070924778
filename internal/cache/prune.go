package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"muralis/internal/library"
	"muralis/internal/logging"
)

// PruneResult reports the outcome of an LRU prune pass.
type PruneResult struct {
	Removed        int
	FreedBytes     int64
	RemainingBytes int64
}

// Prune evicts least-recently-accessed previews until the preview cache fits
// the budget. Favorites are never candidates.
func (m *Manager) Prune(ctx context.Context) (PruneResult, error) {
	previews, err := m.store.ListPreviewsLRU(ctx)
	if err != nil {
		return PruneResult{}, err
	}

	var total int64
	for _, preview := range previews {
		total += preview.SizeBytes
	}

	result := PruneResult{RemainingBytes: total}
	for _, preview := range previews {
		if result.RemainingBytes <= m.maxBytes {
			break
		}
		if err := os.Remove(preview.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("failed to remove preview file",
				logging.String("path", preview.Path),
				logging.Error(err))
			continue
		}
		if _, err := m.store.DeletePreview(ctx, preview.ContentHash); err != nil {
			return result, err
		}
		result.Removed++
		result.FreedBytes += preview.SizeBytes
		result.RemainingBytes -= preview.SizeBytes
	}

	if result.Removed > 0 {
		m.logger.Info("pruned preview cache",
			logging.Int("removed", result.Removed),
			logging.Int64("freed_bytes", result.FreedBytes),
			logging.Int64("remaining_bytes", result.RemainingBytes))
	}
	return result, nil
}

// Stats returns the library statistics together with the preview budget.
func (m *Manager) Stats(ctx context.Context) (library.Stats, int64, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return library.Stats{}, 0, err
	}
	return stats, m.maxBytes, nil
}
