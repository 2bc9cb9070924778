package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"muralis/internal/library"
)

// MustOpenStore opens a library store backed by a temp database and registers
// cleanup.
func MustOpenStore(t testing.TB) *library.Store {
	t.Helper()

	store, err := library.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// InsertFavorite adds a favorite backed by a real image file so apply paths
// can resolve it. The seed names the file and derives the content hash.
func InsertFavorite(t testing.TB, store *library.Store, seed string, tags ...string) *library.Wallpaper {
	t.Helper()

	path := filepath.Join(t.TempDir(), seed+".png")
	WriteImage(t, path, seed)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	wallpaper, err := store.Insert(context.Background(), &library.Wallpaper{
		ContentHash: "hash-" + seed,
		Path:        path,
		Source:      library.SourceLocal,
		SizeBytes:   info.Size(),
		Tags:        tags,
	})
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return wallpaper
}
