package library_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"muralis/internal/library"
)

func openStore(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleWallpaper(hash string) *library.Wallpaper {
	return &library.Wallpaper{
		ContentHash: hash,
		Path:        "/tmp/wallpapers/" + hash + ".png",
		Source:      library.SourceWallhaven,
		SourceURL:   "https://example.com/" + hash,
		Width:       2560,
		Height:      1440,
		SizeBytes:   1024,
		Tags:        []string{"nature", "mountains"},
	}
}

func TestInsertAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, sampleWallpaper("aaa111"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("expected non-zero id")
	}
	if inserted.FavoritedAt.IsZero() {
		t.Fatal("expected favorited_at to be set")
	}

	byID, err := store.GetByID(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.ContentHash != "aaa111" {
		t.Fatalf("hash = %q", byID.ContentHash)
	}
	if len(byID.Tags) != 2 || byID.Tags[0] != "nature" {
		t.Fatalf("tags = %v", byID.Tags)
	}

	byHash, err := store.GetByHash(ctx, "aaa111")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if byHash.ID != inserted.ID {
		t.Fatalf("id mismatch: %d vs %d", byHash.ID, inserted.ID)
	}
}

func TestInsertDuplicateHashReturnsExisting(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Insert(ctx, sampleWallpaper("dupe"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second, err := store.Insert(ctx, sampleWallpaper("dupe"))
	if !errors.Is(err, library.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("expected existing row back, got %+v", second)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := openStore(t)
	if _, err := store.GetByID(context.Background(), 42); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListStableOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, hash := range []string{"c", "a", "b"} {
		w := sampleWallpaper(hash)
		w.FavoritedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.Insert(ctx, w); err != nil {
			t.Fatalf("insert %s: %v", hash, err)
		}
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("len = %d, want 3", len(listed))
	}
	got := []string{listed[0].ContentHash, listed[1].ContentHash, listed[2].ContentHash}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMarkUsed(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, sampleWallpaper("used"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.MarkUsed(ctx, inserted.ID); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if err := store.MarkUsed(ctx, inserted.ID); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}

	updated, err := store.GetByID(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.UseCount != 2 {
		t.Fatalf("use_count = %d, want 2", updated.UseCount)
	}
	if updated.LastUsed == nil {
		t.Fatal("expected last_used to be set")
	}
}

func TestDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, sampleWallpaper("gone"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	removed, err := store.Delete(ctx, inserted.ID)
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, inserted.ID)
	if err != nil || removed {
		t.Fatalf("second Delete: removed=%v err=%v", removed, err)
	}
}

func TestPreviewLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.UpsertPreview(ctx, &library.Preview{
		ContentHash: "p1",
		Path:        "/tmp/previews/p1.jpg",
		SourceURL:   "https://example.com/p1",
		SizeBytes:   100,
	})
	if err != nil {
		t.Fatalf("UpsertPreview: %v", err)
	}
	if first.LastAccess.IsZero() {
		t.Fatal("expected last_access to be set")
	}

	if err := store.TouchPreview(ctx, "p1"); err != nil {
		t.Fatalf("TouchPreview: %v", err)
	}

	if _, err := store.UpsertPreview(ctx, &library.Preview{ContentHash: "p2", Path: "/tmp/previews/p2.jpg", SizeBytes: 200, LastAccess: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatalf("UpsertPreview p2: %v", err)
	}

	lru, err := store.ListPreviewsLRU(ctx)
	if err != nil {
		t.Fatalf("ListPreviewsLRU: %v", err)
	}
	if len(lru) != 2 || lru[0].ContentHash != "p2" {
		t.Fatalf("lru order wrong: %+v", lru)
	}

	removed, err := store.DeletePreview(ctx, "p1")
	if err != nil || !removed {
		t.Fatalf("DeletePreview: removed=%v err=%v", removed, err)
	}
}

func TestStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	w := sampleWallpaper("s1")
	w.SizeBytes = 500
	if _, err := store.Insert(ctx, w); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	local := sampleWallpaper("s2")
	local.Source = library.SourceLocal
	local.SizeBytes = 300
	if _, err := store.Insert(ctx, local); err != nil {
		t.Fatalf("Insert local: %v", err)
	}
	if _, err := store.UpsertPreview(ctx, &library.Preview{ContentHash: "s3", Path: "/tmp/previews/s3.jpg", SizeBytes: 50}); err != nil {
		t.Fatalf("UpsertPreview: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Favorites != 2 || stats.FavoriteBytes != 800 {
		t.Fatalf("favorites = %d bytes = %d", stats.Favorites, stats.FavoriteBytes)
	}
	if stats.BySource[library.SourceLocal] != 1 {
		t.Fatalf("by source = %v", stats.BySource)
	}
	if stats.Previews != 1 || stats.PreviewBytes != 50 {
		t.Fatalf("previews = %d bytes = %d", stats.Previews, stats.PreviewBytes)
	}
}

func TestParseDisplayMode(t *testing.T) {
	for _, value := range []string{"static", "random", "random_startup", "sequential", "workspace", "schedule"} {
		mode, err := library.ParseDisplayMode(value)
		if err != nil {
			t.Errorf("ParseDisplayMode(%q): %v", value, err)
		}
		if mode.String() != value {
			t.Errorf("round trip %q = %q", value, mode.String())
		}
	}
	if _, err := library.ParseDisplayMode("spiral"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
