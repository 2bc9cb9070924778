package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"muralis/internal/config"
	"muralis/internal/daemon"
	"muralis/internal/ipc"
	"muralis/internal/logging"
	"muralis/internal/paths"
	"muralis/internal/testsupport"
)

type fakeBackend struct {
	mu      sync.Mutex
	applied []string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Apply(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied = append(b.applied, path)
	return nil
}

func testPaths(t *testing.T) paths.Paths {
	t.Helper()
	root := t.TempDir()
	return paths.Paths{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
		CacheDir:  filepath.Join(root, "cache"),
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Display.Mode = "static"
	cfg.General.Notifications = false
	return &cfg
}

// startDaemon builds a daemon and runs its engine loop so Dispatch calls
// can be exercised directly, without the full socket stack.
func startDaemon(t *testing.T, p paths.Paths) *daemon.Daemon {
	t.Helper()
	d, err := daemon.New(testConfig(), filepath.Join(p.ConfigDir, "config.toml"), p, &fakeBackend{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Engine().Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("engine did not stop")
		}
		_ = d.Close()
	})
	return d
}

func writeSampleImage(t *testing.T, dir, name, seed string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteImage(t, path, seed)
	return path
}

func decodeData[T any](t *testing.T, resp ipc.Response) T {
	t.Helper()
	if resp.Status != ipc.StatusOK {
		t.Fatalf("response not ok: %s", resp.Message)
	}
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode response data: %v", err)
	}
	return out
}

func TestSecondInstanceRejected(t *testing.T) {
	p := testPaths(t)
	first, err := daemon.New(testConfig(), p.ConfigFile(), p, &fakeBackend{}, logging.NewNop())
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	defer first.Close()

	_, err = daemon.New(testConfig(), p.ConfigFile(), p, &fakeBackend{}, logging.NewNop())
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("second New error = %v, want ErrAlreadyRunning", err)
	}
}

func TestDispatchFavoritesLifecycle(t *testing.T) {
	p := testPaths(t)
	d := startDaemon(t, p)
	ctx := context.Background()

	imagePath := writeSampleImage(t, t.TempDir(), "sunset.png", "sunset")
	added := decodeData[ipc.WallpaperData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandImport, Path: imagePath}))
	if added.ID == 0 || added.Source != "local" {
		t.Fatalf("imported = %+v", added)
	}
	if _, err := os.Stat(added.Path); err != nil {
		t.Fatalf("library file missing: %v", err)
	}

	listed := decodeData[ipc.FavoritesListData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandFavoritesList}))
	if len(listed.Wallpapers) != 1 || listed.Wallpapers[0].ID != added.ID {
		t.Fatalf("favorites = %+v", listed.Wallpapers)
	}

	stats := decodeData[ipc.StatsData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandFavoritesStats}))
	if stats.Favorites != 1 || stats.FavoriteBytes != added.SizeBytes {
		t.Fatalf("stats = %+v", stats)
	}

	resp := d.Dispatch(ctx, ipc.Request{Command: ipc.CommandFavoritesRemove, ID: added.ID})
	if resp.Status != ipc.StatusOK {
		t.Fatalf("remove failed: %s", resp.Message)
	}
	if _, err := os.Stat(added.Path); !os.IsNotExist(err) {
		t.Fatalf("favorite file still present after remove: %v", err)
	}

	listed = decodeData[ipc.FavoritesListData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandFavoritesList}))
	if len(listed.Wallpapers) != 0 {
		t.Fatalf("favorites after remove = %+v", listed.Wallpapers)
	}
}

func TestDispatchImportIsIdempotent(t *testing.T) {
	p := testPaths(t)
	d := startDaemon(t, p)
	ctx := context.Background()

	imagePath := writeSampleImage(t, t.TempDir(), "dupe.png", "dupe")
	first := decodeData[ipc.WallpaperData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandImport, Path: imagePath}))
	second := decodeData[ipc.WallpaperData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandImport, Path: imagePath}))
	if first.ID != second.ID {
		t.Fatalf("duplicate import created a new entry: %d vs %d", first.ID, second.ID)
	}

	stats := decodeData[ipc.StatsData](t, d.Dispatch(ctx, ipc.Request{Command: ipc.CommandFavoritesStats}))
	if stats.Favorites != 1 {
		t.Fatalf("favorites = %d, want 1", stats.Favorites)
	}
}

func TestDispatchStatusCarriesPID(t *testing.T) {
	p := testPaths(t)
	d := startDaemon(t, p)

	status := decodeData[ipc.StatusData](t, d.Dispatch(context.Background(), ipc.Request{Command: ipc.CommandStatus}))
	if status.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", status.PID, os.Getpid())
	}
	if status.Mode != "static" {
		t.Fatalf("mode = %q", status.Mode)
	}
}

func TestDispatchRejectsBadRequests(t *testing.T) {
	p := testPaths(t)
	d := startDaemon(t, p)
	ctx := context.Background()

	cases := []ipc.Request{
		{Command: "bogus"},
		{Command: ipc.CommandSet},
		{Command: ipc.CommandMode, Mode: "shuffle"},
		{Command: ipc.CommandFavoritesAdd},
		{Command: ipc.CommandFavoritesRemove, ID: -1},
		{Command: ipc.CommandImport},
		{Command: ipc.CommandSearch},
		{Command: ipc.CommandSearch, Aspect: "diagonal"},
	}
	for _, req := range cases {
		if resp := d.Dispatch(ctx, req); resp.Status != ipc.StatusError {
			t.Errorf("Dispatch(%+v) status = %q, want error", req, resp.Status)
		}
	}
}

func TestDispatchRemoveUnknownID(t *testing.T) {
	p := testPaths(t)
	d := startDaemon(t, p)

	resp := d.Dispatch(context.Background(), ipc.Request{Command: ipc.CommandFavoritesRemove, ID: 42})
	if resp.Status != ipc.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
}
