package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"muralis/internal/backend"
	"muralis/internal/cache"
	"muralis/internal/config"
	"muralis/internal/engine"
	"muralis/internal/ipc"
	"muralis/internal/library"
	"muralis/internal/logging"
	"muralis/internal/notify"
	"muralis/internal/paths"
	"muralis/internal/source"
	"muralis/internal/workspace"
)

// ErrAlreadyRunning indicates another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("another muralis daemon is already running")

// shutdownGrace bounds how long shutdown waits for components to finish.
const shutdownGrace = 5 * time.Second

// searchMemoryLimit caps how many recent search results are remembered for
// favorites_add metadata lookups.
const searchMemoryLimit = 500

// Daemon owns every long-lived component: the display engine, the workspace
// listener, the notifier, and the control socket.
type Daemon struct {
	cfg        *config.Config
	configPath string
	paths      paths.Paths
	logger     *slog.Logger

	lock       *flock.Flock
	store      *library.Store
	cache      *cache.Manager
	engine     *engine.Engine
	downloader *source.Downloader

	sourceMu sync.RWMutex
	sources  *source.Registry

	searchMu      sync.Mutex
	searchResults map[string]source.Result

	quitOnce sync.Once
	quit     chan struct{}
}

// New acquires the single-instance lock and wires the daemon components.
// ErrAlreadyRunning is returned when the lock is held elsewhere.
func New(cfg *config.Config, configPath string, p paths.Paths, applier backend.Backend, logger *slog.Logger) (*Daemon, error) {
	if err := p.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(p.DataDir, "muralis.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	store, err := library.Open(p.DatabasePath())
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	downloader := source.NewDownloader()
	cacheManager, err := cache.NewManager(store, downloader, p.WallpapersDir(), p.PreviewsDir(), cfg.General.CacheMaxMB, logger)
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}

	eng, err := engine.New(store, cacheManager, applier, cfg, logger)
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &Daemon{
		cfg:           cfg,
		configPath:    configPath,
		paths:         p,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		lock:          lock,
		store:         store,
		cache:         cacheManager,
		engine:        eng,
		downloader:    downloader,
		sources:       source.FromConfig(cfg.Sources),
		searchResults: make(map[string]source.Result),
		quit:          make(chan struct{}),
	}, nil
}

// Engine exposes the display engine for tests and the run wrapper.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// Run starts all components and blocks until ctx is canceled or a quit
// command arrives.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.cache.Reconcile(runCtx); err != nil {
		d.logger.Warn("cache reconcile failed", logging.Error(err))
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.engine.Run(runCtx)
	}()

	listener, err := workspace.NewListener(func(ctx context.Context, ws int) {
		if err := d.engine.WorkspaceChanged(ctx, ws); err != nil {
			d.logger.Debug("workspace event dropped", logging.Error(err))
		}
	}, d.logger)
	switch {
	case errors.Is(err, workspace.ErrNoCompositor):
		d.logger.Info("no compositor event socket; workspace mode inactive")
	case err != nil:
		d.logger.Warn("workspace listener unavailable", logging.Error(err))
	default:
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = listener.Run(runCtx)
		}()
	}

	if d.cfg.General.Notifications {
		notifier, err := notify.New(d.logger)
		if err != nil {
			d.logger.Warn("notifications unavailable", logging.Error(err))
		} else {
			events := d.engine.Subscribe()
			wg.Add(1)
			go func() {
				defer wg.Done()
				notifier.Run(runCtx, events)
			}()
		}
	}

	socketPath := paths.SocketPath()
	server, err := ipc.NewServer(runCtx, socketPath, d.Dispatch, d.logger)
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}
	server.Serve()

	d.logger.Info("daemon running",
		logging.String("socket", socketPath),
		logging.String(logging.FieldMode, d.cfg.Display.Mode))

	select {
	case <-ctx.Done():
	case <-d.quit:
		d.logger.Info("quit requested")
	}

	server.Close()
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		d.logger.Warn("shutdown grace period expired")
	}

	return d.Close()
}

// Close releases the store and the instance lock. Safe to call after Run.
func (d *Daemon) Close() error {
	var firstErr error
	if err := d.store.Close(); err != nil {
		firstErr = err
	}
	if err := d.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// requestQuit signals Run to shut down.
func (d *Daemon) requestQuit() {
	d.quitOnce.Do(func() { close(d.quit) })
}

func (d *Daemon) registry() *source.Registry {
	d.sourceMu.RLock()
	defer d.sourceMu.RUnlock()
	return d.sources
}

func (d *Daemon) rememberResults(results []source.Result) {
	d.searchMu.Lock()
	defer d.searchMu.Unlock()
	if len(d.searchResults) > searchMemoryLimit {
		d.searchResults = make(map[string]source.Result, len(results))
	}
	for _, result := range results {
		d.searchResults[result.URL] = result
	}
}

func (d *Daemon) recallResult(url string) (source.Result, bool) {
	d.searchMu.Lock()
	defer d.searchMu.Unlock()
	result, ok := d.searchResults[url]
	return result, ok
}
