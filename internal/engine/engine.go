package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"muralis/internal/backend"
	"muralis/internal/cache"
	"muralis/internal/config"
	"muralis/internal/library"
	"muralis/internal/logging"
)

// historyLimit caps how many previous wallpapers prev can walk back through.
const historyLimit = 50

// Engine is the single writer for the active wallpaper. Every change flows
// through its command channel, so concurrent triggers (timer, workspace
// events, IPC) apply strictly in arrival order.
type Engine struct {
	commands chan Command
	done     chan struct{}

	store   *library.Store
	cache   *cache.Manager
	backend backend.Backend
	cfg     *config.Config
	logger  *slog.Logger
	clock   func() time.Time
	rng     *rand.Rand

	state    State
	schedule []scheduleEntry
	// scheduleMinute is the minute-of-day of the last applied schedule
	// entry; -1 until one applies. Reselection happens only when the
	// active entry changes.
	scheduleMinute int
	history        []int64

	subMu       sync.Mutex
	subscribers []chan Event
}

// New constructs an engine. Run must be called before commands are accepted.
func New(store *library.Store, cacheManager *cache.Manager, applier backend.Backend, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	mode, err := library.ParseDisplayMode(cfg.Display.Mode)
	if err != nil {
		return nil, err
	}
	return &Engine{
		commands:       make(chan Command, 64),
		done:           make(chan struct{}),
		store:          store,
		cache:          cacheManager,
		backend:        applier,
		cfg:            cfg,
		logger:         logging.NewComponentLogger(logger, "engine"),
		clock:          time.Now,
		rng:            rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d7572616c6973)),
		state:          State{Mode: mode},
		schedule:       parseSchedule(cfg.Schedules),
		scheduleMinute: -1,
	}, nil
}

// Subscribe registers a passive observer of engine events. Slow observers
// miss events; they never block the engine.
func (e *Engine) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.subMu.Unlock()
	return ch
}

func (e *Engine) publish(eventType EventType) {
	event := Event{Type: eventType, State: e.state}
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Run processes commands until ctx is canceled. Commands already enqueued at
// that point are still serviced before it returns.
func (e *Engine) Run(ctx context.Context) error {
	e.applyStartup(ctx)

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	e.rescheduleLocked(timer)

	defer func() {
		stopTimer(timer)
		close(e.done)
		e.drain(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping")
			return ctx.Err()
		case cmd := <-e.commands:
			state, err := e.handle(ctx, cmd)
			if rearms(cmd.Op) {
				e.rescheduleLocked(timer)
				state.NextChange = e.state.NextChange
			}
			if cmd.reply != nil {
				cmd.reply <- result{state: state, err: err}
			}
		case <-timer.C:
			e.handleTick(ctx)
			e.rescheduleLocked(timer)
		}
	}
}

// rearms reports whether a command restarts rotation timing. Reads, pause,
// and exec leave the running timer alone so a client polling status cannot
// postpone rotation.
func rearms(op Op) bool {
	switch op {
	case OpNext, OpPrev, OpSet, OpMode, OpReload, OpResume, OpWorkspace, OpTick:
		return true
	default:
		return false
	}
}

// drain services commands that were already enqueued when the engine
// stopped. New arrivals are refused once done is closed.
func (e *Engine) drain(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case cmd := <-e.commands:
			state, err := e.handle(ctx, cmd)
			if cmd.reply != nil {
				cmd.reply <- result{state: state, err: err}
			}
		default:
			return
		}
	}
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// rescheduleLocked arms the rotation timer for the current mode, or parks it
// when nothing is due. The timer keeps running while paused; ticks are
// suppressed in handleTick so resume does not need to rebuild timing state.
func (e *Engine) rescheduleLocked(timer *time.Timer) {
	stopTimer(timer)

	delay := e.nextDelay()
	if delay <= 0 {
		e.state.NextChange = time.Time{}
		return
	}
	e.state.NextChange = e.clock().Add(delay)
	timer.Reset(delay)
}

func (e *Engine) nextDelay() time.Duration {
	switch e.state.Mode {
	case library.ModeRandom, library.ModeSequential:
		interval, err := e.cfg.RotationInterval()
		if err != nil {
			return 0
		}
		return interval
	case library.ModeSchedule:
		if delay, ok := nextBoundary(e.schedule, e.clock()); ok {
			return delay
		}
		return 0
	default:
		return 0
	}
}

func (e *Engine) applyStartup(ctx context.Context) {
	wallpapers, err := e.store.List(ctx)
	if err != nil {
		e.logger.Error("startup library read failed", logging.Error(err))
		return
	}
	candidates := eligible(wallpapers, e.cfg.Filter)

	choice, err := e.pickStartup(wallpapers, candidates)
	if err != nil {
		e.logger.Warn("no startup wallpaper", logging.Error(err))
		return
	}
	if choice == nil {
		return
	}
	if err := e.apply(ctx, choice); err != nil {
		e.logger.Error("startup apply failed", logging.Error(err))
	}
}

func (e *Engine) handle(ctx context.Context, cmd Command) (State, error) {
	switch cmd.Op {
	case OpStatus:
		return e.state, nil
	case OpNext:
		return e.advance(ctx, true)
	case OpPrev:
		return e.goBack(ctx)
	case OpSet:
		return e.setByID(ctx, cmd.ID)
	case OpMode:
		return e.switchMode(ctx, cmd.Mode)
	case OpPause:
		if !e.state.Paused {
			e.state.Paused = true
			e.publish(EventPaused)
			e.logger.Info("rotation paused")
		}
		return e.state, nil
	case OpResume:
		if e.state.Paused {
			e.state.Paused = false
			e.publish(EventResumed)
			e.logger.Info("rotation resumed")
		}
		return e.state, nil
	case OpReload:
		return e.reload(cmd.Config)
	case OpWorkspace:
		return e.workspaceChanged(ctx, cmd.Workspace)
	case OpTick:
		e.handleTick(ctx)
		return e.state, nil
	case OpExec:
		if cmd.Fn == nil {
			return e.state, fmt.Errorf("exec command carries no function")
		}
		return e.state, cmd.Fn(ctx)
	default:
		return e.state, fmt.Errorf("unknown command %q", cmd.Op)
	}
}

func (e *Engine) handleTick(ctx context.Context) {
	if e.state.Paused {
		e.logger.Debug("tick suppressed while paused")
		return
	}
	switch e.state.Mode {
	case library.ModeRandom, library.ModeSequential:
		if _, err := e.advance(ctx, false); err != nil {
			e.logger.Warn("rotation tick failed", logging.Error(err))
		}
	case library.ModeSchedule:
		if _, err := e.applyScheduled(ctx); err != nil {
			e.logger.Warn("schedule tick failed", logging.Error(err))
		}
	}
}

// advance moves to the next wallpaper. manual distinguishes an explicit
// `next` from a timer tick: ticks are ignored in non-rotating modes, a
// manual next falls back to a random pick there.
func (e *Engine) advance(ctx context.Context, manual bool) (State, error) {
	mode := e.state.Mode
	if mode == library.ModeRandomStartup {
		mode = library.ModeRandom
	}
	switch mode {
	case library.ModeRandom, library.ModeSequential:
	default:
		if !manual {
			return e.state, nil
		}
		mode = library.ModeRandom
	}

	wallpapers, err := e.store.List(ctx)
	if err != nil {
		return e.state, err
	}
	candidates := eligible(wallpapers, e.cfg.Filter)

	var choice *library.Wallpaper
	if mode == library.ModeRandom {
		choice, err = e.pickRandom(candidates, e.state.CurrentID)
	} else {
		choice, err = pickSequential(candidates, e.state.CurrentID)
	}
	if err != nil {
		return e.state, err
	}
	if err := e.apply(ctx, choice); err != nil {
		return e.state, err
	}
	return e.state, nil
}

func (e *Engine) goBack(ctx context.Context) (State, error) {
	// history[len-1] is the current wallpaper.
	if len(e.history) < 2 {
		return e.state, fmt.Errorf("no previous wallpaper")
	}
	previousID := e.history[len(e.history)-2]
	e.history = e.history[:len(e.history)-2]

	wallpaper, err := e.store.GetByID(ctx, previousID)
	if err != nil {
		return e.state, err
	}
	if err := e.apply(ctx, wallpaper); err != nil {
		return e.state, err
	}
	return e.state, nil
}

func (e *Engine) setByID(ctx context.Context, id int64) (State, error) {
	wallpaper, err := e.store.GetByID(ctx, id)
	if err != nil {
		return e.state, err
	}
	if err := e.apply(ctx, wallpaper); err != nil {
		return e.state, err
	}
	return e.state, nil
}

// switchMode changes the display mode. An unknown mode is rejected without
// touching the current state.
func (e *Engine) switchMode(ctx context.Context, mode library.DisplayMode) (State, error) {
	if _, err := library.ParseDisplayMode(string(mode)); err != nil {
		return e.state, err
	}
	if mode == e.state.Mode {
		return e.state, nil
	}
	e.state.Mode = mode
	e.logger.Info("display mode changed", logging.String(logging.FieldMode, mode.String()))

	// Every mode except static reselects immediately; static keeps the
	// current wallpaper.
	switch mode {
	case library.ModeSchedule:
		e.scheduleMinute = -1
		return e.applyScheduled(ctx)
	case library.ModeRandom, library.ModeRandomStartup:
		return e.advanceRandomOnce(ctx)
	case library.ModeSequential:
		return e.advance(ctx, false)
	case library.ModeWorkspace:
		if e.state.Workspace > 0 {
			return e.applyWorkspace(ctx, e.state.Workspace)
		}
		return e.state, nil
	default:
		return e.state, nil
	}
}

func (e *Engine) advanceRandomOnce(ctx context.Context) (State, error) {
	wallpapers, err := e.store.List(ctx)
	if err != nil {
		return e.state, err
	}
	choice, err := e.pickRandom(eligible(wallpapers, e.cfg.Filter), e.state.CurrentID)
	if err != nil {
		return e.state, err
	}
	if err := e.apply(ctx, choice); err != nil {
		return e.state, err
	}
	return e.state, nil
}

// applyScheduled picks a random favorite matching the active entry's tags.
// It reselects only when the active entry changes, so a reapplied tick does
// not shuffle within the same window.
func (e *Engine) applyScheduled(ctx context.Context) (State, error) {
	entry, ok := activeEntry(e.schedule, e.clock())
	if !ok {
		return e.state, fmt.Errorf("schedule has no entries")
	}
	if entry.minute == e.scheduleMinute {
		return e.state, nil
	}

	wallpapers, err := e.store.List(ctx)
	if err != nil {
		return e.state, err
	}
	choice, err := e.pickRandom(matchingAnyTag(eligible(wallpapers, e.cfg.Filter), entry.tags), e.state.CurrentID)
	if err != nil {
		return e.state, fmt.Errorf("schedule entry at minute %d: %w", entry.minute, err)
	}
	if err := e.apply(ctx, choice); err != nil {
		return e.state, err
	}
	e.scheduleMinute = entry.minute
	return e.state, nil
}

func (e *Engine) reload(cfg *config.Config) (State, error) {
	if cfg == nil {
		return e.state, fmt.Errorf("reload requires a configuration")
	}
	mode, err := library.ParseDisplayMode(cfg.Display.Mode)
	if err != nil {
		return e.state, err
	}
	e.cfg = cfg
	e.schedule = parseSchedule(cfg.Schedules)
	e.scheduleMinute = -1
	e.state.Mode = mode
	e.logger.Info("configuration reloaded", logging.String(logging.FieldMode, mode.String()))
	return e.state, nil
}

func (e *Engine) workspaceChanged(ctx context.Context, workspace int) (State, error) {
	e.state.Workspace = workspace
	if e.state.Mode != library.ModeWorkspace {
		return e.state, nil
	}
	return e.applyWorkspace(ctx, workspace)
}

// applyWorkspace resolves the binding for a workspace: an explicit id is
// applied directly, a tag picks randomly among matching favorites, and an
// unbound workspace falls back to the random policy.
func (e *Engine) applyWorkspace(ctx context.Context, workspace int) (State, error) {
	for _, rule := range e.cfg.Workspaces {
		if rule.Workspace != workspace {
			continue
		}
		if rule.WallpaperID > 0 {
			if rule.WallpaperID == e.state.CurrentID {
				return e.state, nil
			}
			wallpaper, err := e.store.GetByID(ctx, rule.WallpaperID)
			if err != nil {
				return e.state, err
			}
			if err := e.apply(ctx, wallpaper); err != nil {
				return e.state, err
			}
			return e.state, nil
		}
		return e.applyRandomTagged(ctx, []string{rule.Tag})
	}
	return e.advanceRandomOnce(ctx)
}

func (e *Engine) applyRandomTagged(ctx context.Context, tags []string) (State, error) {
	wallpapers, err := e.store.List(ctx)
	if err != nil {
		return e.state, err
	}
	choice, err := e.pickRandom(matchingAnyTag(eligible(wallpapers, e.cfg.Filter), tags), e.state.CurrentID)
	if err != nil {
		return e.state, err
	}
	if err := e.apply(ctx, choice); err != nil {
		return e.state, err
	}
	return e.state, nil
}

func (e *Engine) apply(ctx context.Context, wallpaper *library.Wallpaper) error {
	path, err := e.cache.EnsurePath(ctx, wallpaper)
	if err != nil {
		e.state.LastError = err.Error()
		e.publish(EventError)
		return err
	}
	if err := e.backend.Apply(ctx, path); err != nil {
		e.state.LastError = err.Error()
		e.publish(EventError)
		return fmt.Errorf("apply wallpaper %d: %w", wallpaper.ID, err)
	}
	if err := e.store.MarkUsed(ctx, wallpaper.ID); err != nil {
		e.logger.Warn("mark used failed", logging.Error(err))
	}

	e.state.CurrentID = wallpaper.ID
	e.state.CurrentPath = path
	e.state.ChangedAt = e.clock()
	e.state.LastError = ""

	if len(e.history) == 0 || e.history[len(e.history)-1] != wallpaper.ID {
		e.history = append(e.history, wallpaper.ID)
		if len(e.history) > historyLimit {
			e.history = e.history[len(e.history)-historyLimit:]
		}
	}

	e.logger.Info("wallpaper changed",
		logging.Int64(logging.FieldWallpaperID, wallpaper.ID),
		logging.String(logging.FieldMode, e.state.Mode.String()))
	e.publish(EventChanged)
	return nil
}
