package engine

import (
	"context"
	"errors"
	"time"

	"muralis/internal/config"
	"muralis/internal/library"
)

// Op identifies a display engine command.
type Op string

const (
	OpStatus    Op = "status"
	OpNext      Op = "next"
	OpPrev      Op = "prev"
	OpSet       Op = "set"
	OpMode      Op = "mode"
	OpPause     Op = "pause"
	OpResume    Op = "resume"
	OpReload    Op = "reload"
	OpTick      Op = "tick"
	OpWorkspace Op = "workspace"
	OpExec      Op = "exec"
)

// Command is a single unit of work for the engine loop. All wallpaper
// changes flow through commands so they apply in arrival order.
type Command struct {
	Op        Op
	ID        int64
	Mode      library.DisplayMode
	Workspace int
	Config    *config.Config
	Fn        func(context.Context) error
	reply     chan result
}

type result struct {
	state State
	err   error
}

// ErrShuttingDown is returned for commands the engine refused to accept
// because it is stopping.
var ErrShuttingDown = errors.New("daemon is shutting down")

// enqueueTimeout bounds how long a caller waits for the engine to accept and
// answer a command. Exec commands get a longer bound because they may carry
// a download.
const (
	enqueueTimeout = 10 * time.Second
	execTimeout    = 2 * time.Minute
)

func (e *Engine) do(ctx context.Context, cmd Command) (State, error) {
	return e.doTimeout(ctx, cmd, enqueueTimeout)
}

func (e *Engine) doTimeout(ctx context.Context, cmd Command, timeout time.Duration) (State, error) {
	cmd.reply = make(chan result, 1)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-e.done:
		return State{}, ErrShuttingDown
	}

	select {
	case res := <-cmd.reply:
		return res.state, res.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-e.done:
		// Accepted commands are drained and answered during shutdown.
		select {
		case res := <-cmd.reply:
			return res.state, res.err
		case <-ctx.Done():
			return State{}, ErrShuttingDown
		}
	}
}

// Status returns the current display state.
func (e *Engine) Status(ctx context.Context) (State, error) {
	return e.do(ctx, Command{Op: OpStatus})
}

// Next advances to the next wallpaper for the current mode.
func (e *Engine) Next(ctx context.Context) (State, error) {
	return e.do(ctx, Command{Op: OpNext})
}

// Prev returns to the previously displayed wallpaper.
func (e *Engine) Prev(ctx context.Context) (State, error) {
	return e.do(ctx, Command{Op: OpPrev})
}

// Set displays a specific library wallpaper.
func (e *Engine) Set(ctx context.Context, id int64) (State, error) {
	return e.do(ctx, Command{Op: OpSet, ID: id})
}

// SetMode switches the display mode. An unknown mode leaves the current
// state untouched and returns an error.
func (e *Engine) SetMode(ctx context.Context, mode library.DisplayMode) (State, error) {
	return e.do(ctx, Command{Op: OpMode, Mode: mode})
}

// Pause suppresses automatic rotation until Resume.
func (e *Engine) Pause(ctx context.Context) (State, error) {
	return e.do(ctx, Command{Op: OpPause})
}

// Resume re-enables automatic rotation.
func (e *Engine) Resume(ctx context.Context) (State, error) {
	return e.do(ctx, Command{Op: OpResume})
}

// Reload swaps in a freshly loaded configuration.
func (e *Engine) Reload(ctx context.Context, cfg *config.Config) (State, error) {
	return e.do(ctx, Command{Op: OpReload, Config: cfg})
}

// Exec runs fn on the engine goroutine, serialized with every other command.
// Library and cache mutations from the control socket go through here so
// they never race a concurrent apply.
func (e *Engine) Exec(ctx context.Context, fn func(context.Context) error) error {
	_, err := e.doTimeout(ctx, Command{Op: OpExec, Fn: fn}, execTimeout)
	return err
}

// WorkspaceChanged reports a compositor workspace switch. It never blocks
// the caller beyond the enqueue itself; stale events are simply processed in
// order.
func (e *Engine) WorkspaceChanged(ctx context.Context, workspace int) error {
	select {
	case e.commands <- Command{Op: OpWorkspace, Workspace: workspace}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrShuttingDown
	}
}
