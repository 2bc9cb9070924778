package daemonctl

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"muralis/internal/ipc"
)

// ErrNotRunning indicates the daemon control socket is unreachable.
var ErrNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls how the detached daemon process is started.
type LaunchOptions struct {
	ConfigPath string
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// Launch starts a detached daemon process running `muralis daemon run`.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// Ping reports whether a daemon answers on the socket, and its PID when it
// does.
func Ping(socketPath string) (bool, int, error) {
	status, err := ipc.Dial(socketPath).Status()
	if err != nil {
		if isUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, status.PID, nil
}

// WaitForReady polls the socket until the daemon answers a status request.
func WaitForReady(socketPath string, timeout time.Duration) (ipc.StatusData, error) {
	deadline := time.Now().Add(timeout)
	client := ipc.Dial(socketPath)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := client.Status()
		if err == nil {
			return status, nil
		}
		lastErr = err
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return ipc.StatusData{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one already answers on the socket.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	running, pid, err := Ping(socketPath)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForReady(socketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: status.PID}, nil
}

// Stop asks the daemon to quit and waits for the socket to go away.
func Stop(socketPath string, gracePeriod time.Duration) error {
	running, _, err := Ping(socketPath)
	if err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}

	if err := ipc.Dial(socketPath).Quit(); err != nil && !isUnavailable(err) {
		return fmt.Errorf("request shutdown: %w", err)
	}
	return WaitForShutdown(socketPath, gracePeriod)
}

// WaitForShutdown polls until the daemon stops answering on the socket.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running, _, err := Ping(socketPath)
		if err != nil || !running {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return errors.New("daemon did not stop in time")
}

func isUnavailable(err error) bool {
	var netErr *net.OpError
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.As(err, &netErr)
}
