package workspace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"muralis/internal/logging"
)

// Handler receives workspace switch events.
type Handler func(ctx context.Context, workspace int)

// Listener subscribes to the Hyprland event socket and forwards workspace
// switches. It reconnects with backoff when the compositor restarts.
type Listener struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger
}

// maxBackoff caps the reconnect delay.
const maxBackoff = 30 * time.Second

// ErrNoCompositor indicates the Hyprland environment variables are not set.
var ErrNoCompositor = errors.New("hyprland instance signature not found")

// NewListener resolves the Hyprland event socket from the environment.
func NewListener(handler Handler, logger *slog.Logger) (*Listener, error) {
	signature := strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE"))
	if signature == "" {
		return nil, ErrNoCompositor
	}
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		runtimeDir = "/tmp"
	}
	return &Listener{
		socketPath: filepath.Join(runtimeDir, "hypr", signature, ".socket2.sock"),
		handler:    handler,
		logger:     logging.NewComponentLogger(logger, "workspace"),
	}, nil
}

// newListenerForSocket is the test seam around environment resolution.
func newListenerForSocket(socketPath string, handler Handler, logger *slog.Logger) *Listener {
	return &Listener{
		socketPath: socketPath,
		handler:    handler,
		logger:     logging.NewComponentLogger(logger, "workspace"),
	}
}

// Run consumes events until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := l.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("event socket lost, reconnecting",
			logging.Error(err),
			logging.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (l *Listener) consume(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("dial event socket: %w", err)
	}
	// The watchdog closes the connection on shutdown to unblock the read
	// loop. It is scoped to this connection so reconnects do not pile up
	// goroutines.
	connCtx, cancel := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
		close(watchDone)
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	l.logger.Info("listening for workspace events", logging.String("socket", l.socketPath))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		workspace, ok := ParseEvent(scanner.Text())
		if !ok {
			continue
		}
		l.handler(ctx, workspace)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event socket: %w", err)
	}
	return errors.New("event socket closed")
}

// ParseEvent extracts the workspace number from a Hyprland event line.
// Recognized forms are "workspace>>N" and "workspacev2>>ID,NAME"; everything
// else is ignored.
func ParseEvent(line string) (int, bool) {
	event, payload, found := strings.Cut(line, ">>")
	if !found {
		return 0, false
	}
	switch event {
	case "workspace":
		id, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil {
			return 0, false
		}
		return id, true
	case "workspacev2":
		idPart, _, _ := strings.Cut(payload, ",")
		id, err := strconv.Atoi(strings.TrimSpace(idPart))
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
