package notify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/godbus/dbus/v5"

	"muralis/internal/engine"
	"muralis/internal/logging"
)

const (
	notifyDest      = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod    = "org.freedesktop.Notifications.Notify"
	notifyTimeoutMS = int32(4000)
)

// Notifier sends desktop notifications for engine events. It is a passive
// observer: failures are logged, never propagated, and a slow or absent
// notification daemon cannot block the engine.
type Notifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
	// replacesID collapses rapid wallpaper changes into one popup.
	replacesID uint32
}

// New connects to the session bus. A missing bus is an error so the caller
// can decide to run without notifications.
func New(logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Notifier{conn: conn, logger: logging.NewComponentLogger(logger, "notify")}, nil
}

// Run consumes engine events until ctx is canceled.
func (n *Notifier) Run(ctx context.Context, events <-chan engine.Event) {
	for {
		select {
		case <-ctx.Done():
			n.close()
			return
		case event, ok := <-events:
			if !ok {
				n.close()
				return
			}
			n.handle(event)
		}
	}
}

func (n *Notifier) handle(event engine.Event) {
	switch event.Type {
	case engine.EventChanged:
		name := filepath.Base(event.State.CurrentPath)
		n.send("Wallpaper changed", fmt.Sprintf("%s (%s mode)", name, event.State.Mode))
	case engine.EventError:
		n.send("Wallpaper error", event.State.LastError)
	case engine.EventPaused:
		n.send("Rotation paused", "")
	case engine.EventResumed:
		n.send("Rotation resumed", "")
	}
}

func (n *Notifier) send(summary, body string) {
	obj := n.conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyMethod, 0,
		"muralis",
		n.replacesID,
		"preferences-desktop-wallpaper",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		notifyTimeoutMS,
	)
	if call.Err != nil {
		n.logger.Debug("notification failed", logging.Error(call.Err))
		return
	}
	if err := call.Store(&n.replacesID); err != nil {
		n.logger.Debug("notification id unreadable", logging.Error(err))
	}
}

func (n *Notifier) close() {
	if n.conn != nil {
		_ = n.conn.Close()
	}
}
