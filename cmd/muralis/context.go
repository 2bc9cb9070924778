package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"

	"muralis/internal/config"
	"muralis/internal/ipc"
	"muralis/internal/paths"
)

type commandContext struct {
	configFlag *string
	socketFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, socketFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		socketFlag: socketFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configFile() string {
	if c.configFlag != nil {
		return strings.TrimSpace(*c.configFlag)
	}
	return ""
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	return paths.SocketPath()
}

func (c *commandContext) client() *ipc.Client {
	return ipc.Dial(c.socketPath())
}

// withClient runs fn against the daemon and rewrites connection failures
// into actionable messages.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	if err := fn(c.client()); err != nil {
		return wrapDialError(err, c.socketPath())
	}
	return nil
}

func wrapDialError(err error, socket string) error {
	var remote *ipc.RemoteError
	if errors.As(err, &remote) {
		return err
	}
	var netErr *net.OpError
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `muralis daemon start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	case errors.As(err, &netErr):
		return fmt.Errorf("connect to daemon: %w", err)
	default:
		return err
	}
}
