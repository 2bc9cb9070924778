package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"muralis/internal/logging"
)

// Dispatcher executes a single decoded request on behalf of the server.
type Dispatcher func(ctx context.Context, req Request) Response

// connTimeout bounds one full request/response exchange.
const connTimeout = 15 * time.Second

// Server answers ndjson control requests on a per-user Unix socket. Each
// connection carries exactly one request and one response.
type Server struct {
	path     string
	dispatch Dispatcher
	logger   *slog.Logger
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the control socket at the given path.
func NewServer(ctx context.Context, path string, dispatch Dispatcher, logger *slog.Logger) (*Server, error) {
	if dispatch == nil {
		return nil, errors.New("ipc server requires a dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:     path,
		dispatch: dispatch,
		logger:   logging.NewComponentLogger(logger, "ipc"),
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Serve accepts connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("control socket listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions; restart the daemon if this persists"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.handleConn(c)
			}(conn)
		}
	}()
}

// Close stops accepting, waits for in-flight requests, and removes the
// socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	logger := s.logger.With(logging.String("conn_id", connID))

	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		logger.Debug("connection closed without request", logging.Error(err))
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Debug("malformed request", logging.Error(err))
		s.write(conn, logger, Error("malformed request: "+err.Error()))
		return
	}

	logger.Debug("request received", logging.String("command", req.Command))

	ctx, cancel := context.WithTimeout(s.ctx, connTimeout)
	defer cancel()

	resp := s.dispatch(ctx, req)
	s.write(conn, logger, resp)
}

func (s *Server) write(conn net.Conn, logger *slog.Logger, resp Response) {
	encoded, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("encode response failed", logging.Error(err))
		return
	}
	encoded = append(encoded, '\n')
	if _, err := conn.Write(encoded); err != nil {
		logger.Debug("write response failed", logging.Error(err))
	}
}
