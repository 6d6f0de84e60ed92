package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"time"

	"glaze/internal/config"
)

// DefaultSocketPath returns the control socket path used when the
// config does not override it. On Windows the base name is mapped to a
// named pipe.
func DefaultSocketPath() string {
	return filepath.Join(config.PlatformRuntimeDir(), "glazed.sock")
}

// Handler processes a request message and returns the response. Returning
// a nil message with a nil error closes the connection (used for shutdown).
type Handler interface {
	HandleMessage(ctx context.Context, msg *Message) (*Message, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Message) (*Message, error)

// HandleMessage implements Handler.
func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// ServerConfig configures the IPC server.
type ServerConfig struct {
	// SocketPath is the unix socket path. On Windows it is translated
	// into a named pipe name.
	SocketPath string

	// ReadTimeout bounds how long a connection may sit idle between
	// requests before it is dropped.
	ReadTimeout time.Duration

	// MaxConns caps concurrent client connections.
	MaxConns int

	Logger *slog.Logger
}

// DefaultServerConfig returns sensible server defaults for the given
// socket path.
func DefaultServerConfig(socketPath string) ServerConfig {
	return ServerConfig{
		SocketPath:  socketPath,
		ReadTimeout: 60 * time.Second,
		MaxConns:    16,
	}
}

// Server accepts client connections and dispatches requests to a Handler.
type Server struct {
	cfg     ServerConfig
	handler Handler
	log     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server dispatching to handler.
func NewServer(cfg ServerConfig, handler Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("ipc: nil handler")
	}
	if cfg.SocketPath == "" {
		return nil, errors.New("ipc: empty socket path")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 16
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		handler: handler,
		log:     log.With("component", "ipc"),
		conns:   make(map[net.Conn]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("ipc: server already started")
	}

	ln, err := listen(s.cfg.SocketPath)
	if err != nil {
		return err
	}
	s.listener = ln
	s.started = true

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("ipc server listening", "addr", ln.Addr().String())
	return nil
}

// Stop closes the listener and all active connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	ln := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	s.wg.Wait()
	cleanupSocket(s.cfg.SocketPath)
	return nil
}

// ConnCount returns the number of connected clients.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		if len(s.conns) >= s.cfg.MaxConns {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		msg, err := ReadMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return
			}
			s.log.Debug("read failed", "error", err)
			return
		}

		resp := s.dispatch(msg)
		if resp == nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := resp.Write(conn); err != nil {
			s.log.Debug("write failed", "error", err)
			return
		}
	}
}

// dispatch routes a message. Protocol-level messages are answered here,
// everything else goes to the handler. A nil return closes the connection.
func (s *Server) dispatch(msg *Message) *Message {
	if msg.Header.Type == MsgPing {
		resp, _ := NewResponse(msg, MsgPong, nil)
		return resp
	}

	resp, err := s.handler.HandleMessage(s.ctx, msg)
	if err != nil {
		s.log.Warn("handler failed", "type", msg.Header.Type.String(), "error", err)
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInternal, err.Error())
	}
	return resp
}
