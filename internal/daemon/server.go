// Package daemon implements the credd identity service: a Unix domain
// socket server that answers ping, status and whoami requests, where
// whoami is the caller's own kernel-reported peer credentials.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cortexd/peercred/internal/framing"
	"github.com/cortexd/peercred/internal/protocol"
	"github.com/cortexd/peercred/pkg/peercred"
)

const defaultShutdownTimeout = 5 * time.Second

// Config defines the daemon's runtime settings
type Config struct {
	Socket          peercred.SocketConfig
	Policy          peercred.Policy
	Codec           peercred.Codec
	MaxFrameSize    int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the credd protocol over a credential-aware listener
type Server struct {
	cfg    Config
	logger *peercred.Logger

	socketPath string
	startedAt  time.Time

	served   atomic.Uint64
	active   atomic.Int64
	rejected atomic.Uint64

	wg      sync.WaitGroup
	connsMu sync.Mutex
	conns   map[*peercred.Conn]struct{}
}

// New creates a new server
func New(cfg Config, logger *peercred.Logger) *Server {
	if logger == nil {
		logger = peercred.NewLogger(peercred.LoggingConfig{Level: "info", Format: "text"})
	}
	return &Server{
		cfg:    cfg,
		logger: logger.WithComponent("daemon"),
		conns:  make(map[*peercred.Conn]struct{}),
	}
}

// Run binds the socket and serves until ctx is cancelled or the
// listener fails. On return all connections have been drained or
// force-closed.
func (s *Server) Run(ctx context.Context) error {
	ln, err := peercred.Listen(s.cfg.Socket, s.cfg.Policy)
	if err != nil {
		return err
	}
	s.socketPath = ln.Path()
	s.startedAt = time.Now().UTC()

	s.logger.Info("credd listening",
		"socket", s.socketPath,
		"codec", s.cfg.Codec.Name())

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	err = s.serve(ctx, ln)
	_ = ln.Close()
	s.drain()

	if err == nil || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) serve(ctx context.Context, ln *peercred.Listener) error {
	var acceptDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, peercred.ErrPeerRejected) {
				s.rejected.Add(1)
				s.logger.Warn("peer rejected", "error", err)
				acceptDelay = 0
				continue
			}
			// Transient accept failures (ECONNABORTED, fd exhaustion)
			// get an increasing backoff before retrying.
			if acceptDelay == 0 {
				acceptDelay = 10 * time.Millisecond
			} else {
				acceptDelay *= 2
			}
			if acceptDelay > time.Second {
				acceptDelay = time.Second
			}
			s.logger.Warn("accept failed", "error", err, "retry_in", acceptDelay)
			time.Sleep(acceptDelay)
			continue
		}
		acceptDelay = 0
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// drain waits for in-flight handlers to finish. Idle connections are
// unblocked immediately by expiring their read deadlines; whatever is
// still open after the shutdown timeout is force-closed.
func (s *Server) drain() {
	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.SetReadDeadline(time.Now())
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	select {
	case <-done:
	case <-time.After(timeout):
		s.connsMu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connsMu.Unlock()
		<-done
	}
}

func (s *Server) addConn(conn *peercred.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) removeConn(conn *peercred.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) handleConn(ctx context.Context, conn *peercred.Conn) {
	defer s.wg.Done()
	s.addConn(conn)
	defer s.removeConn(conn)
	defer func() { _ = conn.Close() }()

	s.served.Add(1)
	s.active.Add(1)
	defer s.active.Add(-1)

	logger := s.logger.WithPeer(conn.Peer())
	logger.Debug("connection accepted")

	framer := framing.NewFramerWithMaxSize(conn, s.cfg.MaxFrameSize)
	for {
		if ctx.Err() != nil {
			return
		}

		data, err := framer.ReadMessage()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				logger.Warn("failed to read request", "error", err)
			}
			return
		}

		var req protocol.Request
		if err := s.cfg.Codec.Unmarshal(data, &req); err != nil {
			_ = s.writeResponse(framer, protocol.NewErrorResponse(0, fmt.Errorf("malformed request: %v", err)))
			return
		}

		if s.cfg.RequestTimeout > 0 {
			_ = conn.SetDeadline(time.Now().Add(s.cfg.RequestTimeout))
		}
		resp := s.dispatch(&req, conn.Peer())
		if err := s.writeResponse(framer, resp); err != nil {
			logger.Warn("failed to write response", "error", err)
			return
		}
		_ = conn.SetDeadline(time.Time{})
	}
}

func (s *Server) dispatch(req *protocol.Request, peer peercred.PeerCredentials) *protocol.Response {
	switch req.Method {
	case protocol.MethodPing:
		return s.response(req.ID, protocol.PingResult{Message: "pong"})

	case protocol.MethodWhoami:
		return s.response(req.ID, protocol.WhoamiResult{
			PID:      peer.PID,
			UID:      peer.UID,
			GID:      peer.GID,
			PIDKnown: peer.HasPID(),
		})

	case protocol.MethodStatus:
		return s.response(req.ID, protocol.StatusResult{
			PID:           int32(os.Getpid()),
			UID:           uint32(os.Geteuid()),
			Socket:        s.socketPath,
			StartedAt:     s.startedAt,
			ConnsServed:   s.served.Load(),
			ConnsActive:   s.active.Load(),
			ConnsRejected: s.rejected.Load(),
		})

	default:
		return protocol.NewErrorResponse(req.ID, fmt.Errorf("unknown method %q", req.Method))
	}
}

func (s *Server) response(id uint64, body interface{}) *protocol.Response {
	resp, err := protocol.NewResponse(s.cfg.Codec, id, body)
	if err != nil {
		return protocol.NewErrorResponse(id, err)
	}
	return resp
}

func (s *Server) writeResponse(f *framing.Framer, resp *protocol.Response) error {
	data, err := s.cfg.Codec.Marshal(resp)
	if err != nil {
		return err
	}
	return f.WriteMessage(data)
}
