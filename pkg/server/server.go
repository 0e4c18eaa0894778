package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/igamenovoer/blender-remote/pkg/logger"
	"github.com/igamenovoer/blender-remote/pkg/protocol"
	"github.com/igamenovoer/blender-remote/pkg/router"
)

// errRequestTooLarge marks a framing error caused by exceeding
// MaxRequestBytes, distinguishable from other read errors via errors.Is.
var errRequestTooLarge = errors.New("request too large")

// ReadTimeout is the total per-connection read timeout.
const ReadTimeout = 30 * time.Second

// AcceptBurst and AcceptRate bound a soft connection-accept throttle: a
// courtesy limiter rather than a hard concurrency cap, generous by default.
const (
	AcceptRate  = rate.Limit(500)
	AcceptBurst = 100
)

// Server is a framed JSON TCP server. It owns the listening socket
// and hands every accepted connection off to the Router.
type Server struct {
	Addr     string
	Router   *router.Router
	listener net.Listener
	limiter  *rate.Limiter
}

// New returns a Server bound to addr (host:port, loopback-only) that will
// route requests through rt.
func New(addr string, rt *router.Router) *Server {
	return &Server{
		Addr:    addr,
		Router:  rt,
		limiter: rate.NewLimiter(AcceptRate, AcceptBurst),
	}
}

// Listen binds the listening socket. It must be called before Serve. A
// non-loopback host in Addr is refused.
func (s *Server) Listen() error {
	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s.Addr, err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("refusing to bind non-loopback address %q", s.Addr)
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("port in use or unavailable: %w", err)
	}
	s.listener = ln
	return nil
}

// BoundAddr returns the actual bound address, useful when the configured port
// was 0 (OS-assigned, used by tests).
func (s *Server) BoundAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. Each accepted connection is handled on its own goroutine,
// supervised by an errgroup so that one connection can never block or
// serialize behind another.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return s.listener.Close()
	})

	g.Go(func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil // shutdown in progress, not a real failure
				}
				return fmt.Errorf("accept: %w", err)
			}
			_ = s.limiter.Wait(gctx)
			connID := uuid.NewString()
			g.Go(func() error {
				s.handleConn(gctx, conn, connID)
				return nil
			})
		}
	})

	return g.Wait()
}

// handleConn implements the per-connection lifecycle: read one request,
// route it, write one response, close.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, connID string) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	logger.Debugw("connection accepted", "conn_id", connID, "peer", peer)

	_ = conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	raw, err := readBalancedJSON(bufio.NewReader(conn))
	if err != nil {
		resp := readErrorResponse(err)
		s.writeResponse(conn, connID, resp)
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		resp := protocol.Failure(fmt.Sprintf("invalid JSON: %s", err.Error()))
		s.writeResponse(conn, connID, resp)
		return
	}

	resp := s.Router.Handle(ctx, &req)
	s.writeResponse(conn, connID, resp)
}

func readErrorResponse(err error) *protocol.Response {
	if errors.Is(err, errRequestTooLarge) {
		return protocol.Failure(err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return protocol.Failure("read timeout")
	}
	return protocol.Failure(fmt.Sprintf("invalid JSON: %s", err.Error()))
}

func (s *Server) writeResponse(conn net.Conn, connID string, resp *protocol.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		logger.Errorw("failed to marshal response", "conn_id", connID, "error", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if _, err := conn.Write(body); err != nil {
		logger.Warnw("failed to write response", "conn_id", connID, "error", err)
	}
}

// Close closes the listening socket immediately. Connections that were
// already accepted are not closed by it; each runs until its own request
// completes or its read deadline passes.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
