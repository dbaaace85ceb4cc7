package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"scratch-shortener/config"
	"scratch-shortener/handlers"
	"scratch-shortener/wire"
)

const (
	// acceptRetryInterval spaces out retries after a failed Accept.
	acceptRetryInterval = 50 * time.Millisecond
	// lingerTimeout bounds how long unread request bytes are drained after an error response.
	lingerTimeout = 500 * time.Millisecond
	lingerBytes   = 256 << 10
)

// ErrServerClosed is returned by Serve after Shutdown has been called.
var ErrServerClosed = errors.New("server closed")

// Server accepts TCP connections and answers one HTTP request on each.
// Every connection is served by its own goroutine.
type Server struct {
	cfg     *config.Config
	handler handlers.Handler
	logger  *zap.Logger
	backoff *rate.Limiter

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu         sync.Mutex
	listener   net.Listener
	inShutdown bool
	wg         sync.WaitGroup
	conns      sync.Map // connection id -> net.Conn
}

// New creates a Server dispatching parsed requests to handler.
func New(cfg *config.Config, handler handlers.Handler, logger *zap.Logger) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		handler:    handler,
		logger:     logger,
		backoff:    rate.NewLimiter(rate.Every(acceptRetryInterval), 1),
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called or Accept fails
// after the listener was closed. It always returns a non-nil error.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.inShutdown {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Accepting connections", zap.String("address", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			s.logger.Warn("Accept failed; retrying", zap.Error(err))
			if werr := s.backoff.Wait(s.baseCtx); werr != nil {
				return ErrServerClosed
			}
			continue
		}

		s.mu.Lock()
		if s.inShutdown {
			s.mu.Unlock()
			conn.Close()
			return ErrServerClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting connections and waits for in-flight ones to finish.
// If ctx expires first, the remaining connections are closed and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown = true
	ln := s.listener
	s.mu.Unlock()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("Error closing listener", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelBase()
		return nil
	case <-ctx.Done():
		s.logger.Warn("Grace period exceeded; closing remaining connections")
		s.cancelBase()
		s.conns.Range(func(key, value interface{}) bool {
			if conn, ok := value.(net.Conn); ok {
				conn.Close()
				s.logger.Info("Connection closed due to shutdown", zap.String("conn_id", key.(string)))
			}
			return true
		})
		<-done
		return ctx.Err()
	}
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inShutdown
}

func (s *Server) handleConnection(conn net.Conn) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("conn_id", id), zap.String("remote", conn.RemoteAddr().String()))

	s.conns.Store(id, conn)
	defer func() {
		s.conns.Delete(id)
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("Error closing connection", zap.Error(err))
		}
		s.wg.Done()
	}()

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()
	ctx = handlers.ContextWithRequestID(ctx, id)

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		logger.Warn("Error setting read deadline", zap.Error(err))
		return
	}

	req, readErr := wire.ReadRequest(bufio.NewReader(conn), s.cfg.MaxBodyBytes)

	var resp *wire.Response
	switch {
	case readErr == nil:
		resp = s.handler.Handle(ctx, req)
		if resp == nil {
			logger.Error("Handler returned no response", zap.String("method", req.Method), zap.String("path", req.Path))
			resp = errorResponse(http.StatusInternalServerError, "Internal server error")
		}
	case errors.Is(readErr, io.EOF):
		logger.Debug("Connection closed before a request was sent")
		return
	case errors.Is(readErr, wire.ErrBodyTooLarge):
		logger.Info("Request body too large", zap.Int64("limit", s.cfg.MaxBodyBytes))
		resp = errorResponse(http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(readErr, wire.ErrMalformedRequest):
		logger.Info("Malformed request", zap.Error(readErr))
		resp = errorResponse(http.StatusBadRequest, "Malformed request")
	default:
		logger.Info("Error reading request", zap.Error(readErr))
		return
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		logger.Warn("Error setting write deadline", zap.Error(err))
		return
	}
	if _, err := resp.WriteTo(conn); err != nil {
		logger.Info("Error writing response", zap.Error(err))
		return
	}

	if readErr != nil {
		lingerClose(conn)
	}
}

// lingerClose half-closes conn and drains what the client is still sending, so
// that closing with unread data does not reset the connection before the
// client has read the error response.
func lingerClose(conn net.Conn) {
	if tc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = tc.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, lingerBytes))
}

func errorResponse(status int, message string) *wire.Response {
	return wire.JSON(status, map[string]string{"error": message})
}
