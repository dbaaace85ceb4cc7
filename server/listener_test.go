package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scratch-shortener/config"
	"scratch-shortener/handlers"
	"scratch-shortener/handlers/mocks"
	"scratch-shortener/wire"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Credentials = config.Credentials{Username: "admin", Password: "secret"}
	return cfg
}

// startListener serves handler on a loopback port and shuts it down when the test ends.
func startListener(t *testing.T, cfg *config.Config, handler *mocks.MockHandler) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(cfg, handler, zap.NewNop())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, ErrServerClosed)
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after Shutdown")
		}
	})
	return srv, ln.Addr().String()
}

// roundTrip writes raw to a fresh connection and parses the reply.
func roundTrip(t *testing.T, addr, raw string) (*http.Response, string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))

	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServeRequest(t *testing.T) {
	handler := new(mocks.MockHandler)
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(req *wire.Request) bool {
		return req.Method == http.MethodPost && req.Path == "/" && string(req.Body) == "hello"
	})).Return(wire.Text(http.StatusOK, "ok")).Once()
	_, addr := startListener(t, testConfig(), handler)

	resp, body := roundTrip(t, addr, "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.True(t, resp.Close, "every response should close the connection")
	handler.AssertExpectations(t)
}

func TestServeRequestID(t *testing.T) {
	handler := new(mocks.MockHandler)
	handler.On("Handle", mock.MatchedBy(func(ctx context.Context) bool {
		return len(handlers.RequestIDFromContext(ctx)) == 36
	}), mock.Anything).Return(wire.NewResponse(http.StatusNoContent)).Once()
	_, addr := startListener(t, testConfig(), handler)

	resp, _ := roundTrip(t, addr, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	handler.AssertExpectations(t)
}

func TestServeErrors(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		expectedStatus int
	}{
		{
			name:           "Garbage request line",
			raw:            "GARBAGE\r\n\r\n",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unsupported protocol",
			raw:            "GET / HTTP/2.0\r\n\r\n",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Chunked body",
			raw:            "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Body over limit",
			raw:            "POST / HTTP/1.1\r\nContent-Length: 64\r\n\r\n" + strings.Repeat("x", 64),
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MaxBodyBytes = 16
			handler := new(mocks.MockHandler)
			_, addr := startListener(t, cfg, handler)

			resp, body := roundTrip(t, addr, tt.raw)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Contains(t, body, `"error"`)
			handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestServeNilResponse(t *testing.T) {
	handler := new(mocks.MockHandler)
	handler.On("Handle", mock.Anything, mock.Anything).Return((*wire.Response)(nil)).Once()
	_, addr := startListener(t, testConfig(), handler)

	resp, _ := roundTrip(t, addr, "GET /abc HTTP/1.1\r\n\r\n")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServeSilentDrops(t *testing.T) {
	t.Run("Peer closes without sending", func(t *testing.T) {
		handler := new(mocks.MockHandler)
		_, addr := startListener(t, testConfig(), handler)

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.(*net.TCPConn).CloseWrite())
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

		data, err := io.ReadAll(conn)
		assert.NoError(t, err)
		assert.Empty(t, data)
		handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("Read deadline expires", func(t *testing.T) {
		cfg := testConfig()
		cfg.ReadTimeout = 100 * time.Millisecond
		handler := new(mocks.MockHandler)
		_, addr := startListener(t, cfg, handler)

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		_, err = io.WriteString(conn, "GET / HTTP/1.1\r\n")
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

		data, err := io.ReadAll(conn)
		assert.NoError(t, err)
		assert.Empty(t, data, "a stalled client gets no response")
		handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestShutdown(t *testing.T) {
	t.Run("Waits for in-flight connections", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		handler := new(mocks.MockHandler)
		handler.On("Handle", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(wire.Text(http.StatusOK, "done")).Once()
		srv, addr := startListener(t, testConfig(), handler)

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))
		_, err = io.WriteString(conn, "GET / HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		<-started

		shutdownErr := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			shutdownErr <- srv.Shutdown(ctx)
		}()

		time.Sleep(50 * time.Millisecond)
		close(release)

		resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "done", string(body))
		require.NoError(t, <-shutdownErr)

		_, err = net.DialTimeout("tcp", addr, 500*time.Millisecond)
		assert.Error(t, err, "listener should be closed after shutdown")
	})

	t.Run("Forces close after grace period", func(t *testing.T) {
		started := make(chan struct{})
		handler := new(mocks.MockHandler)
		handler.On("Handle", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).Return(wire.Text(http.StatusOK, "late")).Once()
		srv, addr := startListener(t, testConfig(), handler)

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		_, err = io.WriteString(conn, "GET / HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		err = srv.Shutdown(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		handler.AssertExpectations(t)
	})

	t.Run("Serve after shutdown", func(t *testing.T) {
		srv := New(testConfig(), new(mocks.MockHandler), zap.NewNop())
		require.NoError(t, srv.Shutdown(context.Background()))

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		assert.ErrorIs(t, srv.Serve(ln), ErrServerClosed)
	})
}
