// Package server wires the URL shortener together and runs its listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"scratch-shortener/admin"
	"scratch-shortener/auth"
	"scratch-shortener/config"
	"scratch-shortener/handlers"
	"scratch-shortener/services"
	"scratch-shortener/storage"
)

// Run starts the shortener and blocks until SIGINT or SIGTERM, then shuts down gracefully.
func Run(logger *zap.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, logger, cfg, nil)
}

// run is Run with an explicit stop context. ready, when set, receives the bound
// public and admin addresses once both listeners are up; adminAddr is nil when
// the admin endpoint is disabled.
func run(ctx context.Context, logger *zap.Logger, cfg *config.Config, ready func(publicAddr, adminAddr net.Addr)) error {
	store := storage.NewInMemoryStorage(cfg.StoreSizeHint, logger)
	urlService := services.NewURLService(store)

	router, err := setupRouter(urlService, cfg, logger)
	if err != nil {
		return err
	}
	srv := New(cfg, router, logger)

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Address(), err)
	}

	var (
		adminSrv  *http.Server
		adminLn   net.Listener
		adminAddr net.Addr
	)
	if cfg.AdminAddr != "" {
		adminLn, err = net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen on admin address %s: %w", cfg.AdminAddr, err)
		}
		adminSrv = admin.NewServer(cfg.AdminAddr, urlService, logger)
		adminAddr = adminLn.Addr()
	}

	errCh := make(chan error, 2)
	go startServer(srv, ln, logger, errCh)
	if adminSrv != nil {
		go startAdminServer(adminSrv, adminLn, logger, errCh)
	}

	if ready != nil {
		ready(ln.Addr(), adminAddr)
	}

	return waitForShutdown(ctx, srv, adminSrv, cfg.ShutdownTimeout, logger, errCh)
}

func setupRouter(service services.URLService, cfg *config.Config, logger *zap.Logger) (*handlers.Router, error) {
	router, err := handlers.NewRouter(service, auth.NewBasicAuth(cfg.Credentials), cfg, logger)
	if err != nil {
		logger.Error("Failed to create router", zap.Error(err))
		return nil, err
	}

	logger.Debug("Router created successfully")
	return router, nil
}

func startServer(srv *Server, ln net.Listener, logger *zap.Logger, errCh chan<- error) {
	logger.Debug("Starting server", zap.String("address", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, ErrServerClosed) {
		logger.Error("Server error", zap.Error(err))
		errCh <- err
	}
	logger.Debug("Server stopped")
}

func startAdminServer(srv *http.Server, ln net.Listener, logger *zap.Logger, errCh chan<- error) {
	logger.Info("Starting admin server", zap.String("address", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Admin server error", zap.Error(err))
		errCh <- err
	}
	logger.Debug("Admin server stopped")
}

// waitForShutdown blocks until ctx is done or a server fails, then shuts both servers down.
func waitForShutdown(ctx context.Context, srv *Server, adminSrv *http.Server, grace time.Duration, logger *zap.Logger, errCh <-chan error) error {
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal. Initiating server shutdown...")
	case serveErr = <-errCh:
		logger.Error("Server failed. Initiating shutdown...", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin server forced to shutdown", zap.Error(err))
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		if serveErr == nil {
			serveErr = err
		}
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Info("Server gracefully stopped")
	return nil
}
