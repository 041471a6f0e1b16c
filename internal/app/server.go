package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erg0nix/sessiontab/internal/config"
	"github.com/erg0nix/sessiontab/internal/httpapi"
	"github.com/erg0nix/sessiontab/internal/rpc"
)

const drainTimeout = 5 * time.Second

// RunServer serves sessions over gRPC on cfg.Bind and over REST on
// cfg.HTTPBind until a signal or a Shutdown call arrives.
func RunServer(cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return Serve(ctx, cfg, logger)
}

// Serve runs the daemon until ctx is done or a client requests shutdown.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	services, err := NewServices(cfg)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	grpcListener, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", cfg.Bind, err)
	}

	var httpListener net.Listener
	if cfg.HTTPBind != "" {
		httpListener, err = net.Listen("tcp", cfg.HTTPBind)
		if err != nil {
			grpcListener.Close()
			return fmt.Errorf("server: listen %s: %w", cfg.HTTPBind, err)
		}
	}

	pidFile := PIDFile(cfg.DataDir)
	if err := writePIDFile(pidFile); err != nil {
		logger.Warn("failed to write PID file", "error", err)
	}
	defer os.Remove(pidFile)

	shutdownCh := make(chan struct{}, 1)
	requestShutdown := func() {
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
	}

	grpcServer := rpc.NewServer(services.Metrics,
		&rpc.SessionHandler{Source: services.Source, Logger: logger, Failures: services.Metrics.ListFailures},
		&rpc.DaemonHandler{Config: cfg, StartTime: time.Now(), StopFunc: requestShutdown},
	)

	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("server: grpc: %w", err)
		}
	}()
	logger.Info("grpc listening", "address", grpcListener.Addr().String(), "backend", cfg.Backend)

	var httpServer *http.Server
	if httpListener != nil {
		httpServer = &http.Server{
			Handler:           httpapi.NewServer(services.Source, services.Metrics, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server: http: %w", err)
			}
		}()
		logger.Info("http listening", "address", httpListener.Addr().String())
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case <-shutdownCh:
		logger.Info("shutdown requested via rpc")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(drainCtx); err != nil {
			logger.Warn("http drain failed", "error", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-drainCtx.Done():
		logger.Warn("drain timeout, forcing shutdown")
		grpcServer.Stop()
	}

	return runErr
}
