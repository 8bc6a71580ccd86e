package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"soundlens/internal/server"
)

// Serve runs the dashboard HTTP service: auth routes, JSON data routes and
// the background session watcher.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go r.sessions.Watch(watchCtx)

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(server.NewAuthHandler(r.sessions, r.logger))
	router.Handler(server.NewAPIHandler(r.spotify, r.engine, r.sessions, r.logger))

	httpServer := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("dashboard listening at http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
