package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"recorss/internal/handler"
	transport "recorss/internal/http"
	"recorss/internal/logger"
	"recorss/internal/scheduler"
	"recorss/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated feeds and refresh them periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		feedHandler := handler.NewFeedHandler(ctx, a.refresh, a.cfg.OutputDir, a.cfg.Pipeline.Host)
		defer feedHandler.Wait()

		router := transport.NewRouter(
			handler.NewItemHandler(service.NewItemService(a.items)),
			feedHandler,
		)

		sched := scheduler.New(a.refresh, a.cfg.Pipeline.Interval)
		sched.Start(ctx)
		defer sched.Stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "module", "app", "action", "start", "resource", "http", "result", "ok", "addr", a.cfg.Addr)
			errCh <- router.Start(a.cfg.Addr)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down", "module", "app", "action", "stop", "resource", "http", "result", "ok")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	},
}
