package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/cli"
	apphttp "spendtrack/internal/http"
	applog "spendtrack/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting spendtrack", applog.FieldOperation, applog.OpStartup,
		"backend", cfg.DataBackend, "parser", cfg.ParserBackend, "events", cfg.EventsEnabled())

	res := cli.InitBackend(context.Background(), logger, cfg)

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Repository.Ping,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		_ = res.Cleanup()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
