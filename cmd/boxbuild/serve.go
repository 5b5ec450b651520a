package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/boxbuild/internal/api"
	"github.com/creamcroissant/boxbuild/internal/bootstrap"
	"github.com/creamcroissant/boxbuild/internal/job"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the build HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := openApp(ctx, registry)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	scheduler := job.NewScheduler(logger, time.Minute)
	if a.packages != nil && cfg.Packages.RefreshSchedule != "" {
		if _, err := scheduler.Register(cfg.Packages.RefreshSchedule, a.packages); err != nil {
			return err
		}
	}
	scheduler.Start()

	router := api.NewRouter(logger, api.Services{
		Builds: a.builds,
		Cache:  a.cache,
	}, cfg.HTTP, cfg.Metrics, api.Options{Registry: registry})
	server := bootstrap.NewHTTPServer(cfg.HTTP, router)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "env", cfg.Log.Environment, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited cleanly")
	return nil
}
