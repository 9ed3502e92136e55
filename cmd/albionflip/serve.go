package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/api"
	apihandler "github.com/newthinker/albionflip/internal/api/handler/api"
	"github.com/newthinker/albionflip/internal/api/job"
	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/metrics"
	"github.com/newthinker/albionflip/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scan API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger("")
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	log = newLogger(cfg.LogLevel)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	storage, err := openArchive(cfg)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	metricsPath := ""
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		metricsPath = cfg.Metrics.Path
	}

	catalog := newCatalog(cfg, storage, false, log)
	prices := newPriceRegistry(cfg)
	runners := func(region core.Region) apihandler.Runner {
		provider, ok := prices.Get(region)
		if !ok {
			return nil
		}
		return pipeline.New(catalog, provider,
			pipeline.WithLogger(log.With(zap.String("region", string(region)))),
			pipeline.WithMetrics(reg),
		)
	}

	jobs := job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour)
	scans := apihandler.NewScanHandler(jobs, runners, apihandler.ScanDefaults{
		Region:  core.ParseRegion(cfg.Region),
		Request: baseRequest(cfg),
	}, log, reg)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, api.Dependencies{Scans: scans, Metrics: reg}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("starting albionflip server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics", reg != nil),
	)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down albionflip server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
