// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/pkg/ingestion"
)

// runWorker executes the 'worker' command, a long-running process that
// periodically runs a delta index so newly registered or changed documents
// are picked up without manual 'kurt index' invocations.
//
// Each iteration is tagged with a worker run ID so rows written by the
// scheduler can be told apart from interactive runs.
//
// Flags:
//   - --interval: time between delta runs (default 5m)
//   - --once: run a single iteration and exit
//   - --stage-timeout: per-stage execution timeout
//   - --metrics-addr: HTTP address for Prometheus metrics
//   - --debug: enable debug logging
func runWorker(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	interval := fs.Duration("interval", 5*time.Minute, "Time between delta index runs")
	once := fs.Bool("once", false, "Run a single iteration and exit")
	stageTimeout := fs.Duration("stage-timeout", 30*time.Minute, "Per-stage execution timeout")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt worker [options]

Runs a background indexing worker that performs a delta index on a fixed
interval. Intended for cron-less setups and container deployments; pair it
with --metrics-addr to scrape run metrics.

Options:
%s
Examples:
  # Re-index every 10 minutes, exposing metrics
  kurt worker --interval 10m --metrics-addr :9102

  # One scheduled-style run, then exit
  kurt worker --once

`, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("worker.metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker.metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("worker.shutdown.signal", "signal", sig.String())
		cancel()
	}()

	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID}, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot open project database",
			err.Error(),
			"run 'kurt init' first",
			err,
		), globals.JSON)
	}
	defer func() { _ = backend.Close() }()

	logger.Info("worker.start",
		"project_id", cfg.ProjectID,
		"interval", (*interval).String(),
		"once", *once,
	)

	iteration := 0
	failures := 0
	for {
		iteration++
		runID := fmt.Sprintf("worker-%d-%s", iteration, time.Now().UTC().Format("20060102T150405"))

		logger.Info("worker.run.start", "iteration", iteration, "run_id", runID)
		summary, err := runStagePlan(ctx, logger, cfg, backend, ingestion.ModeDelta,
			cfg.Indexing.ExtractWorkers, *stageTimeout, runID)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker.stop", "reason", "shutdown")
				return
			}
			failures++
			logger.Error("worker.run.error", "iteration", iteration, "err", err, "failures", failures)
		} else {
			failures = 0
			if summary != nil {
				logger.Info("worker.run.done",
					"iteration", iteration,
					"run_id", summary.RunID,
					"indexed", summary.DocumentsIndexed,
					"skipped", summary.DocumentsSkipped,
					"failed", summary.DocumentsFailed,
					"duration", summary.Duration.String(),
				)
			}
		}

		if *once {
			if err != nil {
				os.Exit(errors.ExitInternal)
			}
			return
		}

		select {
		case <-ctx.Done():
			logger.Info("worker.stop", "reason", "shutdown")
			return
		case <-time.After(*interval):
		}
	}
}
