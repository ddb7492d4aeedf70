// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/pkg/dag"
	"github.com/kurtlabs/kurt/pkg/fetch"
	"github.com/kurtlabs/kurt/pkg/ingestion"
	"github.com/kurtlabs/kurt/pkg/llm"
	"github.com/kurtlabs/kurt/pkg/storage"
)

// runIndex executes the 'index' command, driving the full stage plan:
// fetch missing content, split documents into sections, extract knowledge
// with the configured LLM provider, and roll up the knowledge tables.
//
// Stages run as a level-grouped plan built from the default registry, so
// independent stages within a level execute concurrently.
//
// Flags:
//   - --full: reprocess every document, ignoring the delta checkpoint
//   - --extract-workers: number of concurrent extraction calls
//   - --stage-timeout: per-stage execution timeout
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//   - --debug: enable debug logging
//
// Examples:
//
//	kurt index                     Incremental (delta) index
//	kurt index --full              Reprocess everything
//	kurt index --extract-workers 5 --metrics-addr :9102
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Reprocess every document, ignoring the checkpoint")
	extractWorkers := fs.Int("extract-workers", 0, "Concurrent extraction calls (default from config)")
	stageTimeout := fs.Duration("stage-timeout", 30*time.Minute, "Per-stage execution timeout")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt index [options]

Indexes the project's documents using configuration from .kurt/project.yaml.
Data is stored locally in ~/.kurt/data/<project_id>/

Options:
`)
		fs.PrintDefaults()
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
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
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

	mode := ingestion.Mode(cfg.Indexing.Mode)
	if *full {
		mode = ingestion.ModeFull
	}
	workers := cfg.Indexing.ExtractWorkers
	if *extractWorkers > 0 {
		workers = *extractWorkers
	}

	summary, err := runStagePlan(ctx, logger, cfg, backend, mode, workers, *stageTimeout, "")
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"indexing failed",
			err.Error(),
			"re-run with --debug for stage-level logs",
			err,
		), globals.JSON)
	}

	printIndexSummary(summary, backend)
}

// indexRun carries the state shared between stage functions of one run.
type indexRun struct {
	cfg     *Config
	backend *storage.Backend
	logger  *slog.Logger
	mode    ingestion.Mode
	workers int
	runID   string

	summary *ingestion.RunSummary
	refetch int
}

// runStagePlan builds the execution plan from the default registry and runs
// it level by level. runID may be empty, in which case the pipeline
// generates one.
func runStagePlan(ctx context.Context, logger *slog.Logger, cfg *Config, backend *storage.Backend, mode ingestion.Mode, workers int, stageTimeout time.Duration, runID string) (*ingestion.RunSummary, error) {
	registry := dag.DefaultRegistry()
	plan, err := registry.BuildPlan(registry.Names())
	if err != nil {
		return nil, err
	}

	run := &indexRun{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		mode:    mode,
		workers: workers,
		runID:   runID,
	}

	exec := dag.NewExecutor(stageTimeout, logger)
	exec.Register("fetch.documents", run.fetchMissing)
	exec.Register("indexing.document_sections", run.runPipeline)
	exec.Register("indexing.section_extraction", run.checkExtractions)
	exec.Register("kg.entities", run.rollup("kurt_entity"))
	exec.Register("kg.relationships", run.rollup("kurt_relationship"))
	exec.Register("kg.claims", run.rollup("kurt_claim"))

	logger.Info("kurt.index.plan", "levels", len(plan), "mode", mode)
	if _, err := exec.RunPlan(ctx, plan); err != nil {
		return nil, err
	}
	return run.summary, nil
}

// fetchMissing loads content for registered documents that have no
// successful fetch yet. Per-document failures are recorded, not fatal.
func (r *indexRun) fetchMissing(ctx context.Context) error {
	docs, err := r.backend.ListDocuments(ctx)
	if err != nil {
		return err
	}

	loader := fetch.NewLoader(0, r.logger)
	for _, doc := range docs {
		status, err := r.backend.GetDocumentStatus(ctx, doc.DocumentID)
		if err != nil {
			return err
		}
		if status != storage.StatusNotFetched && status != storage.StatusError {
			continue
		}

		res, err := loader.Load(ctx, doc.Source)
		if err != nil {
			r.logger.Warn("kurt.index.fetch_failed", "document_id", doc.DocumentID, "err", err)
			_ = r.backend.RecordFetchError(ctx, doc.DocumentID, "reindex", err.Error())
			continue
		}
		if err := r.backend.RecordFetchSuccess(ctx, doc.DocumentID, "reindex", res.Content, res.ContentHash); err != nil {
			return err
		}
		r.refetch++
	}
	return nil
}

// runPipeline splits and extracts all fetchable documents. The split and
// extraction phases share one run so the delta checkpoint stays atomic per
// document.
func (r *indexRun) runPipeline(ctx context.Context) error {
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:         r.cfg.LLM.Provider,
		BaseURL:      r.cfg.LLM.BaseURL,
		DefaultModel: r.cfg.LLM.Model,
		APIKey:       r.cfg.LLM.APIKey,
	})
	if err != nil {
		return err
	}

	extractor := llm.NewKnowledgeExtractor(provider, llm.CallOptions{
		Model:       r.cfg.LLM.Model,
		Temperature: r.cfg.LLM.Temperature,
		MaxTokens:   r.cfg.LLM.MaxTokens,
	})
	sectionExtractor := ingestion.NewSectionExtractor(extractor, r.backend, r.workers, r.logger)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	checkpoints := ingestion.NewCheckpointManager(filepath.Join(ConfigDir(cwd), "checkpoints"))

	pipeline := ingestion.NewPipeline(r.backend, sectionExtractor, checkpoints, ingestion.PipelineConfig{
		ProjectID: r.cfg.ProjectID,
		Mode:      r.mode,
		Split:     r.cfg.SplitOptions(),
		RunID:     r.runID,
	}, r.logger)

	docs, err := r.backend.ListDocuments(ctx)
	if err != nil {
		return err
	}
	inputs := make([]ingestion.Document, 0, len(docs))
	for _, d := range docs {
		inputs = append(inputs, ingestion.Document{
			DocumentID: d.DocumentID,
			Source:     d.Source,
			Title:      d.Title,
		})
	}

	summary, err := pipeline.Run(ctx, inputs)
	if err != nil {
		return err
	}
	r.summary = summary
	return nil
}

// checkExtractions verifies extraction coverage after the pipeline stage
// and surfaces lingering per-section errors.
func (r *indexRun) checkExtractions(ctx context.Context) error {
	res, err := r.backend.Query(ctx,
		`SELECT COUNT(*) FROM kurt_section_extraction WHERE error != ''`)
	if err != nil {
		return err
	}
	if len(res.Rows) > 0 {
		if n, ok := res.Rows[0][0].(int64); ok && n > 0 {
			r.logger.Warn("kurt.index.sections_with_errors", "count", n)
		}
	}
	return nil
}

// rollup returns a stage function that counts rows in a knowledge table.
func (r *indexRun) rollup(table string) dag.StageFunc {
	return func(ctx context.Context) error {
		res, err := r.backend.Query(ctx, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			return err
		}
		if len(res.Rows) > 0 {
			r.logger.Info("kurt.index.rollup", "table", table, "rows", res.Rows[0][0])
		}
		return nil
	}
}

// printIndexSummary prints the run summary and knowledge-table counts.
func printIndexSummary(summary *ingestion.RunSummary, backend *storage.Backend) {
	fmt.Println()
	fmt.Println("=== Indexing Complete ===")
	if summary != nil {
		fmt.Printf("Run ID: %s\n", summary.RunID)
		fmt.Printf("Mode: %s\n", summary.Mode)
		fmt.Printf("Documents Indexed: %d\n", summary.DocumentsIndexed)
		fmt.Printf("Documents Skipped: %d\n", summary.DocumentsSkipped)
		fmt.Printf("Documents Failed: %d\n", summary.DocumentsFailed)
		fmt.Printf("Sections: %d\n", summary.SectionsTotal)
		if summary.SectionsFailed > 0 {
			fmt.Printf("Sections Failed: %d\n", summary.SectionsFailed)
		}
		fmt.Printf("Duration: %s\n", summary.Duration)

		if len(summary.Errors) > 0 {
			fmt.Println("\nErrors:")
			for _, e := range summary.Errors {
				fmt.Printf("  %s\n", e)
			}
		}
	}

	ctx := context.Background()
	fmt.Println("\nKnowledge:")
	for _, table := range []string{"kurt_entity", "kurt_relationship", "kurt_claim"} {
		res, err := backend.Query(ctx, "SELECT COUNT(*) FROM "+table)
		if err != nil || len(res.Rows) == 0 {
			continue
		}
		fmt.Printf("  %-18s %v\n", table+":", res.Rows[0][0])
	}

	homeDir, _ := os.UserHomeDir()
	fmt.Printf("\nData stored in: %s\n", filepath.Join(homeDir, ".kurt", "data"))
}
