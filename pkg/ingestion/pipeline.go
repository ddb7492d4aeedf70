// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package ingestion implements the document indexing pipeline: splitting
// documents into sections, extracting knowledge-graph data per section with
// a bounded worker pool, and reconciling the results against the entity
// catalog.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kurtlabs/kurt/internal/contract"
)

// Mode selects between reprocessing everything and skipping unchanged
// documents.
type Mode string

const (
	// ModeFull reprocesses every document regardless of prior state.
	ModeFull Mode = "full"
	// ModeDelta skips documents whose content hash matches the checkpoint.
	ModeDelta Mode = "delta"
)

// DocumentStore is the persistence surface the pipeline needs. The storage
// backend implements it.
type DocumentStore interface {
	CatalogSource
	FetchedContent(ctx context.Context, documentID string) (content, contentHash string, err error)
	ReplaceSections(ctx context.Context, documentID, runID string, sections []DocumentSection) error
	WriteExtractionResults(ctx context.Context, runID string, results []ExtractionResult) error
}

// Document identifies one document to index.
type Document struct {
	DocumentID string
	Source     string
	Title      string
}

// PipelineConfig configures an indexing run.
type PipelineConfig struct {
	ProjectID string
	Mode      Mode
	Split     SplitConfig

	// RunID overrides the generated run identifier when set. Useful for
	// correlating runs driven by an external scheduler.
	RunID string
}

// RunSummary reports what an indexing run did. Skips are counted apart from
// failures: a delta skip is a no-op, not an error.
type RunSummary struct {
	RunID            string        `json:"run_id"`
	Mode             Mode          `json:"mode"`
	DocumentsTotal   int           `json:"documents_total"`
	DocumentsIndexed int           `json:"documents_indexed"`
	DocumentsSkipped int           `json:"documents_skipped"`
	DocumentsFailed  int           `json:"documents_failed"`
	SectionsTotal    int           `json:"sections_total"`
	SectionsFailed   int           `json:"sections_failed"`
	Duration         time.Duration `json:"duration"`
	Errors           []string      `json:"errors,omitempty"`
}

// Pipeline drives an indexing run end to end.
type Pipeline struct {
	store       DocumentStore
	extractor   *SectionExtractor
	checkpoints *CheckpointManager
	cfg         PipelineConfig
	logger      *slog.Logger
}

// NewPipeline creates a pipeline. checkpoints may be nil, which disables
// delta skipping.
func NewPipeline(store DocumentStore, extractor *SectionExtractor, checkpoints *CheckpointManager, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if cfg.Mode == "" {
		cfg.Mode = ModeDelta
	}
	if cfg.Split.MaxChars == 0 {
		cfg.Split = DefaultSplitConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:       store,
		extractor:   extractor,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run indexes the given documents: load fetched content, split, extract
// concurrently, then persist everything after the concurrent phase is done.
func (p *Pipeline) Run(ctx context.Context, docs []Document) (*RunSummary, error) {
	pipeMetrics.init()
	start := time.Now()
	defer func() { pipeMetrics.totalDuration.Observe(time.Since(start).Seconds()) }()

	runID := p.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()[:8]
	}
	if v := contract.ValidateRunID(runID); !v.OK {
		return nil, fmt.Errorf("invalid run id: %s", v.Message)
	}

	summary := &RunSummary{
		RunID:          runID,
		Mode:           p.cfg.Mode,
		DocumentsTotal: len(docs),
	}

	checkpoint := &Checkpoint{ProjectID: p.cfg.ProjectID, DocumentHashes: map[string]string{}}
	if p.checkpoints != nil {
		cp, err := p.checkpoints.Load(p.cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		checkpoint = cp
	}

	p.logger.Info("kurt.ingestion.run_start",
		"run_id", summary.RunID,
		"mode", p.cfg.Mode,
		"documents", len(docs))

	var inputs []SectionInput
	docHashes := map[string]string{}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		content, hash, err := p.store.FetchedContent(ctx, doc.DocumentID)
		if err != nil {
			summary.DocumentsFailed++
			summary.Errors = append(summary.Errors, err.Error())
			pipeMetrics.docsFailed.Inc()
			p.logger.Warn("kurt.ingestion.step.load_failed",
				"document_id", doc.DocumentID,
				"error", err)
			continue
		}

		if p.cfg.Mode == ModeDelta && checkpoint.DocumentHashes[doc.DocumentID] == hash {
			summary.DocumentsSkipped++
			pipeMetrics.docsSkipped.Inc()
			p.logger.Debug("kurt.ingestion.step.delta_skip",
				"document_id", doc.DocumentID,
				"content_hash", hash)
			continue
		}

		splitStart := time.Now()
		sections := SplitDocument(content, p.cfg.Split)
		pipeMetrics.splitDuration.Observe(time.Since(splitStart).Seconds())
		pipeMetrics.sectionsSplit.Add(float64(len(sections)))

		if err := p.store.ReplaceSections(ctx, doc.DocumentID, summary.RunID, sections); err != nil {
			summary.DocumentsFailed++
			summary.Errors = append(summary.Errors, err.Error())
			pipeMetrics.docsFailed.Inc()
			continue
		}

		for _, s := range sections {
			inputs = append(inputs, SectionInput{
				DocumentID:    doc.DocumentID,
				DocumentTitle: doc.Title,
				SectionID:     s.SectionID,
				SectionNumber: s.SectionNumber,
				Heading:       s.Heading,
				Content:       s.Content,
				OverlapPrefix: s.OverlapPrefix,
				OverlapSuffix: s.OverlapSuffix,
			})
		}
		docHashes[doc.DocumentID] = hash
	}
	summary.SectionsTotal = len(inputs)

	results, err := p.extractor.ExtractBatch(ctx, inputs)
	if err != nil {
		return summary, fmt.Errorf("extract batch: %w", err)
	}

	writeStart := time.Now()
	if err := p.store.WriteExtractionResults(ctx, summary.RunID, results); err != nil {
		return summary, fmt.Errorf("write results: %w", err)
	}
	pipeMetrics.writeDuration.Observe(time.Since(writeStart).Seconds())

	failedByDoc := map[string]int{}
	for _, r := range results {
		if r.Failed() {
			summary.SectionsFailed++
			failedByDoc[r.DocumentID]++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s section %d: %s",
				r.DocumentID, r.SectionNumber, truncate(r.Err, 120)))
		}
	}

	// Only documents with no failed sections advance the checkpoint, so a
	// later delta run retries everything that went wrong here.
	for docID, hash := range docHashes {
		if failedByDoc[docID] > 0 {
			summary.DocumentsFailed++
			pipeMetrics.docsFailed.Inc()
			continue
		}
		summary.DocumentsIndexed++
		pipeMetrics.docsIndexed.Inc()
		checkpoint.DocumentHashes[docID] = hash
	}

	if p.checkpoints != nil {
		checkpoint.LastRunID = summary.RunID
		if err := p.checkpoints.Save(checkpoint); err != nil {
			return summary, fmt.Errorf("save checkpoint: %w", err)
		}
	}

	summary.Duration = time.Since(start)
	p.logger.Info("kurt.ingestion.run_done",
		"run_id", summary.RunID,
		"indexed", summary.DocumentsIndexed,
		"skipped", summary.DocumentsSkipped,
		"failed", summary.DocumentsFailed,
		"sections", summary.SectionsTotal,
		"sections_failed", summary.SectionsFailed,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}
