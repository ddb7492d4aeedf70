// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kurtlabs/kurt/pkg/llm"
)

// DefaultExtractWorkers bounds concurrent extraction calls. Kept small to
// respect upstream LLM rate limits regardless of batch size.
const DefaultExtractWorkers = 3

// DefaultCatalogLimit bounds the existing-entity sample loaded per batch.
const DefaultCatalogLimit = 100

// CatalogSource loads the existing-entity catalog sample shown to every
// extraction call for entity resolution.
type CatalogSource interface {
	ExistingEntities(ctx context.Context, limit int) ([]CatalogRef, error)
}

// SectionExtractor runs structured extraction over batches of sections with
// a bounded worker pool.
type SectionExtractor struct {
	extractor    *llm.KnowledgeExtractor
	catalog      CatalogSource
	workers      int
	catalogLimit int
	logger       *slog.Logger
}

// NewSectionExtractor creates an extractor. workers <= 0 selects the
// default pool size.
func NewSectionExtractor(extractor *llm.KnowledgeExtractor, catalog CatalogSource, workers int, logger *slog.Logger) *SectionExtractor {
	if workers <= 0 {
		workers = DefaultExtractWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SectionExtractor{
		extractor:    extractor,
		catalog:      catalog,
		workers:      workers,
		catalogLimit: DefaultCatalogLimit,
		logger:       logger,
	}
}

// ExtractBatch extracts every section in the batch concurrently, up to the
// worker cap. The batch may span multiple documents.
//
// The catalog snapshot is loaded once and shared read-only across all
// workers. A section's failure is captured in its own result and never
// aborts siblings; results arrive in completion order, exactly one per
// input section.
func (x *SectionExtractor) ExtractBatch(ctx context.Context, sections []SectionInput) ([]ExtractionResult, error) {
	pipeMetrics.init()

	if len(sections) == 0 {
		return nil, nil
	}

	var catalog []CatalogRef
	if x.catalog != nil {
		var err error
		catalog, err = x.catalog.ExistingEntities(ctx, x.catalogLimit)
		if err != nil {
			return nil, fmt.Errorf("load entity catalog: %w", err)
		}
	}

	jobs := make(chan SectionInput)
	results := make(chan ExtractionResult, len(sections))

	var wg sync.WaitGroup
	for w := 0; w < x.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sec := range jobs {
				results <- x.extractOne(ctx, sec, catalog)
			}
		}()
	}

	for _, sec := range sections {
		jobs <- sec
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]ExtractionResult, 0, len(sections))
	var failed int
	for r := range results {
		if r.Failed() {
			failed++
		}
		out = append(out, r)
	}

	x.logger.Info("kurt.ingestion.extract.batch_done",
		"sections", len(sections),
		"failed", failed,
		"workers", x.workers)
	return out, nil
}

// extractOne runs one section through the extraction call and reconciles
// the output. Any failure becomes an error result with empty data fields.
func (x *SectionExtractor) extractOne(ctx context.Context, sec SectionInput, catalog []CatalogRef) ExtractionResult {
	result := ExtractionResult{
		DocumentID:     sec.DocumentID,
		SectionID:      sec.SectionID,
		SectionNumber:  sec.SectionNumber,
		SectionHeading: sec.Heading,
		Metadata:       SectionMetadata{},
	}

	if strings.TrimSpace(sec.Content) == "" {
		result.Err = "no content available for section"
		pipeMetrics.sectionsFailed.Inc()
		return result
	}

	existing := make([]llm.ExistingEntity, len(catalog))
	for i, ref := range catalog {
		existing[i] = llm.ExistingEntity{
			Name:        ref.Name,
			EntityType:  ref.EntityType,
			Description: ref.Description,
		}
	}

	start := time.Now()
	raw, err := x.extractor.Extract(ctx, llm.ExtractInput{
		Title:            sectionTitle(sec),
		Content:          contextualContent(sec),
		ExistingEntities: existing,
	})
	pipeMetrics.extractDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		x.logger.Warn("kurt.ingestion.extract.section_failed",
			"document_id", sec.DocumentID,
			"section", sec.SectionNumber,
			"error", err)
		result.Err = err.Error()
		pipeMetrics.sectionsFailed.Inc()
		return result
	}

	metadata, entities, relationships, claims := NormalizeExtraction(raw)
	kg, validClaims := Reconcile(entities, claims, catalog)

	result.Metadata = metadata
	result.Entities = entities
	result.Relationships = relationships
	result.Claims = validClaims
	result.KG = kg

	pipeMetrics.sectionsExtracted.Inc()
	pipeMetrics.entitiesExisting.Add(float64(len(kg.ExistingEntities)))
	pipeMetrics.entitiesNew.Add(float64(len(kg.NewEntities)))
	pipeMetrics.claimsDropped.Add(float64(kg.DroppedClaims))
	return result
}

// sectionTitle builds the title passed to the extraction call: the document
// title plus the section heading, or a positional fallback.
func sectionTitle(sec SectionInput) string {
	heading := sec.Heading
	if heading == "" {
		heading = fmt.Sprintf("Section %d", sec.SectionNumber)
	}
	if sec.DocumentTitle == "" {
		return heading
	}
	return fmt.Sprintf("%s - %s", sec.DocumentTitle, heading)
}

// contextualContent wraps the section body with bracketed overlap context.
// The overlap is only ever sent to the model; it is never persisted as part
// of the section's content.
func contextualContent(sec SectionInput) string {
	if sec.OverlapPrefix == "" && sec.OverlapSuffix == "" {
		return sec.Content
	}
	var b strings.Builder
	if sec.OverlapPrefix != "" {
		fmt.Fprintf(&b, "[PRECEDING CONTEXT]\n%s\n[END PRECEDING CONTEXT]\n\n", sec.OverlapPrefix)
	}
	b.WriteString(sec.Content)
	if sec.OverlapSuffix != "" {
		fmt.Fprintf(&b, "\n\n[FOLLOWING CONTEXT]\n%s\n[END FOLLOWING CONTEXT]", sec.OverlapSuffix)
	}
	return b.String()
}
