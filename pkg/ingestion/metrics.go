// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the ingestion pipeline.
type metricsPipeline struct {
	once sync.Once

	// Documents
	docsIndexed prometheus.Counter
	docsSkipped prometheus.Counter
	docsFailed  prometheus.Counter

	// Sections
	sectionsSplit     prometheus.Counter
	sectionsExtracted prometheus.Counter
	sectionsFailed    prometheus.Counter

	// Knowledge graph
	entitiesExisting prometheus.Counter
	entitiesNew      prometheus.Counter
	claimsDropped    prometheus.Counter

	// Durations
	splitDuration   prometheus.Histogram
	extractDuration prometheus.Histogram
	writeDuration   prometheus.Histogram
	totalDuration   prometheus.Histogram
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.docsIndexed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_documents_indexed_total", Help: "Documents fully indexed"})
		m.docsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_documents_skipped_total", Help: "Documents skipped by unchanged content hash"})
		m.docsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_documents_failed_total", Help: "Documents that failed indexing"})

		m.sectionsSplit = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_sections_split_total", Help: "Sections produced by the splitter"})
		m.sectionsExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_sections_extracted_total", Help: "Sections extracted successfully"})
		m.sectionsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_sections_failed_total", Help: "Sections whose extraction call failed"})

		m.entitiesExisting = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_entities_existing_total", Help: "Entity mentions resolved to the catalog"})
		m.entitiesNew = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_entities_new_total", Help: "New entities discovered"})
		m.claimsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "kurt_ing_claims_dropped_total", Help: "Claims dropped for invalid entity references"})

		buckets := []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.splitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kurt_ing_split_seconds", Help: "Document splitting duration", Buckets: buckets})
		m.extractDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kurt_ing_extract_seconds", Help: "Per-section extraction call duration", Buckets: buckets})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kurt_ing_write_seconds", Help: "Result write duration", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kurt_ing_total_seconds", Help: "Total pipeline run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.docsIndexed, m.docsSkipped, m.docsFailed,
			m.sectionsSplit, m.sectionsExtracted, m.sectionsFailed,
			m.entitiesExisting, m.entitiesNew, m.claimsDropped,
			m.splitDuration, m.extractDuration, m.writeDuration, m.totalDuration,
		)
	})
}
