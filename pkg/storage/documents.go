// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kurtlabs/kurt/pkg/ingestion"
)

// DocumentRecord is one registered source document.
type DocumentRecord struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Title      string `json:"title"`
}

// UpsertDocument registers a document, updating its source and title when
// it already exists.
func (b *Backend) UpsertDocument(ctx context.Context, doc DocumentRecord) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kurt_document (document_id, source, title) VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET source = excluded.source, title = excluded.title`,
		doc.DocumentID, doc.Source, doc.Title)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.DocumentID, err)
	}
	return nil
}

// ListDocuments returns all registered documents ordered by ID.
func (b *Backend) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT document_id, source, title FROM kurt_document ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.DocumentID, &d.Source, &d.Title); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// RecordFetchSuccess stores fetched content for a document, replacing any
// prior fetch row.
func (b *Backend) RecordFetchSuccess(ctx context.Context, documentID, runID, content, contentHash string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kurt_fetch (document_id, run_id, content, content_hash, status, error, fetched_at)
		VALUES (?, ?, ?, ?, 'success', '', datetime('now'))
		ON CONFLICT(document_id) DO UPDATE SET
			run_id = excluded.run_id, content = excluded.content,
			content_hash = excluded.content_hash, status = 'success',
			error = '', fetched_at = excluded.fetched_at`,
		documentID, runID, content, contentHash)
	if err != nil {
		return fmt.Errorf("record fetch for %s: %w", documentID, err)
	}
	return nil
}

// RecordFetchError stores a failed fetch attempt.
func (b *Backend) RecordFetchError(ctx context.Context, documentID, runID, errMsg string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kurt_fetch (document_id, run_id, content, content_hash, status, error, fetched_at)
		VALUES (?, ?, '', '', 'error', ?, datetime('now'))
		ON CONFLICT(document_id) DO UPDATE SET
			run_id = excluded.run_id, content = '', content_hash = '',
			status = 'error', error = excluded.error, fetched_at = excluded.fetched_at`,
		documentID, runID, errMsg)
	if err != nil {
		return fmt.Errorf("record fetch error for %s: %w", documentID, err)
	}
	return nil
}

// FetchedContent returns the successfully fetched content and its hash. A
// missing or errored fetch row yields an error naming the document.
func (b *Backend) FetchedContent(ctx context.Context, documentID string) (string, string, error) {
	var content, hash, status, fetchErr string
	err := b.db.QueryRowContext(ctx,
		`SELECT content, content_hash, status, error FROM kurt_fetch WHERE document_id = ?`,
		documentID).Scan(&content, &hash, &status, &fetchErr)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("no content available for document %s (not fetched)", documentID)
	}
	if err != nil {
		return "", "", fmt.Errorf("load content for %s: %w", documentID, err)
	}
	if status != "success" {
		return "", "", fmt.Errorf("document %s fetch failed: %s", documentID, fetchErr)
	}
	return content, hash, nil
}

// ReplaceSections swaps in a freshly split section set for a document.
// Sections are never mutated in place; re-splitting replaces the whole set.
func (b *Backend) ReplaceSections(ctx context.Context, documentID, runID string, sections []ingestion.DocumentSection) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kurt_section WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear sections for %s: %w", documentID, err)
	}
	for _, s := range sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kurt_section (section_id, document_id, section_number, heading, content, start_offset, end_offset, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.SectionID, documentID, s.SectionNumber, s.Heading, s.Content, s.StartOffset, s.EndOffset, runID)
		if err != nil {
			return fmt.Errorf("insert section %s: %w", s.SectionID, err)
		}
	}
	return tx.Commit()
}

// ExistingEntities returns a bounded catalog sample for entity resolution.
// Implements the extractor's catalog source.
func (b *Backend) ExistingEntities(ctx context.Context, limit int) ([]ingestion.CatalogRef, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT entity_id, name, canonical_name, entity_type, description
		FROM kurt_entity ORDER BY name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load entity catalog: %w", err)
	}
	defer rows.Close()

	var refs []ingestion.CatalogRef
	for rows.Next() {
		var ref ingestion.CatalogRef
		var id string
		if err := rows.Scan(&id, &ref.Name, &ref.CanonicalName, &ref.EntityType, &ref.Description); err != nil {
			return nil, err
		}
		ref.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("entity %q has malformed id %q: %w", ref.Name, id, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// WriteExtractionResults persists a batch of extraction results in one
// transaction, after the concurrent phase has fully completed. Results are
// sorted before writing so persisted ordering does not depend on worker
// completion order.
//
// New entities are deduplicated against the catalog by canonical name
// before insert, so the same entity discovered in two sections lands once.
func (b *Backend) WriteExtractionResults(ctx context.Context, runID string, results []ingestion.ExtractionResult) error {
	sorted := make([]ingestion.ExtractionResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DocumentID != sorted[j].DocumentID {
			return sorted[i].DocumentID < sorted[j].DocumentID
		}
		return sorted[i].SectionNumber < sorted[j].SectionNumber
	})

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range sorted {
		if err := writeOneResult(ctx, tx, runID, &sorted[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func writeOneResult(ctx context.Context, tx *sql.Tx, runID string, r *ingestion.ExtractionResult) error {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kurt_section_extraction (document_id, section_id, section_number, heading, metadata, error, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(document_id, section_id) DO UPDATE SET
			section_number = excluded.section_number, heading = excluded.heading,
			metadata = excluded.metadata, error = excluded.error,
			run_id = excluded.run_id, created_at = excluded.created_at`,
		r.DocumentID, r.SectionID, r.SectionNumber, r.SectionHeading, string(metadata), r.Err, runID)
	if err != nil {
		return fmt.Errorf("write extraction for %s/%s: %w", r.DocumentID, r.SectionID, err)
	}

	// Clear prior knowledge rows for this section so reruns replace rather
	// than accumulate.
	for _, table := range []string{"kurt_relationship", "kurt_claim"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE document_id = ? AND section_id = ?`, table),
			r.DocumentID, r.SectionID); err != nil {
			return fmt.Errorf("clear %s for %s/%s: %w", table, r.DocumentID, r.SectionID, err)
		}
	}

	if r.Failed() || r.KG == nil {
		return nil
	}

	entityIDs, err := persistEntities(ctx, tx, runID, r)
	if err != nil {
		return err
	}

	for _, rel := range r.Relationships {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kurt_relationship (document_id, section_id, source, target, relation_type, description, confidence, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.DocumentID, r.SectionID, rel.Source, rel.Target, rel.RelationType, rel.Description, rel.Confidence, runID); err != nil {
			return fmt.Errorf("write relationship for %s/%s: %w", r.DocumentID, r.SectionID, err)
		}
	}

	for _, c := range r.Claims {
		ids := make([]string, 0, len(c.EntityIndices))
		for _, idx := range c.EntityIndices {
			if idx >= 0 && idx < len(entityIDs) {
				ids = append(ids, entityIDs[idx].String())
			}
		}
		encoded, _ := json.Marshal(ids)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kurt_claim (document_id, section_id, statement, entity_ids, quote, confidence, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.DocumentID, r.SectionID, c.Statement, string(encoded), c.Quote, c.Confidence, runID); err != nil {
			return fmt.Errorf("write claim for %s/%s: %w", r.DocumentID, r.SectionID, err)
		}
	}
	return nil
}

// persistEntities inserts the result's NEW entities and returns a stable ID
// for every position in the combined entities list, existing and new alike,
// so claim indices can be resolved to entity IDs.
func persistEntities(ctx context.Context, tx *sql.Tx, runID string, r *ingestion.ExtractionResult) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(r.Entities))
	exIdx := 0

	for i, e := range r.Entities {
		if e.Resolution == ingestion.ResolutionExisting {
			if exIdx < len(r.KG.ExistingEntities) {
				ids[i] = r.KG.ExistingEntities[exIdx]
				exIdx++
			}
			continue
		}

		canonical := strings.ToLower(strings.TrimSpace(e.Name))

		// A NEW entity may already be in the catalog when another section
		// discovered it first.
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT entity_id FROM kurt_entity WHERE canonical_name = ?`, canonical).Scan(&existing)
		if err == nil {
			if id, perr := uuid.Parse(existing); perr == nil {
				ids[i] = id
				continue
			}
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("catalog lookup for %q: %w", e.Name, err)
		}

		id := uuid.New()
		aliases, _ := json.Marshal(e.Aliases)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kurt_entity (entity_id, name, canonical_name, entity_type, description, aliases, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id.String(), e.Name, canonical, e.EntityType, e.Description, string(aliases), runID); err != nil {
			return nil, fmt.Errorf("insert entity %q: %w", e.Name, err)
		}
		ids[i] = id
	}
	return ids, nil
}
