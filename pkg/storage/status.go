// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
)

// DocumentStatus is a document's position in the pipeline. It is a pure
// function of the stage tables and is never stored in a column: rows in
// kurt_section_extraction mean INDEXED, otherwise the kurt_fetch row
// decides between FETCHED and ERROR, and no fetch row means NOT_FETCHED.
type DocumentStatus string

const (
	StatusNotFetched DocumentStatus = "NOT_FETCHED"
	StatusFetched    DocumentStatus = "FETCHED"
	StatusError      DocumentStatus = "ERROR"
	StatusIndexed    DocumentStatus = "INDEXED"
)

// GetDocumentStatus derives one document's status from the stage tables.
// INDEXED takes precedence over the fetch row's state.
func (b *Backend) GetDocumentStatus(ctx context.Context, documentID string) (DocumentStatus, error) {
	var indexed int
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kurt_section_extraction WHERE document_id = ?`,
		documentID).Scan(&indexed)
	if err != nil {
		return "", fmt.Errorf("derive status for %s: %w", documentID, err)
	}
	if indexed > 0 {
		return StatusIndexed, nil
	}

	var status string
	err = b.db.QueryRowContext(ctx,
		`SELECT status FROM kurt_fetch WHERE document_id = ?`, documentID).Scan(&status)
	if err != nil {
		// No fetch row at all.
		return StatusNotFetched, nil
	}
	if status == "error" {
		return StatusError, nil
	}
	return StatusFetched, nil
}

// DocumentStatusRow is one line of the status report.
type DocumentStatusRow struct {
	DocumentID string         `json:"document_id"`
	Source     string         `json:"source"`
	Title      string         `json:"title"`
	Status     DocumentStatus `json:"status"`
	Sections   int            `json:"sections"`
	Failed     int            `json:"failed_sections"`
}

// ListStatuses derives the status of every registered document in one pass.
func (b *Backend) ListStatuses(ctx context.Context) ([]DocumentStatusRow, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT d.document_id, d.source, d.title,
			COALESCE(f.status, ''),
			(SELECT COUNT(*) FROM kurt_section_extraction e WHERE e.document_id = d.document_id),
			(SELECT COUNT(*) FROM kurt_section_extraction e WHERE e.document_id = d.document_id AND e.error != '')
		FROM kurt_document d
		LEFT JOIN kurt_fetch f ON f.document_id = d.document_id
		ORDER BY d.document_id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []DocumentStatusRow
	for rows.Next() {
		var r DocumentStatusRow
		var fetchStatus string
		var extracted int
		if err := rows.Scan(&r.DocumentID, &r.Source, &r.Title, &fetchStatus, &extracted, &r.Failed); err != nil {
			return nil, err
		}
		r.Sections = extracted
		switch {
		case extracted > 0:
			r.Status = StatusIndexed
		case fetchStatus == "error":
			r.Status = StatusError
		case fetchStatus == "success":
			r.Status = StatusFetched
		default:
			r.Status = StatusNotFetched
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StatusCounts aggregates document counts per derived status.
func (b *Backend) StatusCounts(ctx context.Context) (map[DocumentStatus]int, error) {
	statuses, err := b.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[DocumentStatus]int)
	for _, s := range statuses {
		counts[s.Status]++
	}
	return counts, nil
}

// indexTables are the stage tables cleared when a document's index is reset.
var indexTables = []string{
	"kurt_section_extraction",
	"kurt_section",
	"kurt_relationship",
	"kurt_claim",
}

// ClearIndex removes a document's index-stage rows so its derived status
// falls back to the fetch row's state.
func (b *Backend) ClearIndex(ctx context.Context, documentID string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range indexTables {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE document_id = ?`, table), documentID); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, documentID, err)
		}
	}
	return tx.Commit()
}

// ClearDocument removes every stage row for a document, fetch included. The
// derived status returns to NOT_FETCHED; the document registration stays.
func (b *Backend) ClearDocument(ctx context.Context, documentID string) error {
	if err := b.ClearIndex(ctx, documentID); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx,
		`DELETE FROM kurt_fetch WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear fetch for %s: %w", documentID, err)
	}
	return nil
}

// ResetAll wipes every stage table, keeping document registrations and the
// entity catalog intact only when keepEntities is set.
func (b *Backend) ResetAll(ctx context.Context, keepEntities bool) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := append([]string{}, indexTables...)
	tables = append(tables, "kurt_fetch")
	if !keepEntities {
		tables = append(tables, "kurt_entity")
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}
