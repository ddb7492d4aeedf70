// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/internal/output"
	"github.com/kurtlabs/kurt/internal/ui"
	"github.com/kurtlabs/kurt/pkg/storage"
)

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	ProjectID string                      `json:"project_id"`
	Documents []storage.DocumentStatusRow `json:"documents"`
	Counts    map[string]int              `json:"counts"`
	Error     string                      `json:"error,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
}

// runStatus executes the 'status' command, showing each document's derived
// pipeline status plus aggregate counts.
//
// Status is computed from the stage tables, never stored: a document with
// extraction rows is INDEXED, one with a recorded fetch error is ERROR,
// one with content but no extractions is FETCHED, otherwise NOT_FETCHED.
//
// Flags:
//   - --json: output as JSON
//   - --doc: restrict to one document ID
//
// Examples:
//
//	kurt status
//	kurt status --json
//	kurt status --doc doc:guide.md
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	docID := fs.String("doc", "", "Show status for a single document ID")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt status [options]

Shows per-document pipeline status and knowledge counts.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	globals.JSON = *jsonOutput

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID}, nil)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot open project database",
			err.Error(),
			"run 'kurt init' first, then 'kurt fetch' and 'kurt index'",
			err,
		), globals.JSON)
	}
	defer func() { _ = backend.Close() }()

	ctx := context.Background()

	if *docID != "" {
		status, err := backend.GetDocumentStatus(ctx, *docID)
		if err != nil {
			errors.FatalError(errors.NewNotFoundError(
				"document not found",
				fmt.Sprintf("no document with ID %q", *docID),
				"run 'kurt status' to list known documents",
			), globals.JSON)
		}
		if globals.JSON {
			_ = output.JSON(map[string]string{"document_id": *docID, "status": string(status)})
		} else {
			fmt.Printf("%s\t%s\n", *docID, status)
		}
		return
	}

	rows, err := backend.ListStatuses(ctx)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot read document statuses", err.Error(), "", err), globals.JSON)
	}
	counts, err := backend.StatusCounts(ctx)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot read status counts", err.Error(), "", err), globals.JSON)
	}

	result := &StatusResult{
		ProjectID: cfg.ProjectID,
		Documents: rows,
		Counts:    make(map[string]int, len(counts)),
		Timestamp: time.Now(),
	}
	for k, v := range counts {
		result.Counts[string(k)] = v
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printStatus(result)
}

// printStatus prints the status table in a human-readable format.
func printStatus(result *StatusResult) {
	ui.Header("Kurt Project Status")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), result.ProjectID)
	fmt.Println()

	if len(result.Documents) == 0 {
		fmt.Println("No documents yet. Run 'kurt fetch <url-or-path>...' first.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DOCUMENT\tSTATUS\tSECTIONS\tFAILED")
	for _, row := range result.Documents {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
			row.DocumentID, colorStatus(row.Status), row.Sections, row.Failed)
	}
	_ = w.Flush()

	fmt.Println()
	ui.SubHeader("Totals:")
	for _, s := range []storage.DocumentStatus{
		storage.StatusIndexed, storage.StatusFetched, storage.StatusError, storage.StatusNotFetched,
	} {
		if n := result.Counts[string(s)]; n > 0 {
			fmt.Printf("  %-13s %s\n", string(s)+":", ui.CountText(n))
		}
	}
}

func colorStatus(s storage.DocumentStatus) string {
	switch s {
	case storage.StatusIndexed:
		return ui.Green.Sprint(string(s))
	case storage.StatusError:
		return ui.Red.Sprint(string(s))
	case storage.StatusFetched:
		return ui.Yellow.Sprint(string(s))
	default:
		return ui.Dim.Sprint(string(s))
	}
}
