// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/internal/output"
	"github.com/kurtlabs/kurt/pkg/storage"
)

// runQuery executes the 'query' command, running a read-only SQL query
// against the project database.
//
// Flags:
//   - --json: output results as JSON
//   - --timeout: query timeout (default 30s)
//   - --limit: append a LIMIT clause when the query has none
//
// Examples:
//
//	kurt query "SELECT name, entity_type FROM kurt_entity" --limit 20
//	kurt query "SELECT statement FROM kurt_claim WHERE confidence > 0.8" --json
//	kurt query "SELECT COUNT(*) FROM kurt_section"
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Append LIMIT to the query (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt query [options] <sql>

Executes a read-only SQL query against the project database.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # List extracted entities
  kurt query "SELECT name, entity_type FROM kurt_entity" --limit 10

  # Claims mentioning a given entity
  kurt query "SELECT statement, quote FROM kurt_claim WHERE entity_ids LIKE '%%a1b2%%'"

  # Section counts per document
  kurt query "SELECT document_id, COUNT(*) FROM kurt_section GROUP BY document_id"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	globals.JSON = *jsonOutput

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: sql argument required\n")
		fs.Usage()
		os.Exit(errors.ExitInput)
	}

	query := strings.TrimSpace(fs.Arg(0))
	if *limit > 0 && !strings.Contains(strings.ToLower(query), "limit") {
		query = fmt.Sprintf("%s LIMIT %d", query, *limit)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID}, nil)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot open project database",
			err.Error(),
			"run 'kurt init' first",
			err,
		), globals.JSON)
	}
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := backend.Query(ctx, query)
	if err != nil {
		if globals.JSON {
			_ = output.JSONError(err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: query failed: %v\n", err)
		}
		os.Exit(errors.ExitInput)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{
			"columns": result.Columns,
			"rows":    result.Rows,
			"count":   len(result.Rows),
		})
		return
	}
	printQueryResult(result)
}

// printQueryResult prints query results as a tab-aligned table.
func printQueryResult(result *storage.QueryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for i, c := range result.Columns {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, strings.ToUpper(c))
	}
	_, _ = fmt.Fprintln(w)

	for i := range result.Columns {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, "---")
	}
	_, _ = fmt.Fprintln(w)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				_, _ = fmt.Fprint(w, "\t")
			}
			_, _ = fmt.Fprint(w, formatCell(cell))
		}
		_, _ = fmt.Fprintln(w)
	}

	_ = w.Flush()

	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

// formatCell renders a single value for terminal output, truncating long
// strings.
func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
