// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/internal/ui"
	"github.com/kurtlabs/kurt/pkg/fetch"
	"github.com/kurtlabs/kurt/pkg/ingestion"
	"github.com/kurtlabs/kurt/pkg/storage"
)

// runFetch executes the 'fetch' command, loading document content from URLs
// or local files into the project database.
//
// Sources come from the command line, falling back to the sources list in
// .kurt/project.yaml. HTML content is converted to markdown on the way in.
// A failed fetch is recorded per document and never aborts the batch.
//
// Examples:
//
//	kurt fetch https://example.com/guide.html
//	kurt fetch docs/notes.md docs/design.md
//	kurt fetch                 Fetch everything listed in project.yaml
func runFetch(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Per-document fetch timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt fetch [options] [source...]

Fetches document content into the project database. Sources are URLs or
local file paths; with no arguments the sources from .kurt/project.yaml
are used.

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

	sources := fs.Args()
	if len(sources) == 0 {
		sources = cfg.Sources
	}
	if len(sources) == 0 {
		errors.FatalError(errors.NewInputError(
			"no sources to fetch",
			"no sources on the command line and none in .kurt/project.yaml",
			"pass sources as arguments or add a sources list to the config",
		), globals.JSON)
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

	ctx := context.Background()
	loader := fetch.NewLoader(*timeout, nil)
	runID := uuid.New().String()[:8]

	bar := NewProgressBar(NewProgressConfig(globals), int64(len(sources)), "fetching")

	var fetched, failed int
	for _, src := range sources {
		docID := ingestion.DocumentID(src)

		if err := backend.UpsertDocument(ctx, storage.DocumentRecord{
			DocumentID: docID,
			Source:     src,
		}); err != nil {
			ui.Errorf("%s: %v", src, err)
			failed++
			advance(bar)
			continue
		}

		res, err := loader.Load(ctx, src)
		if err != nil {
			_ = backend.RecordFetchError(ctx, docID, runID, err.Error())
			ui.Errorf("%s: %v", src, err)
			failed++
			advance(bar)
			continue
		}

		if err := backend.UpsertDocument(ctx, storage.DocumentRecord{
			DocumentID: docID,
			Source:     src,
			Title:      res.Title,
		}); err == nil {
			err = backend.RecordFetchSuccess(ctx, docID, runID, res.Content, res.ContentHash)
		}
		if err != nil {
			ui.Errorf("%s: %v", src, err)
			failed++
		} else {
			fetched++
		}
		advance(bar)
	}
	finish(bar)

	fmt.Println()
	if failed == 0 {
		ui.Successf("fetched %d document(s)", fetched)
	} else {
		ui.Warningf("fetched %d document(s), %d failed", fetched, failed)
	}
	fmt.Println()
	fmt.Println("Next: kurt index")

	if failed > 0 {
		os.Exit(errors.ExitNetwork)
	}
}
