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

	"github.com/kurtlabs/kurt/internal/bootstrap"
	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/internal/ui"
)

// runReset executes the 'reset' command, clearing indexed data so the
// next 'kurt index' rebuilds from scratch.
//
// Flags:
//   - --yes: required confirmation
//   - --doc: reset a single document instead of the whole project
//   - --keep-entities: keep the entity catalog when resetting everything
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm the reset")
	doc := fs.String("doc", "", "Reset only the given document ID")
	keepEntities := fs.Bool("keep-entities", false, "Keep the entity catalog")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt reset [options]

Clears indexed data for the current project. Fetched content, sections,
extractions, entities, relationships and claims are removed; document
registrations are kept so 'kurt index' can rebuild them.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Reset the whole project
  kurt reset --yes

  # Reset but keep the entity catalog for name stability
  kurt reset --yes --keep-entities

  # Re-index a single document from scratch
  kurt reset --yes --doc 3f9c0a1b2c3d4e5f

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*yes {
		fmt.Fprintf(os.Stderr, "Error: reset is destructive, pass --yes to confirm\n")
		os.Exit(errors.ExitInput)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *doc != "" {
		if err := backend.ClearDocument(ctx, *doc); err != nil {
			errors.FatalError(errors.NewDatabaseError(
				fmt.Sprintf("cannot reset document %s", *doc),
				err.Error(),
				"check the document ID with 'kurt status'",
				err,
			), globals.JSON)
		}
		ui.Successf("Document %s reset", *doc)
		fmt.Println()
		fmt.Println("Next: kurt index")
		return
	}

	if err := backend.ResetAll(ctx, *keepEntities); err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot reset project",
			err.Error(),
			"check that no other kurt process is running",
			err,
		), globals.JSON)
	}

	if *keepEntities {
		ui.Successf("Project %s reset (entity catalog kept)", cfg.ProjectID)
	} else {
		ui.Successf("Project %s reset", cfg.ProjectID)
	}
	fmt.Println()
	fmt.Println("Next: kurt index --full")
}
