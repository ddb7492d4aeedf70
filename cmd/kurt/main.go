// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements the kurt CLI for ingesting documents and building
// a knowledge graph from them.
//
// Usage:
//
//	kurt init                     Create .kurt/project.yaml configuration
//	kurt fetch [source...]        Fetch document content
//	kurt index                    Split, extract, and store knowledge
//	kurt status [--json]          Show per-document pipeline status
//	kurt query <sql> [--json]     Execute a read-only SQL query
//	kurt worker                   Run the indexer in a loop
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kurtlabs/kurt/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries flags that apply across subcommands.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .kurt/project.yaml (default: ./.kurt/project.yaml)")
		quiet       = flag.Bool("q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Kurt - document knowledge indexer

Kurt fetches documents, splits them into sections, extracts entities,
relationships, and claims with an LLM, and stores the result in a local
knowledge base you can query.

Usage:
  kurt <command> [options]

Commands:
  init      Create .kurt/project.yaml configuration
  fetch     Fetch document content from configured sources
  index     Split, extract, and store knowledge
  status    Show per-document pipeline status
  query     Execute a read-only SQL query against the project database
  reset     Reset local project data (destructive!)
  worker    Run the indexer in a loop

Global Options:
  --config      Path to .kurt/project.yaml
  --no-color    Disable colored output
  -q            Suppress progress output
  --version     Show version and exit

Examples:
  kurt init                            Create configuration interactively
  kurt fetch https://example.com/guide.html docs/notes.md
  kurt index                           Incremental (delta) index
  kurt index --full                    Reprocess every document
  kurt status --json                   Output status as JSON
  kurt query "SELECT name, entity_type FROM kurt_entity" --limit 20

Getting Started:
  1. Initialize configuration:  kurt init
  2. Fetch your documents:      kurt fetch <url-or-path>...
  3. Index them:                kurt index
  4. Inspect the result:        kurt status

Data Storage:
  Data is stored locally in ~/.kurt/data/<project_id>/

Environment Variables:
  OLLAMA_HOST        Ollama URL (default: http://localhost:11434)
  OPENAI_API_KEY     API key for openai-compatible providers
  ANTHROPIC_API_KEY  API key for the anthropic provider

For detailed command help: kurt <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("kurt version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		Quiet:   *quiet,
		NoColor: *noColor,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "fetch":
		runFetch(cmdArgs, *configPath, globals)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	case "worker":
		runWorker(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
