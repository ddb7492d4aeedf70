// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kurtlabs/kurt/internal/bootstrap"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive    bool
	projectID, provider      string
	llmURL, model, llmAPIKey string
}

// runInit executes the 'init' command, creating .kurt/project.yaml and the
// project database.
//
// Examples:
//
//	kurt init                          Interactive setup
//	kurt init -y                       Use all defaults
//	kurt init --provider openai --model gpt-4o-mini
func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)

	if !flags.nonInteractive {
		runInteractiveConfig(bufio.NewReader(os.Stdin), cfg)
	}

	saveInitConfig(cwd, configPath, cfg)

	if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID}, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot initialize project database: %v\n", err)
		os.Exit(1)
	}

	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.provider, "provider", "", "LLM provider (ollama, openai, anthropic, mock)")
	fs.StringVar(&f.llmURL, "llm-url", "", "LLM API base URL")
	fs.StringVar(&f.model, "model", "", "LLM model name")
	fs.StringVar(&f.llmAPIKey, "api-key", "", "LLM API key (optional for local models)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kurt init [options]

Creates .kurt/project.yaml and the project database.

Examples:
  kurt init                              # Interactive setup
  kurt init -y                           # Non-interactive with defaults
  kurt init --provider openai --model gpt-4o-mini

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.provider != "" {
		cfg.LLM.Provider = f.provider
	}
	if f.llmURL != "" {
		cfg.LLM.BaseURL = f.llmURL
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.llmAPIKey != "" {
		cfg.LLM.APIKey = f.llmAPIKey
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("Kurt Project Configuration")
	fmt.Println("==========================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Providers: ollama, openai, anthropic, mock")
	cfg.LLM.Provider = prompt(reader, "LLM provider", cfg.LLM.Provider)
	switch cfg.LLM.Provider {
	case "ollama":
		cfg.LLM.BaseURL = prompt(reader, "Ollama URL", cfg.LLM.BaseURL)
		cfg.LLM.Model = prompt(reader, "Model", cfg.LLM.Model)
	case "openai", "anthropic":
		cfg.LLM.Model = prompt(reader, "Model", cfg.LLM.Model)
		cfg.LLM.APIKey = prompt(reader, "API key (optional, env var works too)", cfg.LLM.APIKey)
	}
	fmt.Println()
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	kurtDir := ConfigDir(cwd)
	if err := os.MkdirAll(kurtDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .kurt directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .kurt/project.yaml if needed")
	fmt.Println("  2. Run 'kurt fetch <url-or-path>...' to fetch documents")
	fmt.Println("  3. Run 'kurt index' to extract knowledge")
	fmt.Println("  4. Run 'kurt status' to verify indexing")
}

// prompt reads one line from stdin, returning defaultValue on empty input.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore appends .kurt/ to the project's .gitignore if it exists
// and does not already cover it.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from the project dir
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".kurt/" || line == ".kurt" || line == "/.kurt/" || line == "/.kurt" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from the project dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# Kurt configuration\n.kurt/\n")
	fmt.Println("Added .kurt/ to .gitignore")
}
