// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	goerrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kurtlabs/kurt/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("myproj")

	if cfg.ProjectID != "myproj" {
		t.Errorf("ProjectID = %q, want myproj", cfg.ProjectID)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.Split.MaxChars == 0 || cfg.Split.MinSectionSize == 0 {
		t.Error("expected splitter defaults to be populated")
	}
	if cfg.Indexing.ExtractWorkers != 3 {
		t.Errorf("ExtractWorkers = %d, want 3", cfg.Indexing.ExtractWorkers)
	}
	if cfg.Indexing.Mode != "delta" {
		t.Errorf("Mode = %q, want delta", cfg.Indexing.Mode)
	}
}

func TestSaveLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	cfg := DefaultConfig("roundtrip")
	cfg.Sources = []string{"https://example.com/doc", "notes/readme.md"}
	cfg.LLM.Model = "llama3.2"
	cfg.LLM.Temperature = 0.2

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.ProjectID != "roundtrip" {
		t.Errorf("ProjectID = %q, want roundtrip", loaded.ProjectID)
	}
	if len(loaded.Sources) != 2 {
		t.Errorf("Sources = %d, want 2", len(loaded.Sources))
	}
	if loaded.LLM.Model != "llama3.2" {
		t.Errorf("Model = %q, want llama3.2", loaded.LLM.Model)
	}
	if loaded.LLM.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", loaded.LLM.Temperature)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "project.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config")
	}

	var userErr *errors.UserError
	if !goerrors.As(err, &userErr) {
		t.Fatalf("expected UserError, got %T", err)
	}
	if userErr.ExitCode != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", userErr.ExitCode, errors.ExitConfig)
	}
	if userErr.Fix == "" {
		t.Error("expected a fix suggestion")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte("project_id: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	var userErr *errors.UserError
	if !goerrors.As(err, &userErr) {
		t.Fatalf("expected UserError, got %T", err)
	}
	if userErr.ExitCode != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", userErr.ExitCode, errors.ExitConfig)
	}
}

func TestLoadConfigMissingProjectID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: ollama\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing project_id")
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte("project_id: sparse\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama default", cfg.LLM.Provider)
	}
	if cfg.Split.MaxChars == 0 {
		t.Error("expected splitter defaults applied")
	}
	if cfg.Indexing.ExtractWorkers != 3 {
		t.Errorf("ExtractWorkers = %d, want 3", cfg.Indexing.ExtractWorkers)
	}
	if cfg.Indexing.Mode != "delta" {
		t.Errorf("Mode = %q, want delta", cfg.Indexing.Mode)
	}
}

func TestSplitOptions(t *testing.T) {
	cfg := DefaultConfig("p")
	cfg.Split.MaxChars = 1234

	opts := cfg.SplitOptions()
	if opts.MaxChars != 1234 {
		t.Errorf("MaxChars = %d, want 1234", opts.MaxChars)
	}
	if opts.MinSectionSize != cfg.Split.MinSectionSize {
		t.Error("MinSectionSize not carried over")
	}
}

func TestConfigPaths(t *testing.T) {
	if got := ConfigDir("/tmp/x"); got != filepath.Join("/tmp/x", ".kurt") {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := ConfigPath("/tmp/x"); got != filepath.Join("/tmp/x", ".kurt", "project.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
}
