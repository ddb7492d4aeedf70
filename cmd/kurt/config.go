// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kurtlabs/kurt/internal/errors"
	"github.com/kurtlabs/kurt/pkg/ingestion"
)

// Config is the project configuration stored in .kurt/project.yaml.
type Config struct {
	ProjectID string   `yaml:"project_id"`
	Sources   []string `yaml:"sources,omitempty"`

	LLM      LLMConfig      `yaml:"llm"`
	Split    SplitConfig    `yaml:"split"`
	Indexing IndexingConfig `yaml:"indexing"`
}

// LLMConfig selects and tunes the extraction provider. APIKey may be left
// empty and supplied via the provider's environment variable instead.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// SplitConfig holds the section splitter limits.
type SplitConfig struct {
	MaxChars       int `yaml:"max_chars"`
	OverlapChars   int `yaml:"overlap_chars"`
	MinSectionSize int `yaml:"min_section_size"`
}

// IndexingConfig tunes the extraction batch.
type IndexingConfig struct {
	ExtractWorkers int    `yaml:"extract_workers"`
	CatalogLimit   int    `yaml:"catalog_limit"`
	Mode           string `yaml:"mode"` // "delta" or "full"
}

// ConfigDir returns the .kurt directory under dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".kurt")
}

// ConfigPath returns the path to project.yaml under dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "project.yaml")
}

// DefaultConfig returns a configuration with the standard defaults.
func DefaultConfig(projectID string) *Config {
	split := ingestion.DefaultSplitConfig()
	return &Config{
		ProjectID: projectID,
		LLM: LLMConfig{
			Provider: "ollama",
		},
		Split: SplitConfig{
			MaxChars:       split.MaxChars,
			OverlapChars:   split.OverlapChars,
			MinSectionSize: split.MinSectionSize,
		},
		Indexing: IndexingConfig{
			ExtractWorkers: ingestion.DefaultExtractWorkers,
			CatalogLimit:   ingestion.DefaultCatalogLimit,
			Mode:           "delta",
		},
	}
}

// LoadConfig reads project.yaml from path, or from ./.kurt/project.yaml
// when path is empty. Returns a UserError suitable for the CLI boundary.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(
				"no kurt project found",
				fmt.Sprintf("%s does not exist", path),
				"run 'kurt init' to create one",
				err,
			)
		}
		return nil, errors.NewConfigError(
			"cannot read configuration",
			fmt.Sprintf("reading %s failed", path),
			"check file permissions",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"invalid configuration",
			fmt.Sprintf("%s is not valid YAML", path),
			"fix the file or re-run 'kurt init --force'",
			err,
		)
	}

	if cfg.ProjectID == "" {
		return nil, errors.NewConfigError(
			"invalid configuration",
			"project_id is missing",
			"set project_id in "+path,
			nil,
		)
	}

	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func applyConfigDefaults(cfg *Config) {
	defaults := DefaultConfig(cfg.ProjectID)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaults.LLM.Provider
	}
	if cfg.Split.MaxChars == 0 {
		cfg.Split = defaults.Split
	}
	if cfg.Indexing.ExtractWorkers == 0 {
		cfg.Indexing.ExtractWorkers = defaults.Indexing.ExtractWorkers
	}
	if cfg.Indexing.CatalogLimit == 0 {
		cfg.Indexing.CatalogLimit = defaults.Indexing.CatalogLimit
	}
	if cfg.Indexing.Mode == "" {
		cfg.Indexing.Mode = defaults.Indexing.Mode
	}
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SplitOptions converts the YAML split settings to the splitter's config.
func (c *Config) SplitOptions() ingestion.SplitConfig {
	return ingestion.SplitConfig{
		MaxChars:       c.Split.MaxChars,
		OverlapChars:   c.Split.OverlapChars,
		MinSectionSize: c.Split.MinSectionSize,
	}
}
