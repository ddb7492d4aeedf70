// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kurtlabs/kurt/pkg/storage"
)

// ProjectConfig holds configuration for initializing or opening a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// DataDir is the directory where the SQLite database lives.
	// Defaults to ~/.kurt/data/<project_id>.
	DataDir string
}

// ProjectInfo describes an initialized project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
}

func resolveDataDir(config *ProjectConfig) error {
	if config.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".kurt", "data", config.ProjectID)
	}
	return nil
}

// InitProject initializes a new project database. Idempotent: calling it
// on an existing project is safe and leaves existing data intact.
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := resolveDataDir(&config); err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	backend, err := storage.Open(storage.Config{
		DataDir:   config.DataDir,
		ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	logger.Info("bootstrap.project.init.success",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		DataDir:   config.DataDir,
	}, nil
}

// OpenProject opens an existing project and returns its storage backend.
// The project must have been created with InitProject first.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*storage.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := resolveDataDir(&config); err != nil {
		return nil, err
	}

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'kurt init' first)", config.DataDir)
	}

	logger.Debug("bootstrap.project.open",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	backend, err := storage.Open(storage.Config{
		DataDir:   config.DataDir,
		ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return backend, nil
}

// ListProjects returns project IDs found in the default data directory.
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".kurt", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, nil
}
