// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records per-document content hashes from the last completed
// run. Delta mode compares against these to skip unchanged documents.
type Checkpoint struct {
	ProjectID      string            `json:"project_id"`
	DocumentHashes map[string]string `json:"document_hashes"` // document_id -> content_hash
	LastRunID      string            `json:"last_run_id,omitempty"`
	LastUpdateTime string            `json:"last_update_time"`
}

// CheckpointManager persists checkpoints as JSON beside the project data.
type CheckpointManager struct {
	dir string
}

// NewCheckpointManager creates a manager writing under dir.
func NewCheckpointManager(dir string) *CheckpointManager {
	return &CheckpointManager{dir: dir}
}

// Load reads the project's checkpoint. A missing checkpoint yields an empty
// one, not an error.
func (cm *CheckpointManager) Load(projectID string) (*Checkpoint, error) {
	data, err := os.ReadFile(cm.path(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return &Checkpoint{ProjectID: projectID, DocumentHashes: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if cp.DocumentHashes == nil {
		cp.DocumentHashes = map[string]string{}
	}
	return &cp, nil
}

// Save writes the checkpoint atomically (temp file + rename).
func (cm *CheckpointManager) Save(cp *Checkpoint) error {
	cp.LastUpdateTime = time.Now().UTC().Format(time.RFC3339)

	path := cm.path(cp.ProjectID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Clear removes the project's checkpoint so the next run reprocesses
// everything.
func (cm *CheckpointManager) Clear(projectID string) error {
	err := os.Remove(cm.path(projectID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

func (cm *CheckpointManager) path(projectID string) string {
	return filepath.Join(cm.dir, projectID+".checkpoint.json")
}
