// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package contract defines size limits for content sent to LLM providers
// and validates payloads against them before a request leaves the process.
package contract

import (
	"os"
	"strconv"
)

const (
	// DefaultSoftLimitBytes is the baseline soft limit for a single
	// extraction prompt, section content plus overlap context included.
	DefaultSoftLimitBytes = 256 << 10 // 256 KiB

	// RunIDMaxBytes is the maximum length for the run_id field.
	RunIDMaxBytes = 64
)

// SoftLimitBytes returns the effective soft limit for prompt size.
// Controlled via env KURT_SOFT_LIMIT_BYTES; falls back to DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("KURT_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidatePrompt checks an extraction prompt against the soft size limit.
func ValidatePrompt(prompt string) *ValidationResult {
	if len(prompt) > SoftLimitBytes() {
		return &ValidationResult{
			OK:      false,
			Message: "extraction prompt exceeds soft limit",
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateRunID checks a run identifier for length and emptiness.
func ValidateRunID(runID string) *ValidationResult {
	if runID == "" {
		return &ValidationResult{OK: false, Message: "run_id is empty"}
	}
	if len(runID) > RunIDMaxBytes {
		return &ValidationResult{OK: false, Message: "run_id exceeds maximum length"}
	}
	return &ValidationResult{OK: true}
}
