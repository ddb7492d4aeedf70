// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package output provides consistent machine-readable output for the CLI.
//
// It handles JSON encoding for --json mode across all kurt commands and
// complements the ui package, which covers human-readable output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes data as pretty-printed JSON to stdout. This is the standard
// format for --json output in kurt commands.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as pretty-printed JSON to w.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompact writes data as compact JSON to stdout, suitable for
// streaming output.
func JSONCompact(data any) error {
	return JSONCompactTo(os.Stdout, data)
}

// JSONCompactTo writes data as compact JSON to w.
func JSONCompactTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// ErrorJSON represents an error in JSON format for machine consumption.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONError writes an error as JSON to stderr.
func JSONError(err error) error {
	return JSONErrorTo(os.Stderr, err)
}

// JSONErrorTo writes an error as JSON to w.
func JSONErrorTo(w io.Writer, err error) error {
	errObj := ErrorJSON{Error: err.Error()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(errObj); encErr != nil {
		return fmt.Errorf("JSON error encoding failed: %w", encErr)
	}
	return nil
}
