// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package errors provides user-facing error types with actionable fixes
// and deterministic exit codes for the kurt CLI.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes used by the CLI. Scripts can branch on these.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitDatabase   = 2
	ExitNetwork    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6
	ExitInternal   = 10
)

// UserError is an error meant to be shown to a human. Besides the message
// it carries an optional cause, a suggested fix and the process exit code.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError reports a problem with the project configuration.
//
//	errors.NewConfigError(
//	    "no kurt project found",
//	    "missing .kurt/project.yaml in this directory",
//	    "run 'kurt init <name>' to create one",
//	    err)
func NewConfigError(message, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitConfig,
		Err:      err,
	}
}

// NewDatabaseError reports a failure in the local SQLite store.
func NewDatabaseError(message, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitDatabase,
		Err:      err,
	}
}

// NewNetworkError reports a failure talking to a remote host, typically
// the LLM provider or a document URL during fetch.
func NewNetworkError(message, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitNetwork,
		Err:      err,
	}
}

// NewInputError reports invalid arguments or flags.
func NewInputError(message, cause, fix string) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInput,
	}
}

// NewPermissionError reports a filesystem permission failure.
func NewPermissionError(message, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitPermission,
		Err:      err,
	}
}

// NewNotFoundError reports a missing document, section or project.
func NewNotFoundError(message, cause, fix string) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitNotFound,
	}
}

// NewInternalError reports an unexpected condition. These should be rare
// and usually indicate a bug worth reporting.
func NewInternalError(message, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  message,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInternal,
		Err:      err,
	}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for terminal output. When noColor is true or
// the NO_COLOR environment variable is set, ANSI codes are suppressed.
func (e *UserError) Format(noColor bool) string {
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}

	prev := color.NoColor
	color.NoColor = noColor
	defer func() { color.NoColor = prev }()

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the machine-readable form used with --json output.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the error to its JSON-serializable form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with its code. Non-UserError
// values exit with ExitInternal. Never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
