// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package ui provides color output helpers for the kurt CLI.
//
// Colors respect the --no-color flag and the NO_COLOR environment variable,
// and are disabled automatically when output is not a TTY.
//
// Color usage guidelines:
//   - Red: errors, failures
//   - Yellow: warnings
//   - Green: success, completions
//   - Cyan: info, counts
//   - Bold: headers, labels
//   - Dim: paths and secondary detail
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output. Call early in main() after
// flag parsing so all output respects --no-color.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green message with a checkmark prefix.
func Success(msg string) {
	_, _ = Green.Println("✓ " + msg)
}

// Successf prints a formatted green message with a checkmark prefix.
func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Warning prints a yellow message with a warning symbol prefix.
func Warning(msg string) {
	_, _ = Yellow.Println("⚠ " + msg)
}

// Warningf prints a formatted yellow message with a warning symbol prefix.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red message with an X prefix.
func Error(msg string) {
	_, _ = Red.Println("✗ " + msg)
}

// Errorf prints a formatted red message with an X prefix.
func Errorf(format string, args ...any) {
	_, _ = Red.Printf("✗ "+format+"\n", args...)
}

// Info prints a cyan message with an info symbol prefix.
func Info(msg string) {
	_, _ = Cyan.Println("ℹ " + msg)
}

// Infof prints a formatted cyan message with an info symbol prefix.
func Infof(format string, args ...any) {
	_, _ = Cyan.Printf("ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
func SubHeader(text string) {
	_, _ = Bold.Println(text)
}

// Label returns a bold-formatted label for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for secondary text.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count for statistics display.
func CountText(count int) string {
	return Cyan.Sprint(count)
}
