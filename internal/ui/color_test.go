// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"testing"

	"github.com/fatih/color"
)

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	InitColors(true)
	if !color.NoColor {
		t.Error("InitColors(true) should disable colors")
	}

	InitColors(false)
	if color.NoColor {
		t.Error("InitColors(false) should enable colors")
	}
}

func TestPlainFormatting(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	if got := Label("Project:"); got != "Project:" {
		t.Errorf("Label() = %q, want %q", got, "Project:")
	}
	if got := DimText("/path/to/data"); got != "/path/to/data" {
		t.Errorf("DimText() = %q, want %q", got, "/path/to/data")
	}
	if got := CountText(42); got != "42" {
		t.Errorf("CountText() = %q, want %q", got, "42")
	}
}
