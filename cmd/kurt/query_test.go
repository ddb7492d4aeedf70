// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"short string", "hello", "hello"},
		{"integral float", float64(42), "42"},
		{"fractional float", 0.857, "0.86"},
		{"nil", nil, "<null>"},
		{"int64", int64(7), "7"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCell(tt.in); got != tt.want {
				t.Errorf("formatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCellTruncation(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := formatCell(long)
	if len(got) != 60 {
		t.Errorf("len = %d, want 60", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}
