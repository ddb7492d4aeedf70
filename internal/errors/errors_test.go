// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "with underlying error",
			err:  &UserError{Message: "cannot open database", Err: fmt.Errorf("file locked")},
			want: "cannot open database: file locked",
		},
		{
			name: "without underlying error",
			err:  &UserError{Message: "invalid input"},
			want: "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitConfig", ExitConfig, 1},
		{"ExitDatabase", ExitDatabase, 2},
		{"ExitNetwork", ExitNetwork, 3},
		{"ExitInput", ExitInput, 4},
		{"ExitPermission", ExitPermission, 5},
		{"ExitNotFound", ExitNotFound, 6},
		{"ExitInternal", ExitInternal, 10},
	}

	for _, tt := range tests {
		if tt.code != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
		}
	}
}

func TestConstructors(t *testing.T) {
	underlying := fmt.Errorf("underlying error")

	tests := []struct {
		name         string
		err          *UserError
		wantExitCode int
		wantHasErr   bool
	}{
		{"config", NewConfigError("msg", "cause", "fix", underlying), ExitConfig, true},
		{"database", NewDatabaseError("msg", "cause", "fix", underlying), ExitDatabase, true},
		{"network", NewNetworkError("msg", "cause", "fix", underlying), ExitNetwork, true},
		{"input", NewInputError("msg", "cause", "fix"), ExitInput, false},
		{"permission", NewPermissionError("msg", "cause", "fix", underlying), ExitPermission, true},
		{"not found", NewNotFoundError("msg", "cause", "fix"), ExitNotFound, false},
		{"internal", NewInternalError("msg", "cause", "fix", underlying), ExitInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Message != "msg" || tt.err.Cause != "cause" || tt.err.Fix != "fix" {
				t.Errorf("fields = %q/%q/%q, want msg/cause/fix", tt.err.Message, tt.err.Cause, tt.err.Fix)
			}
			if tt.err.ExitCode != tt.wantExitCode {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.wantExitCode)
			}
			if (tt.err.Err != nil) != tt.wantHasErr {
				t.Errorf("has underlying error = %v, want %v", tt.err.Err != nil, tt.wantHasErr)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	t.Run("errors.Is finds sentinel through layers", func(t *testing.T) {
		sentinel := fmt.Errorf("sentinel")
		wrapped := fmt.Errorf("wrapped: %w", sentinel)
		ue := NewDatabaseError("database error", "cause", "fix", wrapped)

		if !errors.Is(ue, sentinel) {
			t.Error("errors.Is should find sentinel in chain")
		}
	})

	t.Run("errors.As extracts outer then inner", func(t *testing.T) {
		inner := NewConfigError("config error", "cause", "fix", nil)
		outer := NewDatabaseError("database error", "cause", "fix", inner)

		var ue *UserError
		if !errors.As(outer, &ue) {
			t.Fatal("errors.As should extract UserError")
		}
		if ue.ExitCode != ExitDatabase {
			t.Errorf("outer ExitCode = %d, want %d", ue.ExitCode, ExitDatabase)
		}

		var cfg *UserError
		if !errors.As(ue.Err, &cfg) {
			t.Fatal("errors.As should extract nested UserError")
		}
		if cfg.ExitCode != ExitConfig {
			t.Errorf("inner ExitCode = %d, want %d", cfg.ExitCode, ExitConfig)
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want []string
	}{
		{
			name: "full error",
			err: &UserError{
				Message: "cannot open database",
				Cause:   "the database file is locked",
				Fix:     "close other kurt processes",
			},
			want: []string{
				"Error: cannot open database",
				"Cause: the database file is locked",
				"Fix:   close other kurt processes",
			},
		},
		{
			name: "message only",
			err:  &UserError{Message: "something failed"},
			want: []string{"Error: something failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(true)
			for _, substr := range tt.want {
				if !strings.Contains(got, substr) {
					t.Errorf("Format() missing %q\ngot: %s", substr, got)
				}
			}
		})
	}
}

func TestFormatNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	err := &UserError{Message: "test error", Cause: "test cause", Fix: "test fix"}
	out := err.Format(false)

	if strings.Contains(out, "\x1b[") {
		t.Error("Format() contains ANSI codes despite NO_COLOR")
	}
}

func TestToJSON(t *testing.T) {
	err := &UserError{
		Message:  "invalid configuration",
		Cause:    "missing required field",
		Fix:      "run 'kurt init'",
		ExitCode: ExitConfig,
	}

	got := err.ToJSON()
	if got.Error != err.Message || got.Cause != err.Cause || got.Fix != err.Fix {
		t.Errorf("ToJSON() = %+v, want fields from %+v", got, err)
	}
	if got.ExitCode != ExitConfig {
		t.Errorf("ToJSON().ExitCode = %d, want %d", got.ExitCode, ExitConfig)
	}
}

func TestFatalErrorNil(t *testing.T) {
	FatalError(nil, false)
}
