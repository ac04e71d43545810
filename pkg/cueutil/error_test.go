// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		if err := FormatError(nil, "bench.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with file path", func(t *testing.T) {
		t.Parallel()
		orig := errors.New("boom")
		err := FormatError(orig, "bench.cue")
		if !errors.Is(err, orig) {
			t.Errorf("FormatError should wrap the original error, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "bench.cue: ") {
			t.Errorf("error should start with file path, got %q", err.Error())
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{"empty", nil, ""},
		{"single field", []string{"targets"}, "targets"},
		{"nested index", []string{"targets", "0", "scenarios", "2", "level"}, "targets[0].scenarios[2].level"},
		{"leading numeric", []string{"0", "name"}, "0.name"},
		{"map keys", []string{"backends", "c", "build"}, "backends.c.build"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()
	if err := CheckFileSize(make([]byte, 10), 10, "f.cue"); err != nil {
		t.Errorf("size at limit should pass, got %v", err)
	}
	err := CheckFileSize(make([]byte, 11), 10, "f.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}
