package mux

import (
	"context"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"trailing_newline", "a\nb\n", []string{"a", "b"}},
		{"blank_lines_dropped", "a\n\nb", []string{"a", "b"}},
		{"empty", "", nil},
		{"only_whitespace", "\n\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitLines(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResizePane_InvalidDirection(t *testing.T) {
	// Validation happens before any tmux call, so no tmux server is needed.
	err := NewTmux().ResizePane(context.Background(), "s:0.0", "sideways", 5, nil, nil)
	if err == nil {
		t.Fatal("ResizePane() error = nil, want invalid-direction error")
	}
}

func TestKill_InvalidKind(t *testing.T) {
	err := NewTmux().Kill(context.Background(), "server", "s")
	if err == nil {
		t.Fatal("Kill() error = nil, want invalid-kind error")
	}
}

func TestFromName(t *testing.T) {
	if _, err := FromName("tmux"); err != nil {
		t.Errorf("FromName(tmux) error: %v", err)
	}
	if _, err := FromName("screen"); err == nil {
		t.Error("FromName(screen) error = nil, want unsupported error")
	}
}
