package model

import (
	"fmt"
	"strings"
	"time"
)

// Session represents a tmux session.
type Session struct {
	// ID is the tmux session ID (e.g., "$3").
	ID string `json:"id"`
	// Name is the session name.
	Name string `json:"name"`
	// Windows is the number of windows in the session.
	Windows int `json:"windows"`
	// Attached is the number of clients attached to the session.
	Attached int `json:"attached"`
	// Created is the session creation time.
	Created time.Time `json:"created"`
}

// Window represents a tmux window.
type Window struct {
	// Session is the name of the session containing the window.
	Session string `json:"session"`
	// Index is the window index within the session.
	Index int `json:"index"`
	// ID is the tmux window ID (e.g., "@5").
	ID string `json:"id"`
	// Name is the window name.
	Name string `json:"name"`
	// Active indicates whether this is the session's active window.
	Active bool `json:"active"`
	// Panes is the number of panes in the window.
	Panes int `json:"panes"`
	// PaneID is the ID of the window's active pane (e.g., "%7").
	PaneID string `json:"pane_id"`
}

// Pane represents a tmux pane.
type Pane struct {
	// Target is the fully qualified pane target (e.g., "session:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// ID is the tmux pane ID (e.g., "%3").
	ID string `json:"id"`
	// Index is the pane index within the window.
	Index int `json:"index"`
	// Width is the pane width in columns.
	Width int `json:"width"`
	// Height is the pane height in rows.
	Height int `json:"height"`
	// Active indicates whether this is the window's active pane.
	Active bool `json:"active"`
	// Command is the current command running in the pane (e.g., "node", "bash").
	Command string `json:"command"`
}

// Created holds the identifiers tmux reports for a newly created
// session, window, or pane.
type Created struct {
	SessionID   string `json:"session_id,omitempty"`
	WindowID    string `json:"window_id,omitempty"`
	WindowIndex int    `json:"window_index,omitempty"`
	PaneID      string `json:"pane_id,omitempty"`
}

// ParseTarget parses a tmux target string "session:window.pane" into a Pane
// with Target, Session, Window and Index populated.
func ParseTarget(target string) (Pane, error) {
	colonIdx := strings.LastIndex(target, ":")
	if colonIdx < 0 {
		return Pane{}, fmt.Errorf("invalid target %q: missing ':'", target)
	}

	session := target[:colonIdx]
	rest := target[colonIdx+1:]

	dotIdx := strings.LastIndex(rest, ".")
	if dotIdx < 0 {
		return Pane{}, fmt.Errorf("invalid target %q: missing '.'", target)
	}

	window, err := atoiField(rest[:dotIdx])
	if err != nil {
		return Pane{}, fmt.Errorf("invalid window index in %q: %w", target, err)
	}

	pane, err := atoiField(rest[dotIdx+1:])
	if err != nil {
		return Pane{}, fmt.Errorf("invalid pane index in %q: %w", target, err)
	}

	return Pane{
		Target:  target,
		Session: session,
		Window:  window,
		Index:   pane,
	}, nil
}

// ValidTarget reports whether target has the "session:window.pane" shape.
// Bare pane IDs ("%3") are also accepted — tmux resolves them directly.
func ValidTarget(target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	if strings.HasPrefix(target, "%") {
		return len(target) > 1
	}
	_, err := ParseTarget(target)
	return err == nil
}

func atoiField(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
