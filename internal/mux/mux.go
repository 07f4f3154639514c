// Package mux provides an abstraction over terminal multiplexers (tmux,
// zellij). It is pure transport: session topology, pane content, and key
// injection pass through without any interpretation of what the panes show.
package mux

import (
	"context"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/model"
)

// KillKind selects what a Kill call destroys.
type KillKind string

const (
	KillSession KillKind = "session"
	KillWindow  KillKind = "window"
	KillPane    KillKind = "pane"
)

// ResizeDirection is a relative pane-resize direction.
type ResizeDirection string

const (
	ResizeUp    ResizeDirection = "up"
	ResizeDown  ResizeDirection = "down"
	ResizeLeft  ResizeDirection = "left"
	ResizeRight ResizeDirection = "right"
)

// CaptureRangeOptions selects a history window for CaptureRange.
// A nil field means "unset" and omits the corresponding tmux flag.
type CaptureRangeOptions struct {
	// StartLine is the first line to capture. Negative values reach into
	// scrollback (e.g., -100 captures the 100 lines before the visible area).
	StartLine *int
	// LineCount limits the number of captured lines starting at StartLine.
	LineCount *int
}

// Multiplexer abstracts terminal multiplexer operations.
// Implementations exist for tmux and (future) zellij.
//
// Target strings follow the multiplexer's addressing scheme; for tmux this
// is "session", "session:window", "session:window.pane", or a pane ID ("%3").
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux", "zellij").
	Name() string

	// ListSessions returns all sessions.
	ListSessions(ctx context.Context) ([]model.Session, error)

	// ListWindows returns windows, optionally scoped to one session.
	// An empty session lists windows across all sessions.
	ListWindows(ctx context.Context, session string) ([]model.Window, error)

	// ListPanes returns panes, optionally scoped to a session or window
	// target. An empty target lists panes across all sessions.
	ListPanes(ctx context.Context, target string) ([]model.Pane, error)

	// CapturePane captures the currently visible content of a pane.
	CapturePane(ctx context.Context, target string) (string, error)

	// CaptureRange captures pane content including scrollback history.
	CaptureRange(ctx context.Context, target string, opts CaptureRangeOptions) (string, error)

	// SendKeys sends keys to a pane. With literal set, keys are sent as
	// typed characters; otherwise special key names ("Enter", "C-c",
	// "Escape") are resolved by the multiplexer.
	SendKeys(ctx context.Context, target, keys string, literal bool) error

	// NewSession creates a detached session, optionally naming the first
	// window and running a command in it.
	NewSession(ctx context.Context, name, windowName, command string) (model.Created, error)

	// NewWindow creates a window in an existing session.
	NewWindow(ctx context.Context, session, name, command string) (model.Created, error)

	// RenameSession renames a session.
	RenameSession(ctx context.Context, target, newName string) error

	// RenameWindow renames a window.
	RenameWindow(ctx context.Context, target, newName string) error

	// SelectWindow switches to a window.
	SelectWindow(ctx context.Context, target string) error

	// SelectPane focuses a pane.
	SelectPane(ctx context.Context, target string) error

	// SplitWindow splits a window or pane and returns the new pane's ID.
	// With horizontal set, the new pane is stacked below (tmux -v);
	// otherwise it is placed to the right (tmux -h). Size is a percentage
	// ("50%") or cell count ("20"); empty means the multiplexer default.
	SplitWindow(ctx context.Context, target string, horizontal bool, size, command string) (string, error)

	// ResizePane grows a pane in the given direction by amount cells.
	// Non-nil width/height perform an absolute resize instead.
	ResizePane(ctx context.Context, target string, direction ResizeDirection, amount int, width, height *int) error

	// Kill destroys a session, window, or pane.
	Kill(ctx context.Context, kind KillKind, target string) error
}
