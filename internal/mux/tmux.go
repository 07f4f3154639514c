package mux

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/model"
)

// Format strings passed to tmux -F. Fields are tab-separated so values
// containing spaces (session names, commands) survive splitting.
const (
	sessionFormat = "#{session_id}\t#{session_name}\t#{session_windows}\t#{session_attached}\t#{session_created}"
	windowFormat  = "#{session_name}\t#{window_index}\t#{window_id}\t#{window_name}\t#{window_active}\t#{window_panes}\t#{pane_id}"
	paneFormat    = "#{session_name}\t#{window_index}\t#{pane_id}\t#{pane_index}\t#{pane_width}\t#{pane_height}\t#{pane_active}\t#{pane_current_command}"
)

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct{}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListSessions returns all tmux sessions.
func (t *Tmux) ListSessions(ctx context.Context) ([]model.Session, error) {
	out, err := t.run(ctx, "list-sessions", "-F", sessionFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-sessions: %w", err)
	}

	var sessions []model.Session
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 5)
		if len(parts) != 5 {
			continue
		}
		windows, _ := strconv.Atoi(parts[2])
		attached, _ := strconv.Atoi(parts[3])
		created, _ := strconv.ParseInt(parts[4], 10, 64)
		sessions = append(sessions, model.Session{
			ID:       parts[0],
			Name:     parts[1],
			Windows:  windows,
			Attached: attached,
			Created:  time.Unix(created, 0).UTC(),
		})
	}
	return sessions, nil
}

// ListWindows returns tmux windows, optionally scoped to one session.
func (t *Tmux) ListWindows(ctx context.Context, session string) ([]model.Window, error) {
	args := []string{"list-windows"}
	if session != "" {
		args = append(args, "-t", session)
	} else {
		args = append(args, "-a")
	}
	args = append(args, "-F", windowFormat)

	out, err := t.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("tmux list-windows: %w", err)
	}

	var windows []model.Window
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 7)
		if len(parts) != 7 {
			continue
		}
		index, _ := strconv.Atoi(parts[1])
		panes, _ := strconv.Atoi(parts[5])
		windows = append(windows, model.Window{
			Session: parts[0],
			Index:   index,
			ID:      parts[2],
			Name:    parts[3],
			Active:  parts[4] == "1",
			Panes:   panes,
			PaneID:  parts[6],
		})
	}
	return windows, nil
}

// ListPanes returns tmux panes, optionally scoped to a session or window.
func (t *Tmux) ListPanes(ctx context.Context, target string) ([]model.Pane, error) {
	args := []string{"list-panes"}
	if target != "" {
		args = append(args, "-t", target)
	} else {
		args = append(args, "-a")
	}
	args = append(args, "-F", paneFormat)

	out, err := t.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes: %w", err)
	}

	var panes []model.Pane
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 8)
		if len(parts) != 8 {
			continue
		}
		window, _ := strconv.Atoi(parts[1])
		index, _ := strconv.Atoi(parts[3])
		width, _ := strconv.Atoi(parts[4])
		height, _ := strconv.Atoi(parts[5])
		panes = append(panes, model.Pane{
			Target:  fmt.Sprintf("%s:%d.%d", parts[0], window, index),
			Session: parts[0],
			Window:  window,
			ID:      parts[2],
			Index:   index,
			Width:   width,
			Height:  height,
			Active:  parts[6] == "1",
			Command: parts[7],
		})
	}
	return panes, nil
}

// CapturePane captures the visible content of a tmux pane.
// Uses -p (stdout) and -J (joined, unwraps lines).
func (t *Tmux) CapturePane(ctx context.Context, target string) (string, error) {
	out, err := t.run(ctx, "capture-pane", "-t", target, "-p", "-J")
	if err != nil {
		return "", fmt.Errorf("tmux capture-pane -t %s: %w", target, err)
	}
	return out, nil
}

// CaptureRange captures pane content with optional scrollback bounds.
func (t *Tmux) CaptureRange(ctx context.Context, target string, opts CaptureRangeOptions) (string, error) {
	args := []string{"capture-pane", "-t", target, "-p"}
	if opts.StartLine != nil {
		args = append(args, "-S", strconv.Itoa(*opts.StartLine))
	}
	if opts.LineCount != nil {
		start := 0
		if opts.StartLine != nil {
			start = *opts.StartLine
		}
		args = append(args, "-E", strconv.Itoa(start+*opts.LineCount))
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("tmux capture-pane -t %s: %w", target, err)
	}
	return out, nil
}

// SendKeys sends keys to a tmux pane. Literal mode uses -l so key names
// like "Enter" are typed as text rather than resolved.
func (t *Tmux) SendKeys(ctx context.Context, target, keys string, literal bool) error {
	args := []string{"send-keys", "-t", target}
	if literal {
		args = append(args, "-l")
	}
	args = append(args, keys)
	if _, err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("tmux send-keys -t %s: %w", target, err)
	}
	return nil
}

// NewSession creates a detached tmux session and reports the new IDs.
func (t *Tmux) NewSession(ctx context.Context, name, windowName, command string) (model.Created, error) {
	args := []string{"new-session", "-d", "-s", name, "-P", "-F", "#{session_id}\t#{window_id}\t#{pane_id}"}
	if windowName != "" {
		args = append(args, "-n", windowName)
	}
	if command != "" {
		args = append(args, command)
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return model.Created{}, fmt.Errorf("tmux new-session: %w", err)
	}
	parts := strings.SplitN(strings.TrimSpace(out), "\t", 3)
	if len(parts) != 3 {
		return model.Created{}, fmt.Errorf("tmux new-session: unexpected output %q", out)
	}
	return model.Created{SessionID: parts[0], WindowID: parts[1], PaneID: parts[2]}, nil
}

// NewWindow creates a window in an existing tmux session.
func (t *Tmux) NewWindow(ctx context.Context, session, name, command string) (model.Created, error) {
	args := []string{"new-window", "-t", session, "-P", "-F", "#{session_id}\t#{window_id}\t#{window_index}\t#{pane_id}"}
	if name != "" {
		args = append(args, "-n", name)
	}
	if command != "" {
		args = append(args, command)
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return model.Created{}, fmt.Errorf("tmux new-window: %w", err)
	}
	parts := strings.SplitN(strings.TrimSpace(out), "\t", 4)
	if len(parts) != 4 {
		return model.Created{}, fmt.Errorf("tmux new-window: unexpected output %q", out)
	}
	index, _ := strconv.Atoi(parts[2])
	return model.Created{SessionID: parts[0], WindowID: parts[1], WindowIndex: index, PaneID: parts[3]}, nil
}

// RenameSession renames a tmux session.
func (t *Tmux) RenameSession(ctx context.Context, target, newName string) error {
	if _, err := t.run(ctx, "rename-session", "-t", target, newName); err != nil {
		return fmt.Errorf("tmux rename-session: %w", err)
	}
	return nil
}

// RenameWindow renames a tmux window.
func (t *Tmux) RenameWindow(ctx context.Context, target, newName string) error {
	if _, err := t.run(ctx, "rename-window", "-t", target, newName); err != nil {
		return fmt.Errorf("tmux rename-window: %w", err)
	}
	return nil
}

// SelectWindow switches to a tmux window.
func (t *Tmux) SelectWindow(ctx context.Context, target string) error {
	if _, err := t.run(ctx, "select-window", "-t", target); err != nil {
		return fmt.Errorf("tmux select-window: %w", err)
	}
	return nil
}

// SelectPane focuses a tmux pane.
func (t *Tmux) SelectPane(ctx context.Context, target string) error {
	if _, err := t.run(ctx, "select-pane", "-t", target); err != nil {
		return fmt.Errorf("tmux select-pane: %w", err)
	}
	return nil
}

// SplitWindow splits a window or pane. Horizontal means the new pane is
// stacked below the target (tmux -v); the default places it to the right.
func (t *Tmux) SplitWindow(ctx context.Context, target string, horizontal bool, size, command string) (string, error) {
	args := []string{"split-window", "-t", target, "-P", "-F", "#{pane_id}"}
	if horizontal {
		args = append(args, "-v")
	} else {
		args = append(args, "-h")
	}
	if size != "" {
		args = append(args, "-l", size)
	}
	if command != "" {
		args = append(args, command)
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("tmux split-window: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ResizePane resizes a tmux pane, either relatively (direction + amount)
// or absolutely (width/height override direction).
func (t *Tmux) ResizePane(ctx context.Context, target string, direction ResizeDirection, amount int, width, height *int) error {
	args := []string{"resize-pane", "-t", target}
	if width != nil {
		args = append(args, "-x", strconv.Itoa(*width))
	}
	if height != nil {
		args = append(args, "-y", strconv.Itoa(*height))
	}
	if width == nil && height == nil {
		flag, ok := map[ResizeDirection]string{
			ResizeUp:    "-U",
			ResizeDown:  "-D",
			ResizeLeft:  "-L",
			ResizeRight: "-R",
		}[direction]
		if !ok {
			return fmt.Errorf("invalid resize direction %q (want up, down, left, right)", direction)
		}
		if amount <= 0 {
			amount = 5
		}
		args = append(args, flag, strconv.Itoa(amount))
	}
	if _, err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("tmux resize-pane: %w", err)
	}
	return nil
}

// Kill destroys a tmux session, window, or pane.
func (t *Tmux) Kill(ctx context.Context, kind KillKind, target string) error {
	switch kind {
	case KillSession, KillWindow, KillPane:
	default:
		return fmt.Errorf("invalid kill kind %q (want session, window, pane)", kind)
	}
	if _, err := t.run(ctx, fmt.Sprintf("kill-%s", kind), "-t", target); err != nil {
		return fmt.Errorf("tmux kill-%s: %w", kind, err)
	}
	return nil
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// splitLines splits tmux -F output into non-empty lines.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
