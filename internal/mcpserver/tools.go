package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mux"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("tmux_list_sessions",
			mcp.WithDescription("List all tmux sessions with their names, IDs, window count, and status."),
		),
		s.tool("tmux_list_sessions", s.handleListSessions),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_list_windows",
			mcp.WithDescription("List all tmux windows. Optionally filter by session name or ID."),
			mcp.WithString("session",
				mcp.Description("Session name or ID to filter by. If omitted, lists windows from all sessions."),
			),
		),
		s.tool("tmux_list_windows", s.handleListWindows),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_list_panes",
			mcp.WithDescription("List tmux panes with their IDs, dimensions, and status."),
			mcp.WithString("target",
				mcp.Description(`Session or window target (e.g. "mysession", "mysession:0"). If omitted, lists panes from all sessions.`),
			),
		),
		s.tool("tmux_list_panes", s.handleListPanes),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_send_keys",
			mcp.WithDescription("Send keys or commands to a tmux pane."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Tmux target (e.g. "session:window.pane", "session:window", "session").`),
			),
			mcp.WithString("keys",
				mcp.Required(),
				mcp.Description(`Keys to send. Use special key names like "Enter", "C-c", "Escape", "Tab", "Space", etc.`),
			),
			mcp.WithBoolean("literal",
				mcp.Description("If true, send keys literally (the -l flag) without special key lookup."),
			),
		),
		s.tool("tmux_send_keys", s.handleSendKeys),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_read_pane",
			mcp.WithDescription("Read/capture content from a tmux pane."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Tmux target (e.g. "session:window.pane").`),
			),
			mcp.WithNumber("line_count",
				mcp.Description("Number of lines to capture. If omitted, captures entire visible pane."),
			),
			mcp.WithNumber("start_line",
				mcp.Description("Start line for history capture (negative = lines before visible area, e.g. -100)."),
			),
		),
		s.tool("tmux_read_pane", s.handleReadPane),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_create_session",
			mcp.WithDescription("Create a new tmux session."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name for the new session."),
			),
			mcp.WithString("command",
				mcp.Description("Optional command to run in the initial window."),
			),
			mcp.WithString("window_name",
				mcp.Description("Optional name for the first window."),
			),
		),
		s.tool("tmux_create_session", s.handleCreateSession),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_create_window",
			mcp.WithDescription("Create a new window in an existing tmux session."),
			mcp.WithString("session",
				mcp.Required(),
				mcp.Description("Target session name or ID."),
			),
			mcp.WithString("name",
				mcp.Description("Optional name for the new window."),
			),
			mcp.WithString("command",
				mcp.Description("Optional command to run in the new window."),
			),
		),
		s.tool("tmux_create_window", s.handleCreateWindow),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_rename_session",
			mcp.WithDescription("Rename a tmux session."),
			mcp.WithString("old_name",
				mcp.Required(),
				mcp.Description("Current session name or ID."),
			),
			mcp.WithString("new_name",
				mcp.Required(),
				mcp.Description("New name for the session."),
			),
		),
		s.tool("tmux_rename_session", s.handleRenameSession),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_rename_window",
			mcp.WithDescription("Rename a tmux window."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Tmux target for the window (e.g. "session:window").`),
			),
			mcp.WithString("new_name",
				mcp.Required(),
				mcp.Description("New name for the window."),
			),
		),
		s.tool("tmux_rename_window", s.handleRenameWindow),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_select_window",
			mcp.WithDescription("Navigate/switch to a specific tmux window."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Tmux target (e.g. "session:window").`),
			),
		),
		s.tool("tmux_select_window", s.handleSelectWindow),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_select_pane",
			mcp.WithDescription("Select/focus a specific tmux pane."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Pane target (e.g. "session:window.pane", "%3").`),
			),
		),
		s.tool("tmux_select_pane", s.handleSelectPane),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_split_window",
			mcp.WithDescription("Split a window/pane to create a new pane."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Target window or pane to split (e.g. "session:window", "session:window.pane", or "%3").`),
			),
			mcp.WithBoolean("horizontal",
				mcp.Description("If true, split horizontally (top/bottom). Default is vertical (left/right)."),
			),
			mcp.WithString("size",
				mcp.Description(`Size of new pane — percentage (e.g. "50%") or line/column count (e.g. "20").`),
			),
			mcp.WithString("command",
				mcp.Description("Optional command to run in the new pane."),
			),
		),
		s.tool("tmux_split_window", s.handleSplitWindow),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_resize_pane",
			mcp.WithDescription("Resize a tmux pane. Use direction+amount for relative resize, or width/height for absolute resize."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Pane target (e.g. "%3", "session:window.pane").`),
			),
			mcp.WithString("direction",
				mcp.Description(`Direction to grow: "up", "down", "left", or "right".`),
			),
			mcp.WithNumber("amount",
				mcp.Description("Number of cells to resize by (default 5). Used with direction."),
			),
			mcp.WithNumber("width",
				mcp.Description("Absolute width in columns. Overrides direction/amount."),
			),
			mcp.WithNumber("height",
				mcp.Description("Absolute height in rows. Overrides direction/amount."),
			),
		),
		s.tool("tmux_resize_pane", s.handleResizePane),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_kill",
			mcp.WithDescription("Kill a tmux session, window, or pane."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Tmux target to kill."),
			),
			mcp.WithString("type",
				mcp.Description(`What to kill - "session", "window", or "pane". Default "pane".`),
			),
		),
		s.tool("tmux_kill", s.handleKill),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tmux_monitor_pane",
			mcp.WithDescription(
				"Watch an interactive pane (e.g. a running AI assistant) until it finishes. "+
					"Polls the pane content, auto-answers permission prompts with the default choice, "+
					"and returns an event log plus the final pane content once the output settles, "+
					"the timeout passes, or capture keeps failing."),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description(`Pane target to watch (e.g. "session:window.pane", "%3").`),
			),
			mcp.WithNumber("timeout_seconds",
				mcp.Description("Maximum time to watch the pane. Defaults to the configured monitor deadline."),
			),
		),
		s.tool("tmux_monitor_pane", s.handleMonitorPane),
	)

	s.logger.Debug("registered MCP tools", zap.Int("count", 15))
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.mux.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No sessions found."), nil
	}
	var b strings.Builder
	for _, sess := range sessions {
		fmt.Fprintf(&b, "%s\t%s\t%d windows\t%d attached\t%s\n",
			sess.ID, sess.Name, sess.Windows, sess.Attached, sess.Created.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleListWindows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := req.GetString("session", "")
	windows, err := s.mux.ListWindows(ctx, session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	if len(windows) == 0 {
		return mcp.NewToolResultText("No windows found."), nil
	}
	var b strings.Builder
	for _, w := range windows {
		active := "0"
		if w.Active {
			active = "1"
		}
		fmt.Fprintf(&b, "%s\t%d\t%s\t%s\t%s\t%d panes\t%s\n",
			w.Session, w.Index, w.ID, w.Name, active, w.Panes, w.PaneID)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleListPanes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := req.GetString("target", "")
	panes, err := s.mux.ListPanes(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	if len(panes) == 0 {
		return mcp.NewToolResultText("No panes found."), nil
	}
	var b strings.Builder
	for _, p := range panes {
		active := "0"
		if p.Active {
			active = "1"
		}
		fmt.Fprintf(&b, "%s\t%d\t%s\t%d\t%dx%d\t%s\t%s\n",
			p.Session, p.Window, p.ID, p.Index, p.Width, p.Height, active, p.Command)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleSendKeys(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keys, err := req.RequireString("keys")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	literal := req.GetBool("literal", false)

	if err := s.mux.SendKeys(ctx, target, keys, literal); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText("Keys sent."), nil
}

func (s *Server) handleReadPane(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := mux.CaptureRangeOptions{
		StartLine: optionalInt(req, "start_line"),
		LineCount: optionalInt(req, "line_count"),
	}

	var content string
	if opts.StartLine == nil && opts.LineCount == nil {
		content, err = s.mux.CapturePane(ctx, target)
	} else {
		content, err = s.mux.CaptureRange(ctx, target, opts)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	if content == "" {
		return mcp.NewToolResultText("(empty pane)"), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) handleCreateSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command := req.GetString("command", "")
	windowName := req.GetString("window_name", "")

	created, err := s.mux.NewSession(ctx, name, windowName, command)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Session '%s' created. session_id=%s window_id=%s pane_id=%s",
		name, created.SessionID, created.WindowID, created.PaneID)), nil
}

func (s *Server) handleCreateWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := req.GetString("name", "")
	command := req.GetString("command", "")

	created, err := s.mux.NewWindow(ctx, session, name, command)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Window created in session '%s'. window_id=%s window_index=%d pane_id=%s",
		session, created.WindowID, created.WindowIndex, created.PaneID)), nil
}

func (s *Server) handleRenameSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldName, err := req.RequireString("old_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := req.RequireString("new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mux.RenameSession(ctx, oldName, newName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session renamed to '%s'.", newName)), nil
}

func (s *Server) handleRenameWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := req.RequireString("new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mux.RenameWindow(ctx, target, newName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Window renamed to '%s'.", newName)), nil
}

func (s *Server) handleSelectWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mux.SelectWindow(ctx, target); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Switched to '%s'.", target)), nil
}

func (s *Server) handleSelectPane(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mux.SelectPane(ctx, target); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected pane '%s'.", target)), nil
}

func (s *Server) handleSplitWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	horizontal := req.GetBool("horizontal", false)
	size := req.GetString("size", "")
	command := req.GetString("command", "")

	paneID, err := s.mux.SplitWindow(ctx, target, horizontal, size, command)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pane created. pane_id=%s", paneID)), nil
}

func (s *Server) handleResizePane(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction := mux.ResizeDirection(req.GetString("direction", ""))
	amount := req.GetInt("amount", 5)
	width := optionalInt(req, "width")
	height := optionalInt(req, "height")

	if err := s.mux.ResizePane(ctx, target, direction, amount, width, height); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pane '%s' resized.", target)), nil
}

func (s *Server) handleKill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind := mux.KillKind(req.GetString("type", "pane"))

	if err := s.mux.Kill(ctx, kind, target); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s '%s' killed.", titleCase(string(kind)), target)), nil
}

func (s *Server) handleMonitorPane(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.cfg.Monitor
	if timeout := req.GetInt("timeout_seconds", 0); timeout > 0 {
		opts.Deadline = time.Duration(timeout) * time.Second
	}

	m := monitor.New(s.mux, opts, s.logger, s.metrics)
	report := m.Run(ctx, target)
	return mcp.NewToolResultText(report.Render()), nil
}

// optionalInt distinguishes "argument absent" from an explicit zero, which
// GetInt with a default cannot do. JSON numbers arrive as float64.
func optionalInt(req mcp.CallToolRequest, key string) *int {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
