package mcpserver

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WENLIXIAO-CS/tmux-mcp/internal/model"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/monitor"
	"github.com/WENLIXIAO-CS/tmux-mcp/internal/mux"
)

// fakeMux records calls and returns canned values. Unused methods return
// zero values.
type fakeMux struct {
	captured  string
	rangeOpts *mux.CaptureRangeOptions
	sent      []string
	killed    []string
}

func (f *fakeMux) Name() string { return "fake" }

func (f *fakeMux) ListSessions(context.Context) ([]model.Session, error) {
	return []model.Session{{ID: "$1", Name: "work", Windows: 2, Attached: 1, Created: time.Unix(0, 0).UTC()}}, nil
}

func (f *fakeMux) ListWindows(context.Context, string) ([]model.Window, error) { return nil, nil }
func (f *fakeMux) ListPanes(context.Context, string) ([]model.Pane, error)    { return nil, nil }

func (f *fakeMux) CapturePane(context.Context, string) (string, error) {
	return f.captured, nil
}

func (f *fakeMux) CaptureRange(_ context.Context, _ string, opts mux.CaptureRangeOptions) (string, error) {
	f.rangeOpts = &opts
	return f.captured, nil
}

func (f *fakeMux) SendKeys(_ context.Context, target, keys string, literal bool) error {
	f.sent = append(f.sent, keys)
	return nil
}

func (f *fakeMux) NewSession(_ context.Context, name, windowName, command string) (model.Created, error) {
	return model.Created{SessionID: "$2", WindowID: "@5", PaneID: "%7"}, nil
}

func (f *fakeMux) NewWindow(context.Context, string, string, string) (model.Created, error) {
	return model.Created{WindowID: "@6", WindowIndex: 3, PaneID: "%9"}, nil
}

func (f *fakeMux) RenameSession(context.Context, string, string) error { return nil }
func (f *fakeMux) RenameWindow(context.Context, string, string) error  { return nil }
func (f *fakeMux) SelectWindow(context.Context, string) error          { return nil }
func (f *fakeMux) SelectPane(context.Context, string) error            { return nil }

func (f *fakeMux) SplitWindow(context.Context, string, bool, string, string) (string, error) {
	return "%11", nil
}

func (f *fakeMux) ResizePane(context.Context, string, mux.ResizeDirection, int, *int, *int) error {
	return nil
}

func (f *fakeMux) Kill(_ context.Context, kind mux.KillKind, target string) error {
	f.killed = append(f.killed, string(kind)+" "+target)
	return nil
}

func newTestServer(f *fakeMux) *Server {
	return New(Config{
		Transport: "stdio",
		Monitor: monitor.Options{
			Interval:           100 * time.Millisecond,
			ProcessingInterval: 100 * time.Millisecond,
			Deadline:           5 * time.Second,
			StabilityThreshold: 2,
		},
	}, f, nil, nil)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T, want TextContent", res.Content[0])
	return text.Text
}

func TestHandleSendKeys(t *testing.T) {
	f := &fakeMux{}
	s := newTestServer(f)

	res, err := s.handleSendKeys(context.Background(), callRequest(map[string]any{
		"target": "work:0.0",
		"keys":   "ls -la",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Keys sent.", resultText(t, res))
	assert.Equal(t, []string{"ls -la"}, f.sent)
}

func TestHandleSendKeys_MissingTarget(t *testing.T) {
	s := newTestServer(&fakeMux{})

	res, err := s.handleSendKeys(context.Background(), callRequest(map[string]any{
		"keys": "ls",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleReadPane_EmptyPane(t *testing.T) {
	s := newTestServer(&fakeMux{captured: ""})

	res, err := s.handleReadPane(context.Background(), callRequest(map[string]any{
		"target": "work:0.0",
	}))
	require.NoError(t, err)
	assert.Equal(t, "(empty pane)", resultText(t, res))
}

func TestHandleReadPane_RangeArguments(t *testing.T) {
	f := &fakeMux{captured: "history"}
	s := newTestServer(f)

	// JSON numbers decode as float64; zero and negative values must pass
	// through as set.
	res, err := s.handleReadPane(context.Background(), callRequest(map[string]any{
		"target":     "work:0.0",
		"start_line": float64(-100),
		"line_count": float64(50),
	}))
	require.NoError(t, err)
	assert.Equal(t, "history", resultText(t, res))

	require.NotNil(t, f.rangeOpts)
	require.NotNil(t, f.rangeOpts.StartLine)
	require.NotNil(t, f.rangeOpts.LineCount)
	assert.Equal(t, -100, *f.rangeOpts.StartLine)
	assert.Equal(t, 50, *f.rangeOpts.LineCount)
}

func TestHandleCreateSession(t *testing.T) {
	s := newTestServer(&fakeMux{})

	res, err := s.handleCreateSession(context.Background(), callRequest(map[string]any{
		"name": "build",
	}))
	require.NoError(t, err)
	assert.Equal(t,
		"Session 'build' created. session_id=$2 window_id=@5 pane_id=%7",
		resultText(t, res))
}

func TestHandleKill_DefaultsToPane(t *testing.T) {
	f := &fakeMux{}
	s := newTestServer(f)

	res, err := s.handleKill(context.Background(), callRequest(map[string]any{
		"target": "%3",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Pane '%3' killed.", resultText(t, res))
	assert.Equal(t, []string{"pane %3"}, f.killed)
}

func TestHandleMonitorPane_SettledPane(t *testing.T) {
	// The fake pane never changes, so the monitor reaches the stability
	// threshold quickly and reports success.
	f := &fakeMux{captured: "$ done\n"}
	s := newTestServer(f)

	res, err := s.handleMonitorPane(context.Background(), callRequest(map[string]any{
		"target": "work:0.0",
	}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "status: succeeded")
	assert.Contains(t, text, "--- final pane content ---")
	assert.Contains(t, text, "$ done")
}

func TestOptionalInt(t *testing.T) {
	req := callRequest(map[string]any{
		"present": float64(7),
		"zero":    float64(0),
		"null":    nil,
		"wrong":   "7",
	})

	if got := optionalInt(req, "present"); got == nil || *got != 7 {
		t.Errorf("optionalInt(present) = %v, want 7", got)
	}
	if got := optionalInt(req, "zero"); got == nil || *got != 0 {
		t.Errorf("optionalInt(zero) = %v, want 0 (explicit zero is set)", got)
	}
	if got := optionalInt(req, "absent"); got != nil {
		t.Errorf("optionalInt(absent) = %v, want nil", got)
	}
	if got := optionalInt(req, "null"); got != nil {
		t.Errorf("optionalInt(null) = %v, want nil", got)
	}
	if got := optionalInt(req, "wrong"); got != nil {
		t.Errorf("optionalInt(wrong) = %v, want nil", got)
	}
}
