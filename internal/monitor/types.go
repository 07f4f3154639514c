// Package monitor watches a live terminal pane without any cooperation from
// the process running inside it. A poll loop repeatedly captures the pane's
// visible text, classifies the activity state from the raw content, answers
// permission prompts with a synthetic keystroke, and stops once the output
// settles, the deadline passes, or capture keeps failing.
//
// One monitor owns one target pane for the duration of a run. Running two
// monitors against the same pane is undefined behavior: both would answer
// the same prompts. Concurrent runs against different panes are fine.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StateKind is the classification of a pane's activity at one tick.
type StateKind string

const (
	// StateProcessing means the pane shows active-work markers (spinners,
	// verb-with-ellipsis status lines, token counters).
	StateProcessing StateKind = "processing"
	// StateAwaitingPermission means a permission prompt is visible at the
	// interactive edge of the pane.
	StateAwaitingPermission StateKind = "awaiting_permission"
	// StateIdle means the frame is byte-identical to the previous one and
	// shows no recognized prompt.
	StateIdle StateKind = "idle"
	// StateUnknown means the content changed but matched no recognized
	// shape (e.g., mid-stream text render). Treated like StateProcessing
	// for control flow, logged distinctly.
	StateUnknown StateKind = "unknown"
)

// State is the classifier output for a single frame.
// Exactly one State is produced per tick.
type State struct {
	Kind StateKind

	// Progress is a human-readable work marker extracted from the frame.
	// Informational only; set for StateProcessing.
	Progress string

	// Prompt is the detected prompt text. Set for StateAwaitingPermission.
	Prompt string

	// Response is the keystroke sequence that answers the prompt.
	// Set for StateAwaitingPermission.
	Response string
}

// EventKind labels entries in a monitor run's event log.
type EventKind string

const (
	EventProgress     EventKind = "progress"
	EventPermission   EventKind = "permission-request"
	EventIdle         EventKind = "idle-detected"
	EventCaptureError EventKind = "capture-error"
)

// Event is one entry in the monitor's event log.
type Event struct {
	// Elapsed is the time since the run started, independent of poll jitter.
	Elapsed time.Duration `json:"elapsed"`
	Kind    EventKind     `json:"kind"`
	Detail  string        `json:"detail"`
}

// String renders the event as a single log line prefixed with elapsed seconds.
func (e Event) String() string {
	return fmt.Sprintf("[%.1fs] %s: %s", e.Elapsed.Seconds(), e.Kind, e.Detail)
}

// Status is the terminal state of a monitor run.
type Status string

const (
	// StatusSucceeded means the pane showed no textual change for the
	// configured stability streak with no prompt pending.
	StatusSucceeded Status = "succeeded"
	// StatusTimedOut means the deadline passed (or the caller cancelled)
	// while the pane was still changing. Expected outcome, not an error.
	StatusTimedOut Status = "timed_out"
	// StatusFailed means the capture primitive failed too many times in a
	// row.
	StatusFailed Status = "failed"
)

// Report is the result of a monitor run. A Report is produced on every exit
// path — timeout and failure included — so callers can always inspect the
// partial transcript.
type Report struct {
	// Target is the pane that was watched.
	Target string `json:"target"`
	// Status is the terminal state of the run.
	Status Status `json:"status"`
	// FinalText is the last captured pane content.
	FinalText string `json:"final_text"`
	// Events is the ordered event log.
	Events []Event `json:"events"`
	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`
	// Injections is the number of synthetic keystrokes actually sent.
	Injections int `json:"injections"`
}

// Render formats the report for human reading: the event log one line per
// event, then the final pane content.
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s (%.1fs elapsed)\n", r.Status, r.Elapsed.Seconds())
	for _, e := range r.Events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	b.WriteString("--- final pane content ---\n")
	b.WriteString(r.FinalText)
	if !strings.HasSuffix(r.FinalText, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

// PaneIO is the narrow slice of multiplexer operations the monitor needs:
// a synchronous content snapshot and literal key injection. Both may fail
// independently on any call.
type PaneIO interface {
	CapturePane(ctx context.Context, target string) (string, error)
	SendKeys(ctx context.Context, target, keys string, literal bool) error
}
