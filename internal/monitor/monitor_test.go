package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeClock drives the monitor's injected now/sleep so runs are instant and
// elapsed arithmetic is exact.
type fakeClock struct {
	t time.Time
}

func newTestMonitor(io PaneIO, opts Options) (*Monitor, *fakeClock) {
	m := New(io, opts, nil, nil)
	c := &fakeClock{t: time.Unix(1000, 0)}
	m.now = func() time.Time { return c.t }
	m.sleep = func(_ context.Context, d time.Duration) { c.t = c.t.Add(d) }
	return m, c
}

// captureScript returns a captures func that replays frames in order,
// repeating the last entry once exhausted (the final snapshot re-captures).
func captureScript(frames ...string) func(context.Context, string) (string, error) {
	i := 0
	return func(context.Context, string) (string, error) {
		f := frames[i]
		if i < len(frames)-1 {
			i++
		}
		return f, nil
	}
}

func TestRun_SettlesAfterPromptAnswered(t *testing.T) {
	prompt := "Claude needs your permission to use Bash\n  1. Yes\n  2. No"
	settled := "command output\n$ "
	io := &fakePaneIO{captures: captureScript(
		"⠋ Working",
		"⠙ Working",
		prompt,
		settled, settled, settled, settled,
	)}

	m, _ := newTestMonitor(io, Options{
		Interval:           time.Second,
		ProcessingInterval: 500 * time.Millisecond,
		Deadline:           time.Minute,
		StabilityThreshold: 3,
	})
	rep := m.Run(context.Background(), "s:0.0")

	if rep.Status != StatusSucceeded {
		t.Fatalf("Status = %q, want %q\nevents:\n%s", rep.Status, StatusSucceeded, renderEvents(rep))
	}
	if rep.Injections != 1 {
		t.Errorf("Injections = %d, want 1", rep.Injections)
	}
	if len(io.sent) != 1 || io.sent[0].keys != "1" || !io.sent[0].literal {
		t.Errorf("SendKeys calls = %+v, want one literal %q", io.sent, "1")
	}
	if rep.FinalText != settled {
		t.Errorf("FinalText = %q, want the settled frame", rep.FinalText)
	}

	// Processing ticks run at the short cadence, idle ticks at the base one:
	// 0.5 + 0.5 + 1.0 (prompt) + 0.5 (unknown) + 1.0 + 1.0 idle.
	if want := 4500 * time.Millisecond; rep.Elapsed != want {
		t.Errorf("Elapsed = %v, want %v", rep.Elapsed, want)
	}

	var kinds []EventKind
	for _, e := range rep.Events {
		kinds = append(kinds, e.Kind)
	}
	if countKind(rep, EventPermission) != 1 {
		t.Errorf("permission events = %d, want 1 (kinds: %v)", countKind(rep, EventPermission), kinds)
	}
	if countKind(rep, EventIdle) != 1 {
		t.Errorf("idle events = %d, want 1 (kinds: %v)", countKind(rep, EventIdle), kinds)
	}
}

func TestRun_TimesOutWhileStillChanging(t *testing.T) {
	n := 0
	io := &fakePaneIO{captures: func(context.Context, string) (string, error) {
		n++
		return fmt.Sprintf("streaming line %d", n), nil
	}}

	m, _ := newTestMonitor(io, Options{
		Interval:           time.Second,
		ProcessingInterval: time.Second,
		Deadline:           5 * time.Second,
		StabilityThreshold: 3,
	})
	rep := m.Run(context.Background(), "s:0.0")

	if rep.Status != StatusTimedOut {
		t.Fatalf("Status = %q, want %q", rep.Status, StatusTimedOut)
	}
	// The deadline is checked at the top of each tick, so the run overshoots
	// it by less than one poll interval.
	if deadline, interval := 5*time.Second, time.Second; rep.Elapsed > deadline+interval {
		t.Errorf("Elapsed = %v, want at most %v", rep.Elapsed, deadline+interval)
	}
	if want := 5 * time.Second; rep.Elapsed != want {
		t.Errorf("Elapsed = %v, want exactly %v with the fake clock", rep.Elapsed, want)
	}
	if rep.Injections != 0 {
		t.Errorf("Injections = %d, want 0", rep.Injections)
	}
	if countKind(rep, EventPermission) != 0 {
		t.Errorf("permission events = %d, want 0", countKind(rep, EventPermission))
	}
	if rep.FinalText == "" {
		t.Error("FinalText is empty, want the last captured frame")
	}
}

func TestRun_FailsAfterConsecutiveCaptureErrors(t *testing.T) {
	io := &fakePaneIO{captures: func(context.Context, string) (string, error) {
		return "", errors.New("no such pane")
	}}

	m, _ := newTestMonitor(io, Options{
		Interval:           time.Second,
		Deadline:           time.Minute,
		MaxCaptureFailures: 3,
	})
	rep := m.Run(context.Background(), "s:0.0")

	if rep.Status != StatusFailed {
		t.Fatalf("Status = %q, want %q", rep.Status, StatusFailed)
	}
	if got := countKind(rep, EventCaptureError); got != 3 {
		t.Errorf("capture-error events = %d, want 3", got)
	}
	if len(rep.Events) != 3 {
		t.Errorf("total events = %d, want 3", len(rep.Events))
	}
}

func TestRun_PromptVisibleAcrossTicksAnsweredOnce(t *testing.T) {
	prompt := "Do you want to proceed?\n1. Yes\n2. No"
	settled := "done\n$ "
	io := &fakePaneIO{captures: captureScript(
		prompt, prompt, prompt,
		settled, settled, settled,
	)}

	m, _ := newTestMonitor(io, Options{
		Interval:           time.Second,
		Deadline:           time.Minute,
		StabilityThreshold: 2,
	})
	rep := m.Run(context.Background(), "s:0.0")

	if rep.Status != StatusSucceeded {
		t.Fatalf("Status = %q, want %q", rep.Status, StatusSucceeded)
	}
	if rep.Injections != 1 {
		t.Errorf("Injections = %d, want 1 (prompt repainted for 3 ticks)", rep.Injections)
	}
	if got := countKind(rep, EventPermission); got != 3 {
		t.Errorf("permission events = %d, want 3 (1 sent + 2 suppressed)", got)
	}
	suppressed := 0
	for _, e := range rep.Events {
		if e.Kind == EventPermission && strings.Contains(e.Detail, "already answered") {
			suppressed++
		}
	}
	if suppressed != 2 {
		t.Errorf("suppressed permission events = %d, want 2", suppressed)
	}
}

func TestRun_CancelledContextReportsTimeout(t *testing.T) {
	io := &fakePaneIO{captures: captureScript("last frame")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, _ := newTestMonitor(io, Options{Deadline: time.Minute})
	rep := m.Run(ctx, "s:0.0")

	if rep.Status != StatusTimedOut {
		t.Fatalf("Status = %q, want %q", rep.Status, StatusTimedOut)
	}
	// The final snapshot runs detached from the cancelled context.
	if rep.FinalText != "last frame" {
		t.Errorf("FinalText = %q, want the final snapshot", rep.FinalText)
	}
}

func TestReportRender(t *testing.T) {
	rep := &Report{
		Target:  "s:0.0",
		Status:  StatusSucceeded,
		Elapsed: 6 * time.Second,
		Events: []Event{
			{Elapsed: 1200 * time.Millisecond, Kind: EventProgress, Detail: "⠋ Working"},
			{Elapsed: 3 * time.Second, Kind: EventIdle, Detail: "no change for 3 consecutive ticks"},
		},
		FinalText: "$ ",
	}
	out := rep.Render()

	for _, want := range []string{
		"status: succeeded (6.0s elapsed)",
		"[1.2s] progress: ⠋ Working",
		"[3.0s] idle-detected:",
		"--- final pane content ---",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
}

func countKind(rep *Report, kind EventKind) int {
	n := 0
	for _, e := range rep.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func renderEvents(rep *Report) string {
	var b strings.Builder
	for _, e := range rep.Events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
