package monitor

import (
	"context"
	"errors"
	"testing"
)

// sentCall records one SendKeys invocation on the fake pane.
type sentCall struct {
	target  string
	keys    string
	literal bool
}

// fakePaneIO is a scriptable PaneIO for responder and monitor tests.
type fakePaneIO struct {
	captures func(ctx context.Context, target string) (string, error)
	sendErr  error
	sent     []sentCall
}

func (f *fakePaneIO) CapturePane(ctx context.Context, target string) (string, error) {
	if f.captures == nil {
		return "", nil
	}
	return f.captures(ctx, target)
}

func (f *fakePaneIO) SendKeys(ctx context.Context, target, keys string, literal bool) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentCall{target, keys, literal})
	return nil
}

func TestResponder_AnswersOnce(t *testing.T) {
	io := &fakePaneIO{}
	r := newResponder(io, "s:0.0")
	st := State{Kind: StateAwaitingPermission, Prompt: "Do you want to proceed?", Response: "1"}

	sent, already, err := r.respond(context.Background(), st)
	if err != nil {
		t.Fatalf("respond() error: %v", err)
	}
	if !sent || already {
		t.Fatalf("first respond: sent=%v already=%v, want sent=true already=false", sent, already)
	}

	// Same prompt on the next tick: suppressed, no second keystroke.
	sent, already, err = r.respond(context.Background(), st)
	if err != nil {
		t.Fatalf("respond() error: %v", err)
	}
	if sent || !already {
		t.Fatalf("second respond: sent=%v already=%v, want sent=false already=true", sent, already)
	}

	if len(io.sent) != 1 {
		t.Fatalf("SendKeys calls = %d, want 1", len(io.sent))
	}
	if got := io.sent[0]; got.target != "s:0.0" || got.keys != "1" || !got.literal {
		t.Errorf("SendKeys call = %+v, want target=s:0.0 keys=1 literal=true", got)
	}
}

func TestResponder_DistinctPromptsEachAnswered(t *testing.T) {
	io := &fakePaneIO{}
	r := newResponder(io, "s:0.0")

	first := State{Kind: StateAwaitingPermission, Prompt: "needs your permission to use Bash", Response: "1"}
	second := State{Kind: StateAwaitingPermission, Prompt: "needs your permission to use Edit", Response: "1"}

	if sent, _, _ := r.respond(context.Background(), first); !sent {
		t.Fatal("first prompt not sent")
	}
	if sent, _, _ := r.respond(context.Background(), second); !sent {
		t.Fatal("second (distinct) prompt not sent")
	}
	if len(io.sent) != 2 {
		t.Fatalf("SendKeys calls = %d, want 2", len(io.sent))
	}
}

func TestResponder_RetriesAfterInjectionFailure(t *testing.T) {
	io := &fakePaneIO{sendErr: errors.New("pane gone")}
	r := newResponder(io, "s:0.0")
	st := State{Kind: StateAwaitingPermission, Prompt: "Do you want to proceed?", Response: "1"}

	sent, already, err := r.respond(context.Background(), st)
	if err == nil {
		t.Fatal("respond() error = nil, want injection failure")
	}
	if sent || already {
		t.Fatalf("failed respond: sent=%v already=%v, want both false", sent, already)
	}

	// The fingerprint must not be recorded on failure: the prompt is
	// re-answered when observed again.
	io.sendErr = nil
	sent, already, err = r.respond(context.Background(), st)
	if err != nil {
		t.Fatalf("respond() error: %v", err)
	}
	if !sent || already {
		t.Fatalf("retry respond: sent=%v already=%v, want sent=true already=false", sent, already)
	}
}
