package monitor

import (
	"context"
	"hash/fnv"
)

// responder injects prompt answers and remembers which prompts it has
// already answered within one run. A prompt stays visible for several ticks
// after being answered (the watched TUI repaints lazily), so answering is
// keyed by a fingerprint of the extracted prompt text.
type responder struct {
	io       PaneIO
	target   string
	answered map[uint64]struct{}
}

func newResponder(io PaneIO, target string) *responder {
	return &responder{
		io:       io,
		target:   target,
		answered: make(map[uint64]struct{}),
	}
}

// fingerprint derives the duplicate-suppression key for a prompt.
func fingerprint(prompt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prompt))
	return h.Sum64()
}

// respond injects the state's response keystrokes unless this prompt was
// already answered. Returns whether an injection was sent and whether the
// prompt had been answered before. The fingerprint is recorded only on a
// successful send, so an injection failure is retried when the prompt is
// re-observed on a later tick.
func (r *responder) respond(ctx context.Context, st State) (sent, already bool, err error) {
	fp := fingerprint(st.Prompt)
	if _, ok := r.answered[fp]; ok {
		return false, true, nil
	}
	if err := r.io.SendKeys(ctx, r.target, st.Response, true); err != nil {
		return false, false, err
	}
	r.answered[fp] = struct{}{}
	return true, false, nil
}
