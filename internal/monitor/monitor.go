package monitor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	tmotel "github.com/WENLIXIAO-CS/tmux-mcp/internal/otel"
)

var tracer = otel.Tracer("tmux-mcp/monitor")

// minInterval is the floor for any poll cadence. The capture primitive is a
// subprocess round-trip; polling faster than this would busy-loop tmux.
const minInterval = 100 * time.Millisecond

// progressLogEvery bounds how often an unchanged progress marker is re-logged.
const progressLogEvery = 15 * time.Second

// Options are the monitor's tunables. Zero values take the defaults below;
// they are normally populated from the config file.
type Options struct {
	// Interval is the base poll cadence.
	Interval time.Duration
	// ProcessingInterval is the (shorter) cadence used while the pane is
	// actively producing output.
	ProcessingInterval time.Duration
	// Deadline bounds the total run duration.
	Deadline time.Duration
	// StabilityThreshold is the number of consecutive byte-identical frames
	// (with no prompt pending) that counts as "settled".
	StabilityThreshold int
	// ScanWindow is the number of trailing lines scanned for prompts.
	ScanWindow int
	// MaxCaptureFailures is the number of consecutive capture errors
	// tolerated before the run fails.
	MaxCaptureFailures int
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.ProcessingInterval <= 0 {
		o.ProcessingInterval = 500 * time.Millisecond
	}
	if o.Interval < minInterval {
		o.Interval = minInterval
	}
	if o.ProcessingInterval < minInterval {
		o.ProcessingInterval = minInterval
	}
	if o.Deadline <= 0 {
		o.Deadline = 5 * time.Minute
	}
	if o.StabilityThreshold <= 0 {
		o.StabilityThreshold = 5
	}
	if o.ScanWindow <= 0 {
		o.ScanWindow = DefaultScanWindow
	}
	if o.MaxCaptureFailures <= 0 {
		o.MaxCaptureFailures = 3
	}
	return o
}

// Monitor drives the poll loop for one target pane at a time.
// The per-run state lives entirely inside Run, so a single Monitor may be
// reused for sequential runs or shared across goroutines watching
// different targets.
type Monitor struct {
	io      PaneIO
	opts    Options
	log     *zap.Logger
	metrics *tmotel.Metrics

	// Injectable clock, overridden in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Monitor. log and metrics may be nil.
func New(io PaneIO, opts Options, log *zap.Logger, metrics *tmotel.Metrics) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		io:      io,
		opts:    opts.withDefaults(),
		log:     log,
		metrics: metrics,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Run polls the target pane until it settles, the deadline passes, or
// capture fails repeatedly. It always returns a Report — on timeout and
// failure the report carries the partial event log and the last captured
// content. Cancelling ctx stops the run at the next tick boundary and
// surfaces as StatusTimedOut.
func (m *Monitor) Run(ctx context.Context, target string) *Report {
	ctx, span := tracer.Start(ctx, "monitor_pane",
		trace.WithAttributes(attribute.String("pane.target", target)))
	defer span.End()

	start := m.now()
	rep := &Report{Target: target}
	resp := newResponder(m.io, target)

	logEvent := func(elapsed time.Duration, kind EventKind, detail string) {
		rep.Events = append(rep.Events, Event{Elapsed: elapsed, Kind: kind, Detail: detail})
		m.log.Debug("monitor event",
			zap.String("target", target),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", elapsed),
			zap.String("detail", detail))
	}

	var (
		prev         string
		havePrev     bool
		lastFrame    string
		streak       int // consecutive byte-identical frames
		captureFails int // consecutive capture errors
		lastProgress string
		lastLoggedAt time.Duration
		status       Status
	)

	for {
		elapsed := m.now().Sub(start)
		if elapsed >= m.opts.Deadline || ctx.Err() != nil {
			status = StatusTimedOut
			break
		}

		cur, err := m.io.CapturePane(ctx, target)
		if err != nil {
			captureFails++
			m.metrics.RecordCaptureError(ctx)
			logEvent(elapsed, EventCaptureError, err.Error())
			if captureFails >= m.opts.MaxCaptureFailures {
				status = StatusFailed
				break
			}
			m.sleep(ctx, m.opts.Interval)
			continue
		}
		captureFails = 0

		// The streak is driven by raw frame comparison, not by the
		// classified state.
		if havePrev && cur == prev {
			streak++
		} else {
			streak = 0
		}

		st := Classify(prev, cur, m.opts.ScanWindow)
		if !havePrev && st.Kind == StateIdle {
			// No previous frame to compare against yet.
			st = State{Kind: StateUnknown}
		}
		m.metrics.RecordTick(ctx, string(st.Kind))

		interval := m.opts.Interval
		switch st.Kind {
		case StateAwaitingPermission:
			sent, already, ierr := resp.respond(ctx, st)
			switch {
			case ierr != nil:
				m.metrics.RecordInjection(ctx, "error")
				logEvent(elapsed, EventPermission,
					fmt.Sprintf("%s → injection failed: %v", st.Prompt, ierr))
			case already:
				m.metrics.RecordInjection(ctx, "duplicate")
				logEvent(elapsed, EventPermission,
					fmt.Sprintf("%s → already answered", st.Prompt))
			case sent:
				rep.Injections++
				m.metrics.RecordInjection(ctx, "sent")
				logEvent(elapsed, EventPermission,
					fmt.Sprintf("%s → sent %q", st.Prompt, st.Response))
			}
			lastProgress = ""

		case StateProcessing, StateUnknown:
			detail := st.Progress
			if st.Kind == StateUnknown {
				detail = "output changing (no recognized shape)"
			}
			// Throttled: log when the marker changes or a coarse time
			// bucket elapses, not on every tick.
			if detail != lastProgress || elapsed-lastLoggedAt >= progressLogEvery {
				logEvent(elapsed, EventProgress, detail)
				lastProgress = detail
				lastLoggedAt = elapsed
			}
			interval = m.opts.ProcessingInterval

		case StateIdle:
			lastProgress = ""
			if streak >= m.opts.StabilityThreshold {
				logEvent(elapsed, EventIdle,
					fmt.Sprintf("no change for %d consecutive ticks", streak))
				status = StatusSucceeded
			}
		}

		prev, havePrev, lastFrame = cur, true, cur
		if status != "" {
			break
		}
		m.sleep(ctx, interval)
	}

	rep.Status = status
	rep.Elapsed = m.now().Sub(start)
	rep.FinalText = m.finalCapture(ctx, target, lastFrame)
	m.metrics.RecordRun(ctx, string(status))

	span.SetAttributes(
		attribute.String("monitor.status", string(status)),
		attribute.Int("monitor.events", len(rep.Events)),
		attribute.Int("monitor.injections", rep.Injections),
	)
	m.log.Info("monitor run finished",
		zap.String("target", target),
		zap.String("status", string(status)),
		zap.Duration("elapsed", rep.Elapsed),
		zap.Int("events", len(rep.Events)),
		zap.Int("injections", rep.Injections))

	return rep
}

// finalCapture takes one last snapshot so callers see the pane as it ended.
// Runs even when ctx was cancelled; falls back to the last polled frame if
// the capture fails.
func (m *Monitor) finalCapture(ctx context.Context, target, fallback string) string {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	out, err := m.io.CapturePane(fctx, target)
	if err != nil {
		return fallback
	}
	return out
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
