package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tmux-mcp"

// Metrics holds all OTEL metric instruments for tmux-mcp.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Tool call counter (partitioned by tool name + outcome via attributes)
	ToolCalls metric.Int64Counter

	// Monitor counters
	MonitorRuns   metric.Int64Counter // partitioned by terminal status
	MonitorTicks  metric.Int64Counter // partitioned by classified state
	Injections    metric.Int64Counter // partitioned by result: sent, duplicate, error
	CaptureErrors metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ToolCalls, err = meter.Int64Counter("mcp.tool_calls",
		metric.WithDescription("Total MCP tool invocations partitioned by tool and outcome"))
	if err != nil {
		return nil, err
	}

	m.MonitorRuns, err = meter.Int64Counter("monitor.runs",
		metric.WithDescription("Total monitor runs partitioned by terminal status"))
	if err != nil {
		return nil, err
	}

	m.MonitorTicks, err = meter.Int64Counter("monitor.ticks",
		metric.WithDescription("Total monitor poll ticks partitioned by classified activity state"))
	if err != nil {
		return nil, err
	}

	m.Injections, err = meter.Int64Counter("monitor.injections",
		metric.WithDescription("Total auto-response injection attempts partitioned by result"))
	if err != nil {
		return nil, err
	}

	m.CaptureErrors, err = meter.Int64Counter("monitor.capture_errors",
		metric.WithDescription("Total pane capture failures observed by the monitor"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordToolCall records one MCP tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.tool", tool),
		attribute.String("mcp.outcome", outcome),
	))
}

// RecordRun records a completed monitor run.
func (m *Metrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.MonitorRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("monitor.status", status),
	))
}

// RecordTick records one poll tick with its classified state.
func (m *Metrics) RecordTick(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.MonitorTicks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("monitor.state", state),
	))
}

// RecordInjection records one auto-response attempt.
func (m *Metrics) RecordInjection(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.Injections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("monitor.injection", result),
	))
}

// RecordCaptureError records a pane capture failure.
func (m *Metrics) RecordCaptureError(ctx context.Context) {
	if m == nil {
		return
	}
	m.CaptureErrors.Add(ctx, 1)
}
