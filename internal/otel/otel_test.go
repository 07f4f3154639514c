package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "Authorization=Basic abc123", map[string]string{"Authorization": "Basic abc123"}},
		{"multiple", "a=1,b=2", map[string]string{"a": "1", "b": "2"}},
		{"spaces_trimmed", " a = 1 , b = 2 ", map[string]string{"a": "1", "b": "2"}},
		{"value_with_equals", "key=a=b", map[string]string{"key": "a=b"}},
		{"malformed_dropped", "novalue,=empty,ok=1", map[string]string{"ok": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHeaders(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parseHeaders(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseHeaders(%q)[%q] = %q, want %q", tt.in, k, got[k], v)
				}
			}
		})
	}
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	tel, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if tel.Tracer == nil {
		t.Error("Tracer is nil, want a no-op tracer")
	}
	if tel.Metrics == nil {
		t.Error("Metrics is nil, want no-op instruments")
	}

	// Recording through no-op instruments must not panic.
	tel.Metrics.RecordToolCall(context.Background(), "tmux_send_keys", "ok")
	tel.Metrics.RecordRun(context.Background(), "succeeded")
	tel.Shutdown(context.Background())
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordToolCall(ctx, "tmux_send_keys", "ok")
	m.RecordRun(ctx, "succeeded")
	m.RecordTick(ctx, "idle")
	m.RecordInjection(ctx, "sent")
	m.RecordCaptureError(ctx)
}
