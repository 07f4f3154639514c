package model

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target  string
		session string
		window  int
		pane    int
		wantErr bool
	}{
		{"mysession:0.0", "mysession", 0, 0, false},
		{"work:2.1", "work", 2, 1, false},
		{"my:session:3.4", "my:session", 3, 4, false},
		{"mysession", "", 0, 0, true},
		{"mysession:0", "", 0, 0, true},
		{"mysession:a.0", "", 0, 0, true},
		{"mysession:0.b", "", 0, 0, true},
		{"", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p, err := ParseTarget(tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTarget(%q) error = nil, want error", tt.target)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTarget(%q) error: %v", tt.target, err)
			}
			if p.Session != tt.session || p.Window != tt.window || p.Index != tt.pane {
				t.Errorf("ParseTarget(%q) = {%s %d %d}, want {%s %d %d}",
					tt.target, p.Session, p.Window, p.Index, tt.session, tt.window, tt.pane)
			}
		})
	}
}

func TestValidTarget(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"mysession:0.0", true},
		{"%3", true},
		{"%", false},
		{"mysession", false},
		{"  ", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidTarget(tt.target); got != tt.want {
			t.Errorf("ValidTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
