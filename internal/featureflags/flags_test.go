package featureflags

import "testing"

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"true", true},
		{"TRUE", true},
		{" 1 ", true},
		{"on", true},
		{"yes", true},
		{"no", false},
		{"0", false},
	}
	for _, tt := range tests {
		t.Setenv("FLAG_LIVE_SEARCH", tt.value)
		if got := LiveSearch.Enabled(); got != tt.want {
			t.Errorf("FLAG_LIVE_SEARCH=%q: Enabled = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	if LiveSearch.EnvKey() != "FLAG_LIVE_SEARCH" {
		t.Fatalf("env key = %q", LiveSearch.EnvKey())
	}
	t.Setenv("FLAG_LIVE_SEARCH", "yes")
	snap := Snapshot()
	if len(snap) != len(Known) || !snap[LiveSearch] {
		t.Fatalf("snapshot = %v", snap)
	}
}
