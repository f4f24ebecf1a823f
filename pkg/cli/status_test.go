package cli

import "testing"

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{59, "59s"},
		{60, "1m0s"},
		{3661, "1h1m1s"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

// Tests run with stdout redirected, so the color helpers must pass text
// through untouched.
func TestColorHelpers_NoTerminal(t *testing.T) {
	if got := colorGreen("running"); got != "running" {
		t.Errorf("colorGreen() = %q, want plain text", got)
	}
	if got := colorRed("stopped"); got != "stopped" {
		t.Errorf("colorRed() = %q, want plain text", got)
	}
}
