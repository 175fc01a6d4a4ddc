package longrun

import "testing"

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusNotStarted, false},
		{StatusRunning, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
		{StatusCancelled, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%q.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"notStarted", StatusNotStarted},
		{"pending", StatusNotStarted},
		{"Running", StatusRunning},
		{"started", StatusRunning},
		{"succeeded", StatusSucceeded},
		{"SUCCESS", StatusSucceeded},
		{"failed", StatusFailed},
		{"failure", StatusFailed},
		{"canceled", StatusCancelled},
		{"revoked", StatusCancelled},
		{" cancelled ", StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	for _, input := range []string{"", "skipped", "42"} {
		if _, err := ParseStatus(input); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", input)
		}
	}
}

func TestStatus_String(t *testing.T) {
	if StatusSucceeded.String() != "succeeded" {
		t.Errorf("String() = %q, want succeeded", StatusSucceeded.String())
	}
}
