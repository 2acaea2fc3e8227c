package payment

import "testing"

func TestFormatRemainingTime(t *testing.T) {
	tests := []struct {
		ms     int64
		expect string
	}{
		{65000, "1m 5s"},
		{45000, "45s"},
		{0, "0s"},
		{60000, "1m 0s"},
		{125000, "2m 5s"},
		{999, "0s"},
		{-5000, "0s"},
	}

	for _, tt := range tests {
		if got := FormatRemainingTime(tt.ms); got != tt.expect {
			t.Errorf("FormatRemainingTime(%d) = %q, want %q", tt.ms, got, tt.expect)
		}
	}
}
