package domain

import "testing"

func TestIntentIDFromClientSecret(t *testing.T) {
	tests := []struct {
		secret string
		expect string
	}{
		{"pi_123_secret_456", "pi_123"},
		{"pi_3OqK7a2eZvKYlo2C_secret_xyz", "pi_3OqK7a2eZvKYlo2C"},
		{"no-separator", ""},
		{"_secret_orphan", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := IntentIDFromClientSecret(tt.secret); got != tt.expect {
			t.Errorf("IntentIDFromClientSecret(%q) = %q, want %q", tt.secret, got, tt.expect)
		}
	}
}
