package models

import (
	"strings"
	"testing"
	"time"
)

func TestRequestCheckStart(t *testing.T) {
	windowStart := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	req := Request{
		WindowStart:  windowStart,
		WindowEnd:    windowStart.Add(10 * 24 * time.Hour),
		DurationMins: 60,
		ExpiresAt:    windowStart.Add(24 * time.Hour),
	}

	tests := []struct {
		name    string
		start   time.Time
		wantErr string
	}{
		{"at window start", windowStart, ""},
		{"inside window before expiry", windowStart.Add(6 * time.Hour), ""},
		{"just before expiry", req.ExpiresAt.Add(-time.Minute), ""},

		{"before window", windowStart.Add(-time.Hour), "window"},
		{"session spills past window end", req.WindowEnd.Add(-30 * time.Minute), "window"},

		// Inside the window but past the bid's expiry: the guest has stopped
		// waiting, so the host may not schedule there.
		{"at expiry", req.ExpiresAt, "expiry"},
		{"after expiry", windowStart.Add(9 * 24 * time.Hour), "expiry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := req.CheckStart(tt.start)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid start, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
