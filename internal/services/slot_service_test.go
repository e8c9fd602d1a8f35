package services

import (
	"strings"
	"testing"
	"time"
)

func shape(start time.Time, durationMins int) SlotInput {
	return SlotInput{
		StartTime:        start,
		DurationMins:     durationMins,
		GraceMins:        5,
		MinOverlapMins:   10,
		CancelCutoffMins: 60,
	}
}

func TestValidateShape(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lead := 30 * time.Minute
	future := now.Add(2 * time.Hour)

	tests := []struct {
		name    string
		in      SlotInput
		wantErr string
	}{
		{"valid", shape(future, 60), ""},
		{"zero duration", shape(future, 0), "duration"},
		{"too long", shape(future, 241), "duration"},
		{"negative grace", SlotInput{StartTime: future, DurationMins: 60, GraceMins: -1}, "grace"},
		{"overlap exceeds duration", SlotInput{StartTime: future, DurationMins: 30, MinOverlapMins: 31}, "overlap"},
		{"cutoff too far", SlotInput{StartTime: future, DurationMins: 60, CancelCutoffMins: 7*24*60 + 1}, "cutoff"},
		{"starts too soon", shape(now.Add(10*time.Minute), 60), "future"},
		{"starts in the past", shape(now.Add(-time.Hour), 60), "future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateShape(tt.in, lead, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b SlotInput
		want bool
	}{
		{"identical", shape(base, 60), shape(base, 60), true},
		{"b inside a", shape(base, 120), shape(base.Add(30*time.Minute), 30), true},
		{"partial overlap", shape(base, 60), shape(base.Add(30*time.Minute), 60), true},
		{"back to back", shape(base, 60), shape(base.Add(60*time.Minute), 60), false},
		{"disjoint", shape(base, 60), shape(base.Add(3*time.Hour), 60), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("overlaps = %v, want %v", got, tt.want)
			}
			// Symmetric
			if got := overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}
