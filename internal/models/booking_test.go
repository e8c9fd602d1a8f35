package models

import (
	"testing"
	"time"
)

func TestIsValidBookingTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{BookingStatusBooked, BookingStatusAttested, true},
		{BookingStatusAttested, BookingStatusFinalized, true},
		{BookingStatusAttested, BookingStatusDisputed, true},
		{BookingStatusDisputed, BookingStatusResolved, true},
		{BookingStatusResolved, BookingStatusFinalized, true},

		// Cancellation and escape hatch
		{BookingStatusBooked, BookingStatusCancelled, true},
		{BookingStatusBooked, BookingStatusFinalized, true}, // claim-if-unattested

		// Invalid transitions
		{BookingStatusBooked, BookingStatusDisputed, false},
		{BookingStatusBooked, BookingStatusResolved, false},
		{BookingStatusAttested, BookingStatusCancelled, false},
		{BookingStatusAttested, BookingStatusResolved, false},
		{BookingStatusDisputed, BookingStatusFinalized, false},
		{BookingStatusDisputed, BookingStatusCancelled, false},
		{BookingStatusResolved, BookingStatusDisputed, false},
		{BookingStatusFinalized, BookingStatusBooked, false},
		{BookingStatusFinalized, BookingStatusFinalized, false},
		{BookingStatusCancelled, BookingStatusBooked, false},
		{"nonexistent", BookingStatusBooked, false},
		{BookingStatusBooked, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidBookingTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidBookingTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllBookingStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		BookingStatusBooked, BookingStatusCancelled, BookingStatusAttested,
		BookingStatusDisputed, BookingStatusResolved, BookingStatusFinalized,
	}

	for _, status := range allStatuses {
		if _, ok := ValidBookingTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidBookingTransitions map", status)
		}
	}
}

func TestTerminalBookingStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{BookingStatusCancelled, BookingStatusFinalized}
	for _, status := range terminal {
		transitions := ValidBookingTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestIsAttestableOutcome(t *testing.T) {
	attestable := []string{OutcomeCompleted, OutcomeNoShowHost, OutcomeNoShowGuest}
	for _, o := range attestable {
		if !IsAttestableOutcome(o) {
			t.Errorf("outcome %q should be attestable", o)
		}
	}

	// Cancellations are reported through the cancel paths, never attested.
	notAttestable := []string{OutcomeCancelledByHost, OutcomeCancelledByGuest, "garbage", ""}
	for _, o := range notAttestable {
		if IsAttestableOutcome(o) {
			t.Errorf("outcome %q should not be attestable", o)
		}
	}
}

func TestIsValidOutcome(t *testing.T) {
	valid := []string{
		OutcomeCompleted, OutcomeNoShowHost, OutcomeNoShowGuest,
		OutcomeCancelledByHost, OutcomeCancelledByGuest,
	}
	for _, o := range valid {
		if !IsValidOutcome(o) {
			t.Errorf("outcome %q should be valid", o)
		}
	}
	if IsValidOutcome("refunded") || IsValidOutcome("") {
		t.Error("unexpected outcome accepted")
	}
}

func TestBookingSessionEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	b := BookingWithSlot{
		StartTime:    start,
		DurationMins: 60,
	}
	want := start.Add(time.Hour)
	if got := b.SessionEnd(); !got.Equal(want) {
		t.Errorf("SessionEnd() = %v, want %v", got, want)
	}
}

func TestAttestWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	b := BookingWithSlot{
		StartTime:      start,
		DurationMins:   60,
		GraceMins:      5,
		MinOverlapMins: 10,
	}

	noShowFrom := start.Add(5 * time.Minute)
	noShowUntil := noShowFrom.Add(60 * time.Minute)
	completedFrom := start.Add(10 * time.Minute)
	completedUntil := start.Add(60 * time.Minute).Add(AttestCompletedDeadline)

	tests := []struct {
		name      string
		outcome   string
		wantFrom  time.Time
		wantUntil time.Time
		wantOK    bool
	}{
		{"no-show host", OutcomeNoShowHost, noShowFrom, noShowUntil, true},
		{"no-show guest", OutcomeNoShowGuest, noShowFrom, noShowUntil, true},
		{"completed", OutcomeCompleted, completedFrom, completedUntil, true},
		{"cancelled by host", OutcomeCancelledByHost, time.Time{}, time.Time{}, false},
		{"cancelled by guest", OutcomeCancelledByGuest, time.Time{}, time.Time{}, false},
		{"garbage", "garbage", time.Time{}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, until, ok := b.AttestWindow(tt.outcome)
			if ok != tt.wantOK {
				t.Fatalf("AttestWindow(%q) ok = %v, want %v", tt.outcome, ok, tt.wantOK)
			}
			if !from.Equal(tt.wantFrom) || !until.Equal(tt.wantUntil) {
				t.Errorf("AttestWindow(%q) = [%v, %v], want [%v, %v]",
					tt.outcome, from, until, tt.wantFrom, tt.wantUntil)
			}
		})
	}
}

func TestAttestWindowBoundaries(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	b := BookingWithSlot{
		StartTime:      start,
		DurationMins:   60,
		GraceMins:      5,
		MinOverlapMins: 10,
	}

	inWindow := func(outcome string, at time.Time) bool {
		from, until, ok := b.AttestWindow(outcome)
		if !ok {
			t.Fatalf("outcome %q not attestable", outcome)
		}
		return !at.Before(from) && !at.After(until)
	}

	tests := []struct {
		name    string
		outcome string
		at      time.Time
		want    bool
	}{
		// No-show: grace must elapse first; stale one session length later.
		{"no-show before grace", OutcomeNoShowHost, start.Add(4 * time.Minute), false},
		{"no-show at grace", OutcomeNoShowHost, start.Add(5 * time.Minute), true},
		{"no-show mid-session", OutcomeNoShowHost, start.Add(30 * time.Minute), true},
		{"no-show at staleness bound", OutcomeNoShowHost, start.Add(65 * time.Minute), true},
		{"no-show stale", OutcomeNoShowHost, start.Add(66 * time.Minute), false},

		// Completed: needs the minimum overlap behind it; closes after the
		// post-session deadline.
		{"completed before overlap", OutcomeCompleted, start.Add(9 * time.Minute), false},
		{"completed at overlap", OutcomeCompleted, start.Add(10 * time.Minute), true},
		{"completed after session", OutcomeCompleted, start.Add(90 * time.Minute), true},
		{"completed at deadline", OutcomeCompleted, start.Add(60*time.Minute + AttestCompletedDeadline), true},
		{"completed past deadline", OutcomeCompleted, start.Add(60*time.Minute + AttestCompletedDeadline + time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inWindow(tt.outcome, tt.at); got != tt.want {
				t.Errorf("attestable at %v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
