package models

import (
	"testing"
	"time"
)

func TestIsValidSlotTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{SlotStatusOpen, SlotStatusBooked, true},
		{SlotStatusOpen, SlotStatusCancelled, true},
		{SlotStatusBooked, SlotStatusOpen, true}, // early guest cancellation reopens
		{SlotStatusBooked, SlotStatusCancelled, true},
		{SlotStatusBooked, SlotStatusSettled, true},

		{SlotStatusOpen, SlotStatusSettled, false},
		{SlotStatusCancelled, SlotStatusOpen, false},
		{SlotStatusSettled, SlotStatusOpen, false},
		{SlotStatusSettled, SlotStatusBooked, false},
		{"nonexistent", SlotStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidSlotTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidSlotTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestSlotTimes(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	s := Slot{
		StartTime:        start,
		DurationMins:     60,
		CancelCutoffMins: 90,
	}

	if got := s.EndTime(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("EndTime() = %v, want %v", got, start.Add(time.Hour))
	}
	if got := s.CancelCutoff(); !got.Equal(start.Add(-90 * time.Minute)) {
		t.Errorf("CancelCutoff() = %v, want %v", got, start.Add(-90*time.Minute))
	}
}

func TestIsValidRequestTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{RequestStatusOpen, RequestStatusCancelled, true},
		{RequestStatusOpen, RequestStatusAccepted, true},
		{RequestStatusCancelled, RequestStatusOpen, false},
		{RequestStatusAccepted, RequestStatusCancelled, false},
		{RequestStatusAccepted, RequestStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidRequestTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidRequestTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}
