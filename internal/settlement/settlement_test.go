package settlement

import (
	"testing"

	"github.com/techno-hippies/heaven-sessions/internal/models"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		outcome    string
		amount     int64
		feeBPS     int
		wantHost   int64
		wantGuest  int64
		wantTreas  int64
	}{
		{"completed takes fee", models.OutcomeCompleted, 100_000_000_000, 300, 97_000_000_000, 0, 3_000_000_000},
		{"no show guest pays host", models.OutcomeNoShowGuest, 100_000_000_000, 300, 97_000_000_000, 0, 3_000_000_000},
		{"late guest cancel pays host", models.OutcomeCancelledByGuest, 50_000_000_000, 300, 48_500_000_000, 0, 1_500_000_000},
		{"no show host refunds guest", models.OutcomeNoShowHost, 100_000_000_000, 300, 0, 100_000_000_000, 0},
		{"host cancel refunds guest", models.OutcomeCancelledByHost, 100_000_000_000, 300, 0, 100_000_000_000, 0},
		{"zero fee", models.OutcomeCompleted, 100, 0, 100, 0, 0},
		{"fee rounds down", models.OutcomeCompleted, 33, 300, 33, 0, 0},
		{"zero amount", models.OutcomeCompleted, 0, 300, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := Compute(tt.outcome, tt.amount, tt.feeBPS)
			if err != nil {
				t.Fatalf("Compute(%q, %d, %d) error: %v", tt.outcome, tt.amount, tt.feeBPS, err)
			}
			if split.HostNano != tt.wantHost || split.GuestNano != tt.wantGuest || split.TreasuryNano != tt.wantTreas {
				t.Errorf("Compute(%q, %d, %d) = %+v, want host=%d guest=%d treasury=%d",
					tt.outcome, tt.amount, tt.feeBPS, split, tt.wantHost, tt.wantGuest, tt.wantTreas)
			}
			if split.Total() != tt.amount {
				t.Errorf("split parts sum to %d, want %d", split.Total(), tt.amount)
			}
		})
	}
}

// Every outcome value must have a defined split, and the parts must sum
// exactly to the input, for awkward amounts too.
func TestComputeTotality(t *testing.T) {
	outcomes := []string{
		models.OutcomeCompleted, models.OutcomeNoShowHost, models.OutcomeNoShowGuest,
		models.OutcomeCancelledByHost, models.OutcomeCancelledByGuest,
	}
	amounts := []int64{0, 1, 7, 99, 10_001, 123_456_789, 1_000_000_000_001}

	for _, outcome := range outcomes {
		for _, amount := range amounts {
			split, err := Compute(outcome, amount, 250)
			if err != nil {
				t.Fatalf("Compute(%q, %d) unexpectedly failed: %v", outcome, amount, err)
			}
			if split.Total() != amount {
				t.Errorf("Compute(%q, %d): parts sum to %d", outcome, amount, split.Total())
			}
			if split.HostNano < 0 || split.GuestNano < 0 || split.TreasuryNano < 0 {
				t.Errorf("Compute(%q, %d): negative part in %+v", outcome, amount, split)
			}
		}
	}
}

func TestComputeRejectsUnknownOutcome(t *testing.T) {
	if _, err := Compute("exploded", 100, 300); err == nil {
		t.Error("expected error for unknown outcome")
	}
	if _, err := Compute("", 100, 300); err == nil {
		t.Error("expected error for empty outcome")
	}
}

func TestComputeRejectsBadInputs(t *testing.T) {
	if _, err := Compute(models.OutcomeCompleted, -1, 300); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := Compute(models.OutcomeCompleted, 100, 10_001); err == nil {
		t.Error("expected error for fee over 100%")
	}
	if _, err := Compute(models.OutcomeCompleted, 100, -1); err == nil {
		t.Error("expected error for negative fee")
	}
}

func TestLateCancel(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		penaltyBPS int
		feeBPS     int
		wantHost   int64
		wantTreas  int64
	}{
		// 20% penalty = 20, fee 3% of remaining 80 = 2 (floor on nano scale)
		{"typical", 100_000_000_000, 2000, 300, 77_600_000_000, 22_400_000_000},
		{"no penalty", 100_000_000_000, 0, 300, 97_000_000_000, 3_000_000_000},
		{"full penalty", 100_000_000_000, 10_000, 300, 0, 100_000_000_000},
		{"tiny amount rounds to host", 3, 2000, 300, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := LateCancel(tt.amount, tt.penaltyBPS, tt.feeBPS)
			if err != nil {
				t.Fatalf("LateCancel error: %v", err)
			}
			if split.GuestNano != 0 {
				t.Errorf("late cancellation must not refund the guest, got %d", split.GuestNano)
			}
			if split.HostNano != tt.wantHost || split.TreasuryNano != tt.wantTreas {
				t.Errorf("LateCancel(%d, %d, %d) = %+v, want host=%d treasury=%d",
					tt.amount, tt.penaltyBPS, tt.feeBPS, split, tt.wantHost, tt.wantTreas)
			}
			if split.Total() != tt.amount {
				t.Errorf("split parts sum to %d, want %d", split.Total(), tt.amount)
			}
		})
	}
}

func TestLateCancelConservation(t *testing.T) {
	for _, amount := range []int64{0, 1, 7, 10_001, 999_999_999_999} {
		for _, penalty := range []int{0, 1, 1500, 9999, 10_000} {
			split, err := LateCancel(amount, penalty, 300)
			if err != nil {
				t.Fatalf("LateCancel(%d, %d) failed: %v", amount, penalty, err)
			}
			if split.Total() != amount {
				t.Errorf("LateCancel(%d, %d): parts sum to %d", amount, penalty, split.Total())
			}
		}
	}
}
