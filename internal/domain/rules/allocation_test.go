package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAllocateSplitPartialPayment(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("200.00")
	paid := decimal.RequireFromString("50.00")

	allocations, err := AllocateSplit(total, paid, now)
	if err != nil {
		t.Fatalf("allocate split: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("unexpected allocation count: %d", len(allocations))
	}

	if allocations[0].No != 1 || !allocations[0].Paid {
		t.Fatalf("first leg must be paid installment #1, got %+v", allocations[0])
	}
	if !allocations[0].Amount.Equal(paid) {
		t.Fatalf("unexpected first amount: %s", allocations[0].Amount)
	}
	if !allocations[0].DueDate.Equal(now) {
		t.Fatalf("first leg must be dated now, got %s", allocations[0].DueDate)
	}

	if allocations[1].No != 2 || allocations[1].Paid {
		t.Fatalf("second leg must be pending installment #2, got %+v", allocations[1])
	}
	if !allocations[1].Amount.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("unexpected second amount: %s", allocations[1].Amount)
	}
	if !allocations[1].DueDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("second leg must be due in 30 days, got %s", allocations[1].DueDate)
	}

	sum := allocations[0].Amount.Add(allocations[1].Amount)
	if !sum.Equal(total) {
		t.Fatalf("allocation sum %s != total %s", sum, total)
	}
}

func TestAllocateSplitFullPaymentSingleLeg(t *testing.T) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("99.90")

	allocations, err := AllocateSplit(total, total, now)
	if err != nil {
		t.Fatalf("allocate split: %v", err)
	}
	if len(allocations) != 1 {
		t.Fatalf("unexpected allocation count: %d", len(allocations))
	}
	if !allocations[0].Paid || !allocations[0].Amount.Equal(total) {
		t.Fatalf("unexpected allocation: %+v", allocations[0])
	}
}

func TestAllocateSplitNothingPaidUpfront(t *testing.T) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("120.00")

	allocations, err := AllocateSplit(total, decimal.Zero, now)
	if err != nil {
		t.Fatalf("allocate split: %v", err)
	}
	if len(allocations) != 1 {
		t.Fatalf("unexpected allocation count: %d", len(allocations))
	}
	if allocations[0].Paid || allocations[0].No != 1 {
		t.Fatalf("unexpected allocation: %+v", allocations[0])
	}
	if !allocations[0].DueDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("deferred leg must be due in 30 days, got %s", allocations[0].DueDate)
	}
}

func TestAllocateSplitRejectsOverpayment(t *testing.T) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("100.00")
	paid := decimal.RequireFromString("100.01")

	if _, err := AllocateSplit(total, paid, now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := AllocateSplit(total, decimal.RequireFromString("-1"), now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative paid, got %v", err)
	}
}

func TestAllocatePlanMatchesTotalWithinEpsilon(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("300.00")
	entries := []PlanEntry{
		{Amount: decimal.RequireFromString("100.00"), DaysAfter: 0},
		{Amount: decimal.RequireFromString("100.00"), DaysAfter: 30},
		{Amount: decimal.RequireFromString("99.99"), DaysAfter: 60},
	}

	allocations, err := AllocatePlan(total, entries, now)
	if err != nil {
		t.Fatalf("allocate plan: %v", err)
	}
	if len(allocations) != 3 {
		t.Fatalf("unexpected allocation count: %d", len(allocations))
	}
	for i, a := range allocations {
		if a.No != i+1 {
			t.Fatalf("installment numbers must be sequential, got %d at index %d", a.No, i)
		}
		if a.Paid {
			t.Fatalf("plan allocations start pending, got paid at index %d", i)
		}
		if !a.DueDate.Equal(now.AddDate(0, 0, entries[i].DaysAfter)) {
			t.Fatalf("unexpected due date at index %d: %s", i, a.DueDate)
		}
	}

	// The 0.01 gap must land in the final leg so the schedule sums exactly.
	if !allocations[2].Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("last leg must absorb the gap, got %s", allocations[2].Amount)
	}
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.Amount)
	}
	if !sum.Equal(total) {
		t.Fatalf("allocation sum %s != total %s", sum, total)
	}
}

func TestAllocatePlanReconcilesOvershoot(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("100.00")
	entries := []PlanEntry{
		{Amount: decimal.RequireFromString("50.00"), DaysAfter: 0},
		{Amount: decimal.RequireFromString("50.01"), DaysAfter: 30},
	}

	allocations, err := AllocatePlan(total, entries, now)
	if err != nil {
		t.Fatalf("allocate plan: %v", err)
	}
	if !allocations[1].Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("last leg must shed the overshoot, got %s", allocations[1].Amount)
	}

	sum := allocations[0].Amount.Add(allocations[1].Amount)
	if !sum.Equal(total) {
		t.Fatalf("allocation sum %s != total %s", sum, total)
	}
}

func TestAllocatePlanRejectsMismatchedSum(t *testing.T) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("300.00")
	entries := []PlanEntry{
		{Amount: decimal.RequireFromString("100.00"), DaysAfter: 0},
		{Amount: decimal.RequireFromString("100.00"), DaysAfter: 30},
	}

	if _, err := AllocatePlan(total, entries, now); !errors.Is(err, ErrPlanMismatch) {
		t.Fatalf("expected ErrPlanMismatch, got %v", err)
	}
}

func TestAllocatePlanRejectsBadEntries(t *testing.T) {
	now := time.Now().UTC()
	total := decimal.RequireFromString("100.00")

	cases := []struct {
		name    string
		entries []PlanEntry
	}{
		{"zero amount", []PlanEntry{{Amount: decimal.Zero, DaysAfter: 0}, {Amount: total, DaysAfter: 30}}},
		{"negative amount", []PlanEntry{{Amount: decimal.RequireFromString("-5"), DaysAfter: 0}}},
		{"negative offset", []PlanEntry{{Amount: total, DaysAfter: -1}}},
	}
	for _, tc := range cases {
		if _, err := AllocatePlan(total, tc.entries, now); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", tc.name, err)
		}
	}

	if _, err := AllocatePlan(total, nil, now); !errors.Is(err, ErrPlanMismatch) {
		t.Fatalf("empty plan: expected ErrPlanMismatch, got %v", err)
	}
}

func TestPaidPortion(t *testing.T) {
	allocations := []Allocation{
		{No: 1, Amount: decimal.RequireFromString("50.00"), Paid: true},
		{No: 2, Amount: decimal.RequireFromString("150.00"), Paid: false},
	}
	if got := PaidPortion(allocations); !got.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected paid portion: %s", got)
	}
}
