package rules

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPlanMismatch  = errors.New("installment plan does not match total")
)

// planEpsilon is the largest allowed gap between a plan's sum and the
// purchase total, in currency units.
var planEpsilon = decimal.RequireFromString("0.01")

const deferredDueDays = 30

type PlanEntry struct {
	Amount    decimal.Decimal
	DaysAfter int
}

type Allocation struct {
	No      int
	Amount  decimal.Decimal
	DueDate time.Time
	Paid    bool
}

// AllocateSplit builds the paid-now/due-later schedule: installment #1 is the
// amount settled at purchase time, installment #2 carries the remainder due
// 30 days later. Either leg is omitted when its amount is zero.
func AllocateSplit(total, paid decimal.Decimal, now time.Time) ([]Allocation, error) {
	if total.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if paid.Sign() < 0 || paid.GreaterThan(total) {
		return nil, ErrInvalidAmount
	}

	due := total.Sub(paid)
	allocations := make([]Allocation, 0, 2)

	if paid.Sign() > 0 {
		allocations = append(allocations, Allocation{
			No:      1,
			Amount:  paid,
			DueDate: now,
			Paid:    true,
		})
	}
	if due.Sign() > 0 {
		allocations = append(allocations, Allocation{
			No:      len(allocations) + 1,
			Amount:  due,
			DueDate: now.AddDate(0, 0, deferredDueDays),
			Paid:    false,
		})
	}

	if len(allocations) == 0 {
		// total > 0 guarantees at least one leg above.
		return nil, ErrInvalidAmount
	}

	return allocations, nil
}

// AllocatePlan validates an explicit schedule against the purchase total and
// converts it to dated allocations. The sum of entry amounts must match the
// total within planEpsilon; any remaining sub-cent gap is folded into the
// final installment so the stored schedule sums to the total exactly.
func AllocatePlan(total decimal.Decimal, entries []PlanEntry, now time.Time) ([]Allocation, error) {
	if total.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(entries) == 0 {
		return nil, ErrPlanMismatch
	}

	sum := decimal.Zero
	allocations := make([]Allocation, 0, len(entries))
	for i, entry := range entries {
		if entry.Amount.Sign() <= 0 || entry.DaysAfter < 0 {
			return nil, ErrInvalidAmount
		}
		sum = sum.Add(entry.Amount)
		allocations = append(allocations, Allocation{
			No:      i + 1,
			Amount:  entry.Amount,
			DueDate: now.AddDate(0, 0, entry.DaysAfter),
			Paid:    false,
		})
	}

	delta := total.Sub(sum)
	if delta.Abs().GreaterThan(planEpsilon) {
		return nil, ErrPlanMismatch
	}
	if !delta.IsZero() {
		last := &allocations[len(allocations)-1]
		last.Amount = last.Amount.Add(delta)
		if last.Amount.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
	}

	return allocations, nil
}

// PaidPortion sums the allocations already settled at creation time.
func PaidPortion(allocations []Allocation) decimal.Decimal {
	paid := decimal.Zero
	for _, a := range allocations {
		if a.Paid {
			paid = paid.Add(a.Amount)
		}
	}
	return paid
}
