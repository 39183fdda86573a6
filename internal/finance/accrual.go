// Package finance implements the accrual and projection engine: how much a
// recurring cost has accrued as of a reference date, how an installment
// purchase spreads across a date range, how transactions are classified for
// reporting, and how those pieces combine into monthly figures.
//
// Every function takes its reference date as an explicit parameter and
// performs no I/O, so each computation is deterministic.
//
// This file implements the Strategy Pattern for accrual unit counting. Each
// frequency type (daily, weekly, monthly) has its own counter that
// encapsulates how elapsed time converts into accrued units.
package finance

import (
	"time"

	"grana/internal/calendar"
	"grana/internal/core"
)

// UnitCounter is the strategy interface for counting accrued units of a
// recurring cost between its effective start and a reference date.
type UnitCounter interface {
	// Units returns how many occurrences have accrued in
	// [effectiveStart, reference]. The period containing the start counts
	// as fully accrued; partial periods are never pro-rated.
	Units(effectiveStart, reference time.Time) int64
}

// DailyCounter implements UnitCounter for daily costs.
type DailyCounter struct{}

// Units counts calendar days, both endpoints included.
func (DailyCounter) Units(effectiveStart, reference time.Time) int64 {
	return int64(calendar.DaysBetweenInclusive(effectiveStart, reference))
}

// WeeklyCounter implements UnitCounter for weekly costs.
type WeeklyCounter struct{}

// Units counts Sunday-aligned weeks, both endpoints' weeks included.
func (WeeklyCounter) Units(effectiveStart, reference time.Time) int64 {
	from := calendar.WeekStart(effectiveStart)
	to := calendar.WeekStart(reference)
	days := int64(to.Sub(from).Hours() / 24)
	return days/7 + 1
}

// MonthlyCounter implements UnitCounter for monthly costs.
type MonthlyCounter struct{}

// Units counts calendar months, both endpoints' months included.
func (MonthlyCounter) Units(effectiveStart, reference time.Time) int64 {
	return int64(calendar.MonthsBetweenInclusive(effectiveStart, reference))
}

// accrualStrategies maps frequencies to their unit counters. A frequency
// missing from the registry accrues zero, matching the fail-soft policy for
// malformed cost records.
var accrualStrategies = map[core.Frequency]UnitCounter{
	core.Daily:   DailyCounter{},
	core.Weekly:  WeeklyCounter{},
	core.Monthly: MonthlyCounter{},
}

// RegisterUnitCounter registers a counter for a custom frequency type.
func RegisterUnitCounter(frequency core.Frequency, counter UnitCounter) {
	accrualStrategies[frequency] = counter
}

// AccruedAmount returns how much of cost has accrued as of reference,
// counting from windowStart at the earliest.
//
// Inactive costs and costs created after the reference date contribute
// nothing. Non-fixed and one-off costs contribute their amount exactly once,
// never scaled by elapsed time. Recurring fixed costs accrue
// amount * units, where the unit count includes the period of the effective
// start: a monthly cost created on the window start has accrued one full
// unit by the end of that month.
func AccruedAmount(cost core.RecurringCost, reference, windowStart time.Time) core.Money {
	if !cost.IsActive {
		return core.Money{}
	}
	created := calendar.Truncate(cost.CreatedAt)
	if created.After(reference) {
		return core.Money{}
	}
	if !cost.IsFixed || cost.Frequency == core.Once {
		return cost.Amount
	}

	effectiveStart := created
	if windowStart.After(effectiveStart) {
		effectiveStart = calendar.Truncate(windowStart)
	}

	counter, ok := accrualStrategies[cost.Frequency]
	if !ok {
		// Unrecognized frequency: this is a display aggregate, not a
		// ledger of record, so the contribution is silently absent.
		return core.Money{}
	}
	units := counter.Units(effectiveStart, reference)
	if units <= 0 {
		return core.Money{}
	}
	return cost.Amount.Mul(units)
}

// TotalAccrued sums AccruedAmount over all costs in scope.
func TotalAccrued(costs []core.RecurringCost, reference, windowStart time.Time) core.Money {
	var total core.Money
	for _, cost := range costs {
		total = total.Add(AccruedAmount(cost, reference, windowStart))
	}
	return total
}
