package finance

import (
	"grana/internal/calendar"
	"grana/internal/core"
)

// Distribute splits an installment plan into dated sub-amounts spread as
// evenly as possible across the months between the plan's start and end
// dates, rather than one per calendar month.
//
// The plan is validated first: counts outside [2, 24] and a non-positive
// date range are rejected before any computation. The total is split into
// equal cent amounts; when the total does not divide evenly, the first
// totalCents % count installments carry one extra cent so the installments
// always sum to the exact total.
func Distribute(plan core.InstallmentPlan) ([]core.Installment, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	base := plan.TotalAmount.Cents / int64(plan.Count)
	extra := plan.TotalAmount.Cents % int64(plan.Count)

	span := calendar.MonthsBetweenInclusive(plan.StartDate, plan.EndDate)
	interval := span / plan.Count
	remainder := span % plan.Count

	installments := make([]core.Installment, plan.Count)
	for i := 0; i < plan.Count; i++ {
		monthsToAdd := i*interval + min(i, remainder)
		amount := base
		if int64(i) < extra {
			amount++
		}
		installments[i] = core.Installment{
			Index:   i + 1,
			Amount:  core.Money{Cents: amount},
			DueDate: calendar.AddMonths(plan.StartDate, monthsToAdd),
		}
	}
	return installments, nil
}
