package finance

import (
	"time"

	"grana/internal/calendar"
	"grana/internal/core"
)

// Projector composes the accrual calculator and the classifier into the
// per-month figures the dashboard shows. Output is derived on every call
// and never cached: identical inputs and reference date yield identical
// output.
type Projector struct {
	classifier *Classifier
}

// NewProjector builds a projector. A nil classifier selects one with the
// default keyword table.
func NewProjector(classifier *Classifier) *Projector {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Projector{classifier: classifier}
}

// MonthlyStats computes revenue/cost/profit/stock series for monthsBack
// consecutive months ending at the month containing referenceNow.
//
// Past months settle at their last instant; the current month accrues only
// up to referenceNow. Stock value is included only when trackStock is set.
func (p *Projector) MonthlyStats(costs []core.RecurringCost, txs []core.Transaction, stock []core.StockItem, monthsBack int, referenceNow time.Time, trackStock bool) []core.MonthlyStat {
	if monthsBack < 1 {
		return nil
	}

	stats := make([]core.MonthlyStat, 0, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		monthStart := calendar.AddMonths(calendar.StartOfMonth(referenceNow), -i)
		monthEnd := calendar.EndOfMonth(monthStart)

		reference := monthEnd
		if calendar.SameMonth(monthStart, referenceNow) {
			reference = referenceNow
		}

		var revenues core.Money
		for _, tx := range txs {
			if tx.Type != core.Deposit {
				continue
			}
			if tx.Date.Before(monthStart) || tx.Date.After(monthEnd) {
				continue
			}
			revenues = revenues.Add(tx.Amount)
		}

		monthCosts := TotalAccrued(costs, reference, monthStart)

		var stockValue core.Money
		if trackStock {
			for _, item := range stock {
				if !item.IsActive || item.CreatedAt.After(monthEnd) {
					continue
				}
				stockValue = stockValue.Add(item.CostPrice.Mul(item.Quantity))
			}
		}

		stats = append(stats, core.MonthlyStat{
			Month:      monthStart.Month(),
			Year:       monthStart.Year(),
			Revenues:   revenues,
			Costs:      monthCosts,
			Profit:     revenues.Sub(monthCosts),
			StockValue: stockValue,
		})
	}
	return stats
}

// SpendThisMonth returns the recurring-cost accrual from the start of the
// current month up to referenceNow.
func SpendThisMonth(costs []core.RecurringCost, referenceNow time.Time) core.Money {
	return TotalAccrued(costs, referenceNow, calendar.StartOfMonth(referenceNow))
}

// SpendLastMonth returns the fully settled recurring-cost accrual of the
// month before referenceNow's.
func SpendLastMonth(costs []core.RecurringCost, referenceNow time.Time) core.Money {
	lastMonthStart := calendar.AddMonths(calendar.StartOfMonth(referenceNow), -1)
	return TotalAccrued(costs, calendar.EndOfMonth(lastMonthStart), lastMonthStart)
}

// incomeLookbackMonths bounds how far back salary and variable income are
// sampled when projecting the current month.
const incomeLookbackMonths = 3

// Projection is the forward-looking view of the current month.
type Projection struct {
	FixedSalary       core.Money
	AvgVariableIncome core.Money
	BenefitTotal      core.Money
	ProjectedCosts    core.Money
	ProjectedBalance  core.Money
	PercentCommitted  float64
}

// MonthlyProjection estimates the balance at the end of referenceNow's
// month: fixed salary plus average variable income plus benefit balances,
// minus the recurring-cost accrual projected to month end.
//
// Salary is taken from the most recent month in the lookback that has any
// salary-classified deposit. Variable income is averaged over the lookback
// months before the current one. PercentCommitted is the share of that
// income already claimed by recurring costs, zero when there is no income.
func (p *Projector) MonthlyProjection(costs []core.RecurringCost, txs []core.Transaction, balances []core.BenefitBalance, referenceNow time.Time) Projection {
	currentStart := calendar.StartOfMonth(referenceNow)

	var salary core.Money
	for back := 0; back <= incomeLookbackMonths; back++ {
		monthStart := calendar.AddMonths(currentStart, -back)
		monthEnd := calendar.EndOfMonth(monthStart)
		var monthSalary core.Money
		for _, tx := range txs {
			if tx.Date.Before(monthStart) || tx.Date.After(monthEnd) {
				continue
			}
			if p.classifier.ClassifyTransaction(tx).IsSalary {
				monthSalary = monthSalary.Add(tx.Amount)
			}
		}
		if monthSalary.Cents > 0 {
			salary = monthSalary
			break
		}
	}

	var variableTotal core.Money
	lookbackStart := calendar.AddMonths(currentStart, -incomeLookbackMonths)
	for _, tx := range txs {
		if tx.Date.Before(lookbackStart) || !tx.Date.Before(currentStart) {
			continue
		}
		if p.classifier.ClassifyTransaction(tx).IsVariableIncome {
			variableTotal = variableTotal.Add(tx.Amount)
		}
	}
	avgVariable := core.Money{Cents: variableTotal.Cents / incomeLookbackMonths}

	var benefitTotal core.Money
	for _, b := range balances {
		benefitTotal = benefitTotal.Add(b.Value)
	}

	projectedCosts := TotalAccrued(costs, calendar.EndOfMonth(referenceNow), currentStart)

	income := salary.Add(avgVariable).Add(benefitTotal)
	percent := 0.0
	if income.Cents > 0 {
		percent = float64(projectedCosts.Cents) / float64(income.Cents) * 100
	}

	return Projection{
		FixedSalary:       salary,
		AvgVariableIncome: avgVariable,
		BenefitTotal:      benefitTotal,
		ProjectedCosts:    projectedCosts,
		ProjectedBalance:  income.Sub(projectedCosts),
		PercentCommitted:  percent,
	}
}
