package finance

import (
	"errors"
	"fmt"
	"slices"

	"grana/internal/core"
)

var (
	// ErrCategoryNotEligible means the spend category never draws from a
	// benefit balance (salary, for one).
	ErrCategoryNotEligible = errors.New("category not eligible for benefit deduction")

	// ErrNoMatchingBenefit means no balance of the mapped type exists and
	// there is no OUTRO balance to fall back on.
	ErrNoMatchingBenefit = errors.New("no matching benefit balance")
)

// InsufficientBalanceError reports a deduction larger than the matched
// balance. Available is the untouched balance, Shortfall the missing amount.
type InsufficientBalanceError struct {
	Available core.Money
	Shortfall core.Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient benefit balance: short %s with %s available",
		e.Shortfall, e.Available)
}

// DefaultCategoryMap maps spend categories to the benefit type they draw
// from. Salary is deliberately absent: it never deducts from a benefit.
var DefaultCategoryMap = map[core.Category]core.BenefitType{
	core.Food:           core.VR,
	core.Transportation: core.VT,
	core.Housing:        core.VA,
	core.Entertainment:  core.Outro,
	core.Health:         core.Outro,
	core.Utility:        core.Outro,
	core.Education:      core.Outro,
	core.Other:          core.Outro,
}

// DeductResult carries the updated balance set and the remaining value of
// the balance that was charged.
type DeductResult struct {
	Balances  []core.BenefitBalance
	Remaining core.Money
}

// Ledger validates and applies benefit deductions. The category table is
// injectable; a nil map selects the defaults.
type Ledger struct {
	categoryMap map[core.Category]core.BenefitType
}

// NewLedger builds a ledger with the given category table.
func NewLedger(categoryMap map[core.Category]core.BenefitType) *Ledger {
	if categoryMap == nil {
		categoryMap = DefaultCategoryMap
	}
	return &Ledger{categoryMap: categoryMap}
}

// Deduct subtracts amount from the balance matching the category's benefit
// type, falling back to an OUTRO balance when no direct match exists.
//
// The input slice is never mutated: on success the returned result holds a
// copy with the deduction applied, and on any failure the caller's balances
// are untouched. A balance can never go negative; an oversized deduction
// fails with *InsufficientBalanceError carrying the shortfall for display.
func (l *Ledger) Deduct(balances []core.BenefitBalance, category core.Category, amount core.Money) (DeductResult, error) {
	benefitType, ok := l.categoryMap[category]
	if !ok {
		return DeductResult{}, ErrCategoryNotEligible
	}

	idx := -1
	for i, b := range balances {
		if b.Type == benefitType {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, b := range balances {
			if b.Type == core.Outro {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return DeductResult{}, ErrNoMatchingBenefit
	}

	if balances[idx].Value.Cents < amount.Cents {
		return DeductResult{}, &InsufficientBalanceError{
			Available: balances[idx].Value,
			Shortfall: amount.Sub(balances[idx].Value),
		}
	}

	updated := slices.Clone(balances)
	updated[idx].Value = updated[idx].Value.Sub(amount)
	return DeductResult{Balances: updated, Remaining: updated[idx].Value}, nil
}
