package finance

import (
	"strings"

	"grana/internal/core"
)

// Flags is the classification of a single transaction for reporting.
// For non-expense types exactly one of IsSalary, IsBenefit,
// IsVariableIncome and IsInvestment is set; for expenses exactly one of
// IsFixedExpense and IsVariableExpense is set.
type Flags struct {
	IsSalary          bool
	IsBenefit         bool
	IsVariableIncome  bool
	IsFixedExpense    bool
	IsVariableExpense bool
	IsInvestment      bool
}

// DefaultFixedKeywords are the name fragments that mark an expense as fixed
// when no recurrence or category signal applies. Matching is
// case-insensitive substring containment.
var DefaultFixedKeywords = []string{
	"aluguel", "rent", "financiamento", "condomínio", "luz", "água",
	"internet", "telefone", "energia", "plano", "mensalidade", "iptu",
}

// Classifier tags transactions as salary, benefit, fixed or variable
// expense, variable income, or investment. The keyword table is injectable;
// a nil slice selects the defaults.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier with the given fixed-expense keywords.
func NewClassifier(fixedKeywords []string) *Classifier {
	if fixedKeywords == nil {
		fixedKeywords = DefaultFixedKeywords
	}
	lowered := make([]string, len(fixedKeywords))
	for i, kw := range fixedKeywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Classifier{keywords: lowered}
}

// Classify is a total, pure function over the transaction's signals.
// isRecurring is the externally computed recurrence evidence; a one-off
// deposit is never classified as a benefit.
func (c *Classifier) Classify(typ core.TransactionType, category core.Category, name string, isRecurring, isSubscription bool) Flags {
	var f Flags

	f.IsInvestment = typ == core.Investment
	f.IsSalary = typ == core.Deposit && category == core.Salary
	f.IsBenefit = typ == core.Deposit && category != core.Salary && isRecurring
	f.IsVariableIncome = typ == core.Deposit && !f.IsSalary && !f.IsBenefit

	if typ == core.Expense {
		f.IsFixedExpense = isSubscription || isRecurring ||
			category == core.Housing || category == core.Utility ||
			c.matchesFixedKeyword(name)
		f.IsVariableExpense = !f.IsFixedExpense
	}
	return f
}

// ClassifyTransaction applies Classify to a transaction record.
func (c *Classifier) ClassifyTransaction(tx core.Transaction) Flags {
	return c.Classify(tx.Type, tx.Category, tx.Name, tx.IsRecurring, tx.IsSubscription)
}

func (c *Classifier) matchesFixedKeyword(name string) bool {
	lowered := strings.ToLower(name)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
