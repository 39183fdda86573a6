package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Once    Frequency = "once"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

const (
	Deposit    TransactionType = "deposit"
	Expense    TransactionType = "expense"
	Investment TransactionType = "investment"
)

const (
	Housing        Category = "housing"
	Transportation Category = "transportation"
	Food           Category = "food"
	Entertainment  Category = "entertainment"
	Health         Category = "health"
	Utility        Category = "utility"
	Salary         Category = "salary"
	Education      Category = "education"
	Other          Category = "other"
)

const (
	VA    BenefitType = "VA"
	VR    BenefitType = "VR"
	VT    BenefitType = "VT"
	Outro BenefitType = "OUTRO"
)

type (
	Frequency       string
	TransactionType string
	Category        string
	BenefitType     string

	// RecurringCost is a cost template that accrues over time. CreatedAt is
	// the accrual anchor and is immutable once persisted.
	RecurringCost struct {
		ID        int64
		Name      string
		Amount    Money
		Frequency Frequency
		IsFixed   bool
		IsActive  bool
		CreatedAt time.Time
	}

	Transaction struct {
		ID                 int64
		Type               TransactionType
		Category           Category
		Amount             Money
		Name               string
		Date               time.Time
		IsSubscription     bool
		IsRecurring        bool
		InstallmentGroupID string
		InstallmentIndex   int
	}

	// BenefitBalance is a named spending allowance (meal voucher, transport
	// card and so on). Value never goes below zero.
	BenefitBalance struct {
		Type  BenefitType
		Value Money
	}

	StockItem struct {
		ID        int64
		Name      string
		Quantity  int64
		CostPrice Money
		IsActive  bool
		CreatedAt time.Time
	}

	// MonthlyStat is a derived per-month aggregate. It is recomputed on every
	// request and never persisted.
	MonthlyStat struct {
		Month      time.Month
		Year       int
		Revenues   Money
		Costs      Money
		Profit     Money
		StockValue Money
	}

	// InstallmentPlan describes how a purchase total is split across a date
	// range.
	InstallmentPlan struct {
		TotalAmount Money
		Count       int
		StartDate   time.Time
		EndDate     time.Time
	}

	Installment struct {
		Index   int
		Amount  Money
		DueDate time.Time
	}

	// Subscription is a charge template materialized into transactions by
	// the subscription processor when due.
	Subscription struct {
		ID        int64
		Name      string
		Amount    Money
		Category  Category
		Frequency Frequency
		StartDate time.Time
		IsActive  bool
		LastRun   time.Time
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInstallmentCount     = errors.New("installment count must be between 2 and 24")
	ErrInstallmentDateRange = errors.New("installment end date must be after start date")
	ErrNegativeBenefitValue = errors.New("benefit value cannot be negative")
	ErrUnknownBenefitType   = errors.New("unknown benefit type")
)

func (f Frequency) Valid() bool {
	switch f {
	case Once, Daily, Weekly, Monthly:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Deposit, Expense, Investment:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case Housing, Transportation, Food, Entertainment, Health, Utility,
		Salary, Education, Other:
		return true
	}
	return false
}

func (b BenefitType) Valid() bool {
	switch b {
	case VA, VR, VT, Outro:
		return true
	}
	return false
}

func (c RecurringCost) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if !c.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if c.CreatedAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b BenefitBalance) Validate() error {
	if !b.Type.Valid() {
		return ErrUnknownBenefitType
	}
	if b.Value.Cents < 0 {
		return ErrNegativeBenefitValue
	}
	return nil
}

func (p InstallmentPlan) Validate() error {
	if p.Count < 2 || p.Count > 24 {
		return ErrInstallmentCount
	}
	if !p.EndDate.After(p.StartDate) {
		return ErrInstallmentDateRange
	}
	return p.TotalAmount.Validate()
}
