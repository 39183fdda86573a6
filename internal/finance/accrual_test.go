package finance

import (
	"testing"
	"time"

	"grana/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cost(cents int64, freq core.Frequency, fixed bool, createdAt time.Time) core.RecurringCost {
	return core.RecurringCost{
		Name:      "test cost",
		Amount:    core.Money{Cents: cents},
		Frequency: freq,
		IsFixed:   fixed,
		IsActive:  true,
		CreatedAt: createdAt,
	}
}

func TestAccruedAmount(t *testing.T) {
	windowMarch := date(2024, 3, 1)

	tests := []struct {
		name        string
		cost        core.RecurringCost
		reference   time.Time
		windowStart time.Time
		want        int64
	}{
		{
			name:        "daily accrues per day inclusive",
			cost:        cost(10000, core.Daily, true, date(2024, 3, 1)),
			reference:   date(2024, 3, 5),
			windowStart: windowMarch,
			want:        50000,
		},
		{
			name:        "once before creation day",
			cost:        cost(5000, core.Once, false, date(2024, 3, 10)),
			reference:   date(2024, 3, 9),
			windowStart: windowMarch,
			want:        0,
		},
		{
			name:        "once on creation day",
			cost:        cost(5000, core.Once, false, date(2024, 3, 10)),
			reference:   date(2024, 3, 10),
			windowStart: windowMarch,
			want:        5000,
		},
		{
			name:        "non-fixed monthly behaves as once",
			cost:        cost(7500, core.Monthly, false, date(2024, 1, 1)),
			reference:   date(2024, 3, 31),
			windowStart: windowMarch,
			want:        7500,
		},
		{
			name: "inactive contributes nothing",
			cost: func() core.RecurringCost {
				c := cost(10000, core.Daily, true, date(2024, 3, 1))
				c.IsActive = false
				return c
			}(),
			reference:   date(2024, 3, 5),
			windowStart: windowMarch,
			want:        0,
		},
		{
			name:        "created after reference contributes nothing",
			cost:        cost(10000, core.Daily, true, date(2024, 4, 1)),
			reference:   date(2024, 3, 31),
			windowStart: windowMarch,
			want:        0,
		},
		{
			name:        "monthly created at window start is one unit at month end",
			cost:        cost(120000, core.Monthly, true, date(2024, 3, 1)),
			reference:   date(2024, 3, 31),
			windowStart: windowMarch,
			want:        120000,
		},
		{
			name:        "monthly spans three months",
			cost:        cost(120000, core.Monthly, true, date(2024, 1, 15)),
			reference:   date(2024, 3, 20),
			windowStart: date(2024, 1, 1),
			want:        360000,
		},
		{
			name:        "weekly within one week is one unit",
			cost:        cost(2000, core.Weekly, true, date(2024, 3, 6)),
			reference:   date(2024, 3, 8),
			windowStart: windowMarch,
			want:        2000,
		},
		{
			name:        "weekly crossing sunday is two units",
			cost:        cost(2000, core.Weekly, true, date(2024, 3, 6)),
			reference:   date(2024, 3, 12),
			windowStart: windowMarch,
			want:        4000,
		},
		{
			name:        "window start after creation narrows the accrual",
			cost:        cost(10000, core.Daily, true, date(2024, 1, 1)),
			reference:   date(2024, 3, 5),
			windowStart: windowMarch,
			want:        50000,
		},
		{
			name:        "window start after reference yields nothing",
			cost:        cost(10000, core.Daily, true, date(2024, 3, 1)),
			reference:   date(2024, 3, 5),
			windowStart: date(2024, 3, 10),
			want:        0,
		},
		{
			name:        "unknown frequency accrues zero",
			cost:        cost(10000, core.Frequency("yearly"), true, date(2024, 1, 1)),
			reference:   date(2024, 3, 31),
			windowStart: windowMarch,
			want:        0,
		},
		{
			name:        "reference time of day still counts the day",
			cost:        cost(10000, core.Daily, true, date(2024, 3, 1)),
			reference:   time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
			windowStart: windowMarch,
			want:        50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AccruedAmount(tt.cost, tt.reference, tt.windowStart)
			if got.Cents != tt.want {
				t.Errorf("AccruedAmount() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestAccruedAmountOnceIgnoresWindowStart(t *testing.T) {
	// Non-recurring costs contribute their amount once regardless of where
	// the window starts.
	c := cost(5000, core.Once, false, date(2024, 2, 10))
	for _, ws := range []time.Time{date(2024, 1, 1), date(2024, 3, 1), date(2024, 6, 1)} {
		got := AccruedAmount(c, date(2024, 6, 30), ws)
		if got.Cents != 5000 {
			t.Errorf("AccruedAmount(windowStart=%v) = %d, want 5000", ws, got.Cents)
		}
	}
}

func TestTotalAccrued(t *testing.T) {
	costs := []core.RecurringCost{
		cost(10000, core.Daily, true, date(2024, 3, 1)),   // 5 days = 50000
		cost(120000, core.Monthly, true, date(2024, 3, 1)), // 1 month = 120000
		cost(5000, core.Once, false, date(2024, 3, 2)),     // 5000
		cost(99900, core.Daily, true, date(2024, 4, 1)),    // future, 0
	}

	got := TotalAccrued(costs, date(2024, 3, 5), date(2024, 3, 1))
	if got.Cents != 175000 {
		t.Errorf("TotalAccrued() = %d, want 175000", got.Cents)
	}
}

func TestRegisterUnitCounter(t *testing.T) {
	freq := core.Frequency("fortnightly")
	RegisterUnitCounter(freq, DailyCounter{})
	defer delete(accrualStrategies, freq)

	c := cost(100, freq, true, date(2024, 3, 1))
	got := AccruedAmount(c, date(2024, 3, 3), date(2024, 3, 1))
	if got.Cents != 300 {
		t.Errorf("AccruedAmount() with registered counter = %d, want 300", got.Cents)
	}
}
