package finance

import (
	"testing"
	"time"

	"grana/internal/core"
)

func expense(cents int64, cat core.Category, name string, d time.Time) core.Transaction {
	return core.Transaction{Type: core.Expense, Category: cat, Amount: core.Money{Cents: cents}, Name: name, Date: d}
}

func TestObservedRecurring(t *testing.T) {
	asOf := date(2024, 3, 15)
	candidate := expense(4990, core.Entertainment, "Streaming Plus", asOf)

	tests := []struct {
		name    string
		history []core.Transaction
		want    bool
	}{
		{
			name: "two same-name occurrences in window",
			history: []core.Transaction{
				expense(4990, core.Entertainment, "Streaming Plus", date(2024, 1, 15)),
				expense(4990, core.Entertainment, "Streaming Plus", date(2024, 2, 15)),
			},
			want: true,
		},
		{
			name: "single occurrence is not enough",
			history: []core.Transaction{
				expense(4990, core.Entertainment, "Streaming Plus", date(2024, 2, 15)),
			},
			want: false,
		},
		{
			name: "occurrences outside the lookback do not count",
			history: []core.Transaction{
				expense(4990, core.Entertainment, "Streaming Plus", date(2023, 10, 15)),
				expense(4990, core.Entertainment, "Streaming Plus", date(2023, 11, 15)),
			},
			want: false,
		},
		{
			name: "dissimilar amounts do not count",
			history: []core.Transaction{
				expense(9990, core.Entertainment, "Streaming Plus", date(2024, 1, 15)),
				expense(9990, core.Entertainment, "Streaming Plus", date(2024, 2, 15)),
			},
			want: false,
		},
		{
			name: "same category with shared leading token counts",
			history: []core.Transaction{
				expense(4990, core.Entertainment, "Streaming Family", date(2024, 1, 15)),
				expense(5100, core.Entertainment, "Streaming Premium", date(2024, 2, 15)),
			},
			want: true,
		},
		{
			name: "shared token in a different category does not count",
			history: []core.Transaction{
				expense(4990, core.Education, "Streaming Family", date(2024, 1, 15)),
				expense(5100, core.Education, "Streaming Premium", date(2024, 2, 15)),
			},
			want: false,
		},
		{
			name: "different transaction type does not count",
			history: []core.Transaction{
				deposit(4990, core.Entertainment, "Streaming Plus", date(2024, 1, 15)),
				deposit(4990, core.Entertainment, "Streaming Plus", date(2024, 2, 15)),
			},
			want: false,
		},
		{
			name: "name match is case and whitespace insensitive",
			history: []core.Transaction{
				expense(4990, core.Entertainment, "  streaming   PLUS ", date(2024, 1, 15)),
				expense(5090, core.Entertainment, "STREAMING plus", date(2024, 2, 15)),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObservedRecurring(tt.history, candidate, asOf)
			if got != tt.want {
				t.Errorf("ObservedRecurring() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObservedRecurringSkipsSelf(t *testing.T) {
	asOf := date(2024, 3, 15)
	candidate := expense(4990, core.Entertainment, "Streaming Plus", asOf)
	candidate.ID = 42

	same := candidate
	history := []core.Transaction{
		same,
		expense(4990, core.Entertainment, "Streaming Plus", date(2024, 2, 15)),
	}
	if ObservedRecurring(history, candidate, asOf) {
		t.Error("a transaction must not match itself")
	}
}
