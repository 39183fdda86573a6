package finance

import (
	"strings"
	"time"

	"grana/internal/calendar"
	"grana/internal/core"
)

// recurrenceLookbackMonths is the trailing window scanned for repeated
// occurrences of a transaction.
const recurrenceLookbackMonths = 3

// amountSimilarityPercent is the allowed deviation between two amounts for
// them to count as occurrences of the same recurring charge.
const amountSimilarityPercent = 10

// ObservedRecurring reports whether candidate matches at least two earlier
// transactions in the trailing lookback window, either by normalized name
// or by category plus a shared leading name token, with similar amounts.
//
// This heuristic feeds the classifier's isRecurring input; it is kept apart
// from the classifier itself so the fuzzy matching stays independently
// tunable.
func ObservedRecurring(history []core.Transaction, candidate core.Transaction, asOf time.Time) bool {
	lookbackStart := calendar.AddMonths(calendar.Truncate(asOf), -recurrenceLookbackMonths)
	candName := normalizeName(candidate.Name)
	candToken := leadingToken(candName)

	matches := 0
	for _, tx := range history {
		if tx.ID != 0 && tx.ID == candidate.ID {
			continue
		}
		if tx.Type != candidate.Type {
			continue
		}
		if tx.Date.Before(lookbackStart) || tx.Date.After(asOf) {
			continue
		}
		if !amountsSimilar(tx.Amount, candidate.Amount) {
			continue
		}

		name := normalizeName(tx.Name)
		sameName := name == candName
		sameFamily := tx.Category == candidate.Category && leadingToken(name) == candToken && candToken != ""
		if sameName || sameFamily {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func leadingToken(normalized string) string {
	if i := strings.IndexByte(normalized, ' '); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

func amountsSimilar(a, b core.Money) bool {
	diff := a.Cents - b.Cents
	if diff < 0 {
		diff = -diff
	}
	larger := a.Cents
	if b.Cents > larger {
		larger = b.Cents
	}
	if larger == 0 {
		return true
	}
	return diff*100 <= larger*amountSimilarityPercent
}
