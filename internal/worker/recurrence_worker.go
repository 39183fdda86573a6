// Package worker keeps derived transaction state fresh in the background:
// it reacts to AMQP transaction events and periodically re-derives the
// recurring flag over the observation window.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grana/internal/amqp"
	"grana/internal/calendar"
	"grana/internal/core"
	"grana/internal/finance"
	"grana/internal/storage"
)

// The observation window is one month wider than the recurrence lookback so
// a transaction near a month boundary still sees its full history.
const observationWindowMonths = 4

// RecurrenceWorker recomputes the observed-recurring flag on transactions.
type RecurrenceWorker struct {
	storage   *storage.SQLiteRepository
	batchSize int
}

func NewRecurrenceWorker(storage *storage.SQLiteRepository, batchSize int) *RecurrenceWorker {
	return &RecurrenceWorker{
		storage:   storage,
		batchSize: batchSize,
	}
}

// HandleTransactionEvent processes a single transaction event from AMQP.
// Both creations and deletions can change what counts as recurring, so
// either way the window is re-derived.
func (w *RecurrenceWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", msg.ID,
		"action", msg.Action)

	if _, err := w.RefreshRecurringFlags(ctx, time.Now()); err != nil {
		return fmt.Errorf("refresh after event: %w", err)
	}
	return nil
}

// RefreshRecurringFlags re-derives the recurring flag for every live
// transaction inside the observation window and persists the ones that
// changed. Returns how many flags were updated.
func (w *RecurrenceWorker) RefreshRecurringFlags(ctx context.Context, now time.Time) (int, error) {
	since := calendar.AddMonths(now, -observationWindowMonths)
	txs, err := w.storage.ListTransactionsSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	updated := 0
	for _, tx := range txs {
		want := finance.ObservedRecurring(txs, tx, now)
		if want == tx.IsRecurring {
			continue
		}

		if err := w.storage.SetTransactionRecurring(ctx, tx.ID, want); err != nil {
			slog.ErrorContext(ctx, "Failed to update recurring flag",
				"id", tx.ID,
				"error", err)
			continue
		}

		updated++
		if w.batchSize > 0 && updated >= w.batchSize {
			slog.WarnContext(ctx, "Recurring flag refresh hit batch limit",
				"batch_size", w.batchSize)
			break
		}
	}

	if updated > 0 {
		slog.InfoContext(ctx, "Recurring flags refreshed",
			"checked", len(txs),
			"updated", updated)
	}
	return updated, nil
}

// RunPeriodicRefresh re-derives recurring flags on a fixed interval until
// the context is cancelled.
func (w *RecurrenceWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic refresh", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RefreshRecurringFlags(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}

// flagSummary is a small debugging aid used in startup logs.
func flagSummary(txs []core.Transaction) (recurring, total int) {
	for _, tx := range txs {
		if tx.IsRecurring {
			recurring++
		}
	}
	return recurring, len(txs)
}

// StartupCheck logs the current recurring flag distribution and runs one
// refresh so restarts converge quickly after missed events.
func (w *RecurrenceWorker) StartupCheck(ctx context.Context) error {
	since := calendar.AddMonths(time.Now(), -observationWindowMonths)
	txs, err := w.storage.ListTransactionsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("list transactions for startup check: %w", err)
	}

	recurring, total := flagSummary(txs)
	slog.InfoContext(ctx, "Startup recurring flag check",
		"window_months", observationWindowMonths,
		"recurring", recurring,
		"total", total)

	if _, err := w.RefreshRecurringFlags(ctx, time.Now()); err != nil {
		return fmt.Errorf("startup refresh: %w", err)
	}
	return nil
}
