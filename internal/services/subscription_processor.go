package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grana/internal/core"
	"grana/internal/storage"
)

// SubscriptionProcessor materializes transactions from active subscription
// templates. It is driven by the cron worker, once per scheduling tick.
type SubscriptionProcessor struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
}

func NewSubscriptionProcessor(storage *storage.SQLiteRepository, transactionService *TransactionService) *SubscriptionProcessor {
	return &SubscriptionProcessor{
		storage:            storage,
		transactionService: transactionService,
	}
}

// ProcessDueSubscriptions creates a transaction for every active subscription
// that is due at now, and stamps its last run.
func (p *SubscriptionProcessor) ProcessDueSubscriptions(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactionService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.storage.ListActiveSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscriptions",
		"total_active", len(subs),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, sub := range subs {
		if now.Before(sub.StartDate) {
			continue
		}
		if !p.isDue(sub, now) {
			continue
		}

		tx := core.Transaction{
			Type:           core.Expense,
			Category:       sub.Category,
			Amount:         sub.Amount,
			Name:           sub.Name,
			Date:           now,
			IsSubscription: true,
		}

		if _, err := p.transactionService.CreateTransaction(ctx, tx, false); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from subscription",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}

		if err := p.storage.MarkSubscriptionRun(ctx, sub.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update subscription last run",
				"subscription_id", sub.ID,
				"error", err)
			// Continue anyway - transaction was created successfully
		}

		processedCount++
		slog.InfoContext(ctx, "Created transaction from subscription",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"amount_cents", sub.Amount.Cents,
			"frequency", sub.Frequency)
	}

	slog.InfoContext(ctx, "Subscription processing complete",
		"processed", processedCount,
		"total_checked", len(subs))

	return processedCount, nil
}

func (p *SubscriptionProcessor) isDue(sub core.Subscription, now time.Time) bool {
	switch sub.Frequency {
	case core.Once:
		return sub.LastRun.IsZero()
	case core.Daily:
		return p.isDueDaily(sub.LastRun, now)
	case core.Weekly:
		return p.isDueWeekly(sub.LastRun, now)
	case core.Monthly:
		return p.isDueMonthly(sub.LastRun, now, sub.StartDate.Day())
	default:
		return false
	}
}

// isDueDaily checks if a daily subscription is due
func (p *SubscriptionProcessor) isDueDaily(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

// isDueWeekly checks if a weekly subscription is due
func (p *SubscriptionProcessor) isDueWeekly(lastRun, now time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	daysSince := now.Sub(lastRun).Hours() / 24
	return daysSince >= 7
}

// isDueMonthly checks if a monthly subscription is due
func (p *SubscriptionProcessor) isDueMonthly(lastRun, now time.Time, targetDay int) bool {
	if lastRun.IsZero() {
		return true
	}

	// Already processed this month?
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}

	// Handle case where target day doesn't exist in current month (e.g., Feb 31)
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	targetDayThisMonth := targetDay
	if targetDay > lastDayOfMonth {
		targetDayThisMonth = lastDayOfMonth
	}

	return now.Day() >= targetDayThisMonth
}
