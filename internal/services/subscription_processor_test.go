package services

import (
	"context"
	"testing"
	"time"

	"grana/internal/core"
)

func TestProcessDueSubscriptions(t *testing.T) {
	svc, repo := newTestService(t)
	processor := NewSubscriptionProcessor(repo, svc)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.CreateSubscription(ctx, core.Subscription{
		Name:      "streaming",
		Amount:    core.Money{Cents: 3990},
		Category:  core.Entertainment,
		Frequency: core.Monthly,
		StartDate: start,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	now := time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC)
	n, err := processor.ProcessDueSubscriptions(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueSubscriptions: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1", n)
	}

	txs, _ := repo.ListTransactionsSince(ctx, start)
	if len(txs) != 1 {
		t.Fatalf("expected 1 materialized transaction, got %d", len(txs))
	}
	if !txs[0].IsSubscription {
		t.Error("materialized transaction should be flagged as subscription")
	}
	if txs[0].Amount.Cents != 3990 || txs[0].Category != core.Entertainment {
		t.Errorf("unexpected transaction: %+v", txs[0])
	}

	// Same day again: nothing due.
	n, err = processor.ProcessDueSubscriptions(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueSubscriptions: %v", err)
	}
	if n != 0 {
		t.Errorf("second run processed = %d, want 0", n)
	}
}

func TestProcessSkipsBeforeStartDate(t *testing.T) {
	svc, repo := newTestService(t)
	processor := NewSubscriptionProcessor(repo, svc)
	ctx := context.Background()

	_, err := repo.CreateSubscription(ctx, core.Subscription{
		Name:      "academia",
		Amount:    core.Money{Cents: 9900},
		Category:  core.Health,
		Frequency: core.Monthly,
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	n, err := processor.ProcessDueSubscriptions(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueSubscriptions: %v", err)
	}
	if n != 0 {
		t.Errorf("processed = %d, want 0 before start date", n)
	}
}

func TestIsDueMonthlyClampsTargetDay(t *testing.T) {
	p := &SubscriptionProcessor{}

	lastRun := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	// Target day 31 does not exist in February; due on the 29th.
	if !p.isDueMonthly(lastRun, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 31) {
		t.Error("expected due on last day of February")
	}
	if p.isDueMonthly(lastRun, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 31) {
		t.Error("expected not due before clamped target day")
	}
}

func TestIsDueWeekly(t *testing.T) {
	p := &SubscriptionProcessor{}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	if !p.isDueWeekly(time.Time{}, now) {
		t.Error("never-run subscription should be due")
	}
	if p.isDueWeekly(now.AddDate(0, 0, -6), now) {
		t.Error("6 days since last run should not be due")
	}
	if !p.isDueWeekly(now.AddDate(0, 0, -7), now) {
		t.Error("7 days since last run should be due")
	}
}
