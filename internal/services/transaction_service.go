package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"grana/internal/amqp"
	"grana/internal/calendar"
	"grana/internal/core"
	"grana/internal/finance"
	"grana/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite, the
// benefit ledger and AMQP.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	ledger     *finance.Ledger
	classifier *finance.Classifier
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, ledger *finance.Ledger, classifier *finance.Classifier) *TransactionService {
	if ledger == nil {
		ledger = finance.NewLedger(nil)
	}
	if classifier == nil {
		classifier = finance.NewClassifier(nil)
	}
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		ledger:     ledger,
		classifier: classifier,
	}
}

// CreateTransaction validates and saves a transaction. When deductBenefit is
// set the amount is drawn from the matching benefit balance first; an
// insufficient balance rejects the whole operation before anything is
// written.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction, deductBenefit bool) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	now := time.Now()
	history, err := s.storage.ListTransactionsSince(ctx, calendar.AddMonths(now, -4))
	if err != nil {
		return 0, fmt.Errorf("load transaction history: %w", err)
	}
	tx.IsRecurring = finance.ObservedRecurring(history, tx, now)

	// The deduction is computed against an in-memory snapshot and persisted
	// together with the transaction, so a failed save cannot leave the
	// balance drawn down with nothing recorded.
	var updatedBalances []core.BenefitBalance
	if deductBenefit && tx.Type == core.Expense {
		balances, err := s.storage.ListBenefitBalances(ctx)
		if err != nil {
			return 0, fmt.Errorf("load benefit balances: %w", err)
		}
		result, err := s.ledger.Deduct(balances, tx.Category, tx.Amount)
		if err != nil {
			return 0, err
		}
		updatedBalances = result.Balances
	}

	var id int64
	if updatedBalances != nil {
		id, err = s.storage.CreateTransactionWithBalances(ctx, tx, updatedBalances)
	} else {
		id, err = s.storage.CreateTransaction(ctx, tx)
	}
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	// Publish async event (non-blocking, transaction is saved locally)
	if err := s.publishEvent(ctx, id, amqp.ActionCreated); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "error", err)
	}

	return id, nil
}

// CreateInstallmentPurchase splits a purchase into monthly installments and
// commits all of them atomically. Benefit deductions are replayed against an
// in-memory snapshot first, so either the whole purchase lands with its
// balance updates or nothing is written.
func (s *TransactionService) CreateInstallmentPurchase(ctx context.Context, name string, category core.Category, plan core.InstallmentPlan, deductBenefit bool) (string, error) {
	if name == "" {
		return "", core.ErrEmptyName
	}
	if !category.Valid() {
		return "", core.ErrInvalidCategory
	}

	installments, err := finance.Distribute(plan)
	if err != nil {
		return "", err
	}

	groupID := newGroupID()
	txs := make([]core.Transaction, 0, len(installments))
	for _, inst := range installments {
		txs = append(txs, core.Transaction{
			Type:               core.Expense,
			Category:           category,
			Amount:             inst.Amount,
			Name:               fmt.Sprintf("%s (%d/%d)", name, inst.Index, len(installments)),
			Date:               inst.DueDate,
			InstallmentGroupID: groupID,
			InstallmentIndex:   inst.Index,
		})
	}

	var updatedBalances []core.BenefitBalance
	if deductBenefit {
		snapshot, err := s.storage.ListBenefitBalances(ctx)
		if err != nil {
			return "", fmt.Errorf("load benefit balances: %w", err)
		}
		for _, inst := range installments {
			result, err := s.ledger.Deduct(snapshot, category, inst.Amount)
			if err != nil {
				return "", fmt.Errorf("installment %d: %w", inst.Index, err)
			}
			snapshot = result.Balances
		}
		updatedBalances = snapshot
	}

	if err := s.storage.CreateInstallmentGroup(ctx, txs, updatedBalances); err != nil {
		return "", fmt.Errorf("save installment group: %w", err)
	}

	slog.InfoContext(ctx, "Installment purchase created",
		"installment_group_id", groupID,
		"name", name,
		"installments", len(installments),
		"total_cents", plan.TotalAmount.Cents)

	return groupID, nil
}

// DeleteTransaction soft deletes a transaction. If it belongs to an
// installment group the storage layer cascades to the whole group.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.storage.SoftDeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}

	if err := s.publishEvent(ctx, id, amqp.ActionDeleted); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"id", id, "error", err)
	}

	return nil
}

// ClassifyTransaction exposes the configured classifier for read paths.
func (s *TransactionService) ClassifyTransaction(tx core.Transaction) finance.Flags {
	return s.classifier.ClassifyTransaction(tx)
}

func (s *TransactionService) publishEvent(ctx context.Context, id int64, action string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event")
		return nil
	}
	return s.amqpClient.PublishTransactionEvent(ctx, id, action)
}

// Close closes both storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}

func newGroupID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
