// Package storage persists the engine's records in SQLite and normalizes
// rows into the closed core shapes at this boundary; nothing above it sees
// raw query results.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"grana/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- recurring costs ---

func (r *SQLiteRepository) CreateRecurringCost(ctx context.Context, c core.RecurringCost) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_costs (name, amount_cents, frequency, is_fixed, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Amount.Cents, string(c.Frequency), c.IsFixed, c.IsActive, c.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("create recurring cost: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring cost id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring cost saved",
		"id", id,
		"name", c.Name,
		"amount_cents", c.Amount.Cents,
		"frequency", c.Frequency)
	return id, nil
}

func (r *SQLiteRepository) ListRecurringCosts(ctx context.Context) ([]core.RecurringCost, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, frequency, is_fixed, is_active, created_at
		FROM recurring_costs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring costs: %w", err)
	}
	defer rows.Close()

	var costs []core.RecurringCost
	for rows.Next() {
		var c core.RecurringCost
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount.Cents, &c.Frequency, &c.IsFixed, &c.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recurring cost: %w", err)
		}
		if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse recurring cost created_at: %w", err)
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}

func (r *SQLiteRepository) SetRecurringCostActive(ctx context.Context, id int64, active bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE recurring_costs SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("set recurring cost active: %w", err)
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTransactionSQL,
		string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Name,
		tx.Date.Format(timeLayout), tx.IsSubscription, tx.IsRecurring,
		tx.InstallmentGroupID, tx.InstallmentIndex)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", tx.Type,
		"name", tx.Name,
		"amount_cents", tx.Amount.Cents)
	return id, nil
}

const insertTransactionSQL = `
	INSERT INTO transactions
		(type, category, amount_cents, name, date, is_subscription, is_recurring,
		 installment_group_id, installment_index)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTransactionSQL = `
	SELECT id, type, category, amount_cents, name, date, is_subscription,
	       is_recurring, installment_group_id, installment_index
	FROM transactions`

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var tx core.Transaction
	var date string
	err := scan(&tx.ID, &tx.Type, &tx.Category, &tx.Amount.Cents, &tx.Name,
		&date, &tx.IsSubscription, &tx.IsRecurring, &tx.InstallmentGroupID, &tx.InstallmentIndex)
	if err != nil {
		return tx, err
	}
	if tx.Date, err = time.Parse(timeLayout, date); err != nil {
		return tx, fmt.Errorf("parse transaction date: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransactionSQL+` WHERE id = ? AND deleted_at IS NULL`, id)
	tx, err := scanTransaction(row.Scan)
	if err != nil {
		return tx, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListTransactionsSince returns live transactions dated on or after since,
// oldest first.
func (r *SQLiteRepository) ListTransactionsSince(ctx context.Context, since time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionSQL+` WHERE deleted_at IS NULL AND date >= ? ORDER BY date, id`,
		since.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) SetTransactionRecurring(ctx context.Context, id int64, recurring bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET is_recurring = ? WHERE id = ? AND deleted_at IS NULL`,
		recurring, id); err != nil {
		return fmt.Errorf("set transaction recurring: %w", err)
	}
	return nil
}

// SoftDeleteTransaction removes a transaction from every listing. When the
// transaction belongs to an installment group the whole group goes with it.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id int64) error {
	tx, err := r.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().Format(timeLayout)
	if tx.InstallmentGroupID != "" {
		res, err := r.db.ExecContext(ctx,
			`UPDATE transactions SET deleted_at = ? WHERE installment_group_id = ? AND deleted_at IS NULL`,
			now, tx.InstallmentGroupID)
		if err != nil {
			return fmt.Errorf("delete installment group: %w", err)
		}
		n, _ := res.RowsAffected()
		slog.InfoContext(ctx, "Installment group deleted",
			"installment_group_id", tx.InstallmentGroupID,
			"members", n)
		return nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// CreateTransactionWithBalances saves a transaction together with the
// benefit balances it drew from, in one SQL transaction: a failed insert
// leaves the balances untouched.
func (r *SQLiteRepository) CreateTransactionWithBalances(ctx context.Context, tx core.Transaction, balances []core.BenefitBalance) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction save: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, insertTransactionSQL,
		string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Name,
		tx.Date.Format(timeLayout), tx.IsSubscription, tx.IsRecurring,
		tx.InstallmentGroupID, tx.InstallmentIndex)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	for _, b := range balances {
		if err := upsertBalance(ctx, dbTx, b); err != nil {
			return 0, err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction save: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", tx.Type,
		"name", tx.Name,
		"amount_cents", tx.Amount.Cents,
		"balances_updated", len(balances))
	return id, nil
}

// CreateInstallmentGroup persists a batch of sibling transactions together
// with the benefit balances they drew from, in one SQL transaction: either
// the whole purchase lands or none of it does.
func (r *SQLiteRepository) CreateInstallmentGroup(ctx context.Context, txs []core.Transaction, balances []core.BenefitBalance) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin installment group: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx, insertTransactionSQL,
			string(tx.Type), string(tx.Category), tx.Amount.Cents, tx.Name,
			tx.Date.Format(timeLayout), tx.IsSubscription, tx.IsRecurring,
			tx.InstallmentGroupID, tx.InstallmentIndex); err != nil {
			return fmt.Errorf("insert installment %d: %w", tx.InstallmentIndex, err)
		}
	}

	for _, b := range balances {
		if err := upsertBalance(ctx, dbTx, b); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit installment group: %w", err)
	}

	if len(txs) > 0 {
		slog.InfoContext(ctx, "Installment group saved",
			"installment_group_id", txs[0].InstallmentGroupID,
			"installments", len(txs))
	}
	return nil
}

// --- benefit balances ---

func (r *SQLiteRepository) ListBenefitBalances(ctx context.Context) ([]core.BenefitBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, value_cents FROM benefit_balances ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("list benefit balances: %w", err)
	}
	defer rows.Close()

	var balances []core.BenefitBalance
	for rows.Next() {
		var b core.BenefitBalance
		if err := rows.Scan(&b.Type, &b.Value.Cents); err != nil {
			return nil, fmt.Errorf("scan benefit balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// UpdateBenefitBalances persists a new balance snapshot. Callers must
// serialize concurrent deductions against the same profile; the snapshot
// handed in is written as-is.
func (r *SQLiteRepository) UpdateBenefitBalances(ctx context.Context, balances []core.BenefitBalance) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance update: %w", err)
	}
	defer dbTx.Rollback()

	for _, b := range balances {
		if err := upsertBalance(ctx, dbTx, b); err != nil {
			return err
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit balance update: %w", err)
	}
	return nil
}

func upsertBalance(ctx context.Context, dbTx *sql.Tx, b core.BenefitBalance) error {
	_, err := dbTx.ExecContext(ctx, `
		INSERT INTO benefit_balances (type, value_cents) VALUES (?, ?)
		ON CONFLICT(type) DO UPDATE SET value_cents = excluded.value_cents`,
		string(b.Type), b.Value.Cents)
	if err != nil {
		return fmt.Errorf("upsert benefit balance %s: %w", b.Type, err)
	}
	return nil
}

// --- stock items ---

func (r *SQLiteRepository) ListStockItems(ctx context.Context) ([]core.StockItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, quantity, cost_price_cents, is_active, created_at
		FROM stock_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()

	var items []core.StockItem
	for rows.Next() {
		var item core.StockItem
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.CostPrice.Cents, &item.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		if item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse stock item created_at: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- subscriptions ---

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, amount_cents, category, frequency, start_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.Amount.Cents, string(s.Category), string(s.Frequency),
		s.StartDate.Format(timeLayout), s.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("subscription id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, category, frequency, start_date, is_active, last_run
		FROM subscriptions WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		var s core.Subscription
		var startDate string
		var lastRun sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Amount.Cents, &s.Category, &s.Frequency, &startDate, &s.IsActive, &lastRun); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if s.StartDate, err = time.Parse(timeLayout, startDate); err != nil {
			return nil, fmt.Errorf("parse subscription start_date: %w", err)
		}
		if lastRun.Valid {
			if s.LastRun, err = time.Parse(timeLayout, lastRun.String); err != nil {
				return nil, fmt.Errorf("parse subscription last_run: %w", err)
			}
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SQLiteRepository) MarkSubscriptionRun(ctx context.Context, id int64, ranAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET last_run = ? WHERE id = ?`,
		ranAt.Format(timeLayout), id); err != nil {
		return fmt.Errorf("mark subscription run: %w", err)
	}
	return nil
}
