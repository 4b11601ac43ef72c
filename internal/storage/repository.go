// Package storage is the SQLite adapter for the ledger, the preference
// store and the milestone log.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/preferences"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(timeLayout)
}

// ListTransactions implements ledger.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, category, description, amount, remaining_balance, interest_rate, minimum_payment
		FROM transactions
		WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx                   core.Transaction
			amount, balance      string
			rate, minimumPayment sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.Category, &tx.Description, &amount, &balance, &rate, &minimumPayment); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
		}
		if tx.RemainingBalance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("transaction %s balance: %w", tx.ID, err)
		}
		if tx.InterestRate, err = nullDecimal(rate); err != nil {
			return nil, fmt.Errorf("transaction %s interest rate: %w", tx.ID, err)
		}
		if tx.MinimumPayment, err = nullDecimal(minimumPayment); err != nil {
			return nil, fmt.Errorf("transaction %s minimum payment: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// PutTransactions implements ledger.TransactionWriter. Existing ids keep
// their position; new ids are appended.
func (r *SQLiteRepository) PutTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return err
		}
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	for _, tx := range txs {
		_, err := dbtx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, id, position, type, category, description, amount, remaining_balance, interest_rate, minimum_payment)
			VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM transactions WHERE user_id = ?), ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, id) DO UPDATE SET
				type = excluded.type,
				category = excluded.category,
				description = excluded.description,
				amount = excluded.amount,
				remaining_balance = excluded.remaining_balance,
				interest_rate = excluded.interest_rate,
				minimum_payment = excluded.minimum_payment`,
			userID, tx.ID, userID, string(tx.Type), tx.Category, tx.Description,
			tx.Amount.String(), tx.RemainingBalance.String(),
			decimalOrNil(tx.InterestRate), decimalOrNil(tx.MinimumPayment))
		if err != nil {
			return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Load implements preferences.Store. A user without any row yields
// preferences.ErrUserNotFound.
func (r *SQLiteRepository) Load(ctx context.Context, userID string) (preferences.Preferences, error) {
	p := preferences.Preferences{Allocation: decimal.Zero, PaidOff: map[string]bool{}}

	var (
		method     sql.NullString
		allocation string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT chosen_payoff_method, debt_payoff_allocation FROM preferences WHERE user_id = ?`, userID).
		Scan(&method, &allocation)
	found := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return preferences.Preferences{}, fmt.Errorf("load preferences: %w", err)
	default:
		if method.Valid {
			m, err := core.ParseMethod(method.String)
			if err != nil {
				return preferences.Preferences{}, fmt.Errorf("stored method: %w", err)
			}
			p.ChosenMethod = &m
		}
		if p.Allocation, err = decimal.NewFromString(allocation); err != nil {
			return preferences.Preferences{}, fmt.Errorf("stored allocation: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT debt_id, marked FROM paid_off_debts WHERE user_id = ?`, userID)
	if err != nil {
		return preferences.Preferences{}, fmt.Errorf("load paid off debts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id     string
			marked bool
		)
		if err := rows.Scan(&id, &marked); err != nil {
			return preferences.Preferences{}, fmt.Errorf("scan paid off debt: %w", err)
		}
		p.PaidOff[id] = marked
		found = true
	}
	if err := rows.Err(); err != nil {
		return preferences.Preferences{}, fmt.Errorf("iterate paid off debts: %w", err)
	}

	if !found {
		return preferences.Preferences{}, preferences.ErrUserNotFound
	}
	return p, nil
}

func (r *SQLiteRepository) SetMethod(ctx context.Context, userID string, method *core.Method) error {
	var value any
	if method != nil {
		value = method.String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, chosen_payoff_method, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			chosen_payoff_method = excluded.chosen_payoff_method,
			updated_at = excluded.updated_at`,
		userID, value, r.stamp())
	if err != nil {
		return fmt.Errorf("set payoff method: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetAllocation(ctx context.Context, userID string, extra decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, debt_payoff_allocation, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			debt_payoff_allocation = excluded.debt_payoff_allocation,
			updated_at = excluded.updated_at`,
		userID, extra.String(), r.stamp())
	if err != nil {
		return fmt.Errorf("set payoff allocation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetPaidOff(ctx context.Context, userID, debtID string, marked bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paid_off_debts (user_id, debt_id, marked, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, debt_id) DO UPDATE SET
			marked = excluded.marked,
			updated_at = excluded.updated_at`,
		userID, debtID, marked, r.stamp())
	if err != nil {
		return fmt.Errorf("set paid off %s: %w", debtID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeletePaidOff(ctx context.Context, userID, debtID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM paid_off_debts WHERE user_id = ? AND debt_id = ?`, userID, debtID); err != nil {
		return fmt.Errorf("delete paid off %s: %w", debtID, err)
	}
	return nil
}

func nullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
