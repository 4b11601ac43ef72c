// Package adapters combines independent stores into one backend.
package adapters

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/ledger"
	"payoff/internal/preferences"
)

// Ledger is the transaction side of a composite backend.
type Ledger interface {
	ledger.TransactionReader
	ledger.TransactionWriter
	Ping(ctx context.Context) error
}

// PreferenceStore is the preference side of a composite backend.
type PreferenceStore interface {
	preferences.Store
	Ping(ctx context.Context) error
}

// Composite reads transactions from one store and keeps preferences in
// another.
type Composite struct {
	ledger Ledger
	prefs  PreferenceStore
}

func NewComposite(l Ledger, p PreferenceStore) *Composite {
	return &Composite{ledger: l, prefs: p}
}

func (c *Composite) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return c.ledger.ListTransactions(ctx, userID)
}

func (c *Composite) PutTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	return c.ledger.PutTransactions(ctx, userID, txs)
}

func (c *Composite) DeleteTransaction(ctx context.Context, userID, id string) error {
	return c.ledger.DeleteTransaction(ctx, userID, id)
}

func (c *Composite) Load(ctx context.Context, userID string) (preferences.Preferences, error) {
	return c.prefs.Load(ctx, userID)
}

func (c *Composite) SetMethod(ctx context.Context, userID string, method *core.Method) error {
	return c.prefs.SetMethod(ctx, userID, method)
}

func (c *Composite) SetAllocation(ctx context.Context, userID string, extra decimal.Decimal) error {
	return c.prefs.SetAllocation(ctx, userID, extra)
}

func (c *Composite) SetPaidOff(ctx context.Context, userID, debtID string, marked bool) error {
	return c.prefs.SetPaidOff(ctx, userID, debtID, marked)
}

func (c *Composite) DeletePaidOff(ctx context.Context, userID, debtID string) error {
	return c.prefs.DeletePaidOff(ctx, userID, debtID)
}

// Ping reports the first unhealthy side.
func (c *Composite) Ping(ctx context.Context) error {
	if err := c.ledger.Ping(ctx); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.prefs.Ping(ctx); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	return nil
}
