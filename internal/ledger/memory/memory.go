// Package memory is an in-process ledger and preference store, seeded from
// JSON files for local runs and used as the fake in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/ledger"
	"payoff/internal/preferences"
)

type Store struct {
	mu    sync.Mutex
	txs   map[string][]core.Transaction
	prefs map[string]*preferences.Preferences
}

func New() *Store {
	return &Store{
		txs:   make(map[string][]core.Transaction),
		prefs: make(map[string]*preferences.Preferences),
	}
}

// NewFromDir seeds a store from <user>.json files in dir. An empty dir
// yields an empty store.
func NewFromDir(dir string) (*Store, error) {
	s := New()
	if dir == "" {
		return s, nil
	}
	seed, err := ledger.ReadSeedDir(dir)
	if err != nil {
		return nil, err
	}
	for user, txs := range seed {
		s.txs[user] = txs
	}
	return s, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.txs[userID]), nil
}

// PutTransactions upserts by id, keeping first-seen order.
func (s *Store) PutTransactions(_ context.Context, userID string, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.txs[userID]
	for _, tx := range txs {
		if i := slices.IndexFunc(cur, func(c core.Transaction) bool { return c.ID == tx.ID }); i >= 0 {
			cur[i] = tx
			continue
		}
		cur = append(cur, tx)
	}
	s.txs[userID] = cur
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[userID] = slices.DeleteFunc(s.txs[userID], func(c core.Transaction) bool { return c.ID == id })
	return nil
}

func (s *Store) Load(_ context.Context, userID string) (preferences.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return preferences.Preferences{}, preferences.ErrUserNotFound
	}
	return p.Clone(), nil
}

func (s *Store) SetMethod(_ context.Context, userID string, method *core.Method) error {
	s.update(userID, func(p *preferences.Preferences) {
		p.ChosenMethod = nil
		if method != nil {
			p.ChosenMethod = preferences.MethodPtr(*method)
		}
	})
	return nil
}

func (s *Store) SetAllocation(_ context.Context, userID string, extra decimal.Decimal) error {
	s.update(userID, func(p *preferences.Preferences) { p.Allocation = extra })
	return nil
}

func (s *Store) SetPaidOff(_ context.Context, userID, debtID string, marked bool) error {
	s.update(userID, func(p *preferences.Preferences) { p.PaidOff[debtID] = marked })
	return nil
}

func (s *Store) DeletePaidOff(_ context.Context, userID, debtID string) error {
	s.update(userID, func(p *preferences.Preferences) { delete(p.PaidOff, debtID) })
	return nil
}

func (s *Store) update(userID string, fn func(*preferences.Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		p = &preferences.Preferences{Allocation: decimal.Zero, PaidOff: map[string]bool{}}
		s.prefs[userID] = p
	}
	fn(p)
}

// Ping always succeeds; it lets the store stand in for a real backend.
func (s *Store) Ping(context.Context) error { return nil }
