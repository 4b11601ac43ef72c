// Package preferences holds the per-user payoff settings and the port used
// to persist them.
package preferences

import (
	"context"
	"errors"
	"maps"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
)

// Preferences is what the engine reads from the preference store for one
// user. A nil ChosenMethod means no method has been picked yet.
type Preferences struct {
	ChosenMethod *core.Method
	Allocation   decimal.Decimal
	PaidOff      map[string]bool
}

// ErrUserNotFound may be returned by stores that cannot tell an empty
// user from a missing one. Callers treat it like empty Preferences.
var ErrUserNotFound = errors.New("preferences not found")

// Store is a merge-semantics preference store. Each setter touches exactly
// one field and never overwrites the others.
type Store interface {
	Load(ctx context.Context, userID string) (Preferences, error)
	SetMethod(ctx context.Context, userID string, method *core.Method) error
	SetAllocation(ctx context.Context, userID string, extra decimal.Decimal) error
	SetPaidOff(ctx context.Context, userID, debtID string, marked bool) error
	DeletePaidOff(ctx context.Context, userID, debtID string) error
}

// Clone returns a copy that shares nothing mutable with p.
func (p Preferences) Clone() Preferences {
	out := p
	if p.ChosenMethod != nil {
		m := *p.ChosenMethod
		out.ChosenMethod = &m
	}
	out.PaidOff = maps.Clone(p.PaidOff)
	if out.PaidOff == nil {
		out.PaidOff = map[string]bool{}
	}
	return out
}

// Method returns the chosen method and whether one is set.
func (p Preferences) Method() (core.Method, bool) {
	if p.ChosenMethod == nil {
		return "", false
	}
	return *p.ChosenMethod, true
}

// MethodPtr is a convenience for SetMethod.
func MethodPtr(m core.Method) *core.Method {
	return &m
}

// Load is Store.Load with ErrUserNotFound folded into empty preferences.
func Load(ctx context.Context, s Store, userID string) (Preferences, error) {
	p, err := s.Load(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return Preferences{Allocation: decimal.Zero, PaidOff: map[string]bool{}}, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	return p.Clone(), nil
}
