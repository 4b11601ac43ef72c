// Package simulator runs month-by-month payoff simulations.
//
// This file implements the ordering policies. Each payoff method has its own
// policy that decides the fixed order in which debts receive the monthly
// remainder.

package simulator

import (
	"fmt"
	"slices"

	"payoff/internal/core"
)

// OrderingPolicy is the strategy interface for ranking debts. The order is
// computed once per run from the starting snapshot and never re-sorted.
type OrderingPolicy interface {
	// Method names the payoff method the policy implements.
	Method() core.Method
	// Less reports whether a should be targeted before b. Equal debts must
	// return false both ways so the stable sort keeps input order.
	Less(a, b core.Debt) bool
}

// SnowballPolicy targets the smallest starting balance first.
type SnowballPolicy struct{}

func (SnowballPolicy) Method() core.Method { return core.Snowball }

func (SnowballPolicy) Less(a, b core.Debt) bool {
	return a.StartingBalance.LessThan(b.StartingBalance)
}

// AvalanchePolicy targets the highest annual rate first. Rates are
// non-negative, so zero-rate debts fall to the end.
type AvalanchePolicy struct{}

func (AvalanchePolicy) Method() core.Method { return core.Avalanche }

func (AvalanchePolicy) Less(a, b core.Debt) bool {
	return a.InterestRateAnnualPercent.GreaterThan(b.InterestRateAnnualPercent)
}

var orderingPolicies = map[core.Method]OrderingPolicy{
	core.Snowball:  SnowballPolicy{},
	core.Avalanche: AvalanchePolicy{},
}

// PolicyFor returns the ordering policy for a payoff method.
func PolicyFor(method core.Method) (OrderingPolicy, error) {
	p, ok := orderingPolicies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMethod, method)
	}
	return p, nil
}

// Order returns a copy of debts in the fixed targeting order of policy.
// Ties keep their input order.
func Order(debts []core.Debt, policy OrderingPolicy) []core.Debt {
	out := slices.Clone(debts)
	slices.SortStableFunc(out, func(a, b core.Debt) int {
		switch {
		case policy.Less(a, b):
			return -1
		case policy.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// orderIndices is Order expressed as positions into debts.
func orderIndices(debts []core.Debt, policy OrderingPolicy) []int {
	idx := make([]int, len(debts))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		switch {
		case policy.Less(debts[i], debts[j]):
			return -1
		case policy.Less(debts[j], debts[i]):
			return 1
		default:
			return 0
		}
	})
	return idx
}
