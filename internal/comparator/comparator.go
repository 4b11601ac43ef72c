// Package comparator runs the Snowball and Avalanche simulations side by side
// and derives the comparative metrics shown on the method-selection screen.
package comparator

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"payoff/internal/core"
	"payoff/internal/simulator"
)

// MonthlyPayment is the sum of the minimum payments of debts.
func MonthlyPayment(debts []core.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.MinimumPayment)
	}
	return total
}

// TotalDebt is the sum of the starting balances of debts.
func TotalDebt(debts []core.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.StartingBalance)
	}
	return total
}

// Compare simulates both methods on the same snapshot of debts with the sum
// of minimum payments as the shared budget, so only the ordering differs.
// An empty debt list yields core.ErrNoEligibleDebts.
func Compare(debts []core.Debt) (core.ComparisonResult, error) {
	if len(debts) == 0 {
		return core.ComparisonResult{}, core.ErrNoEligibleDebts
	}

	snapshot := slices.Clone(debts)
	budget := MonthlyPayment(snapshot)

	// The runs share nothing but the read-only snapshot, and Simulate
	// cannot fail, so Wait only joins them.
	var snowball, avalanche core.SimulationResult
	var g errgroup.Group
	g.Go(func() error {
		snowball = simulator.Simulate(snapshot, budget, simulator.SnowballPolicy{})
		return nil
	})
	g.Go(func() error {
		avalanche = simulator.Simulate(snapshot, budget, simulator.AvalanchePolicy{})
		return nil
	})
	_ = g.Wait()

	return core.ComparisonResult{
		Debts:           snapshot,
		TotalDebt:       TotalDebt(snapshot),
		MonthlyPayment:  budget,
		Snowball:        snowball,
		Avalanche:       avalanche,
		InterestSavings: snowball.TotalInterest.Sub(avalanche.TotalInterest),
		TimeSavings:     snowball.TotalMonths - avalanche.TotalMonths,
	}, nil
}

// ActionPlan re-simulates the chosen method with the sum of minimums plus
// the user's extra monthly allocation. A negative extra is rejected with
// core.ErrInvalidAllocationInput before any simulation runs.
//
// A plan that hits the month cap is still returned; check result.Err().
func ActionPlan(debts []core.Debt, method core.Method, extra decimal.Decimal) (core.SimulationResult, error) {
	if len(debts) == 0 {
		return core.SimulationResult{}, core.ErrNoEligibleDebts
	}
	if extra.IsNegative() {
		return core.SimulationResult{}, fmt.Errorf("%w: extra payment %s is negative", core.ErrInvalidAllocationInput, extra)
	}
	policy, err := simulator.PolicyFor(method)
	if err != nil {
		return core.SimulationResult{}, err
	}
	budget := MonthlyPayment(debts).Add(extra)
	return simulator.Simulate(slices.Clone(debts), budget, policy), nil
}
