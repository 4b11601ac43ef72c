package comparator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/simulator"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func debt(id, balance, rate, minPayment string) core.Debt {
	return core.Debt{
		ID:                        id,
		StartingBalance:           dec(balance),
		InterestRateAnnualPercent: dec(rate),
		MinimumPayment:            dec(minPayment),
	}
}

func TestCompareEmpty(t *testing.T) {
	for name, debts := range map[string][]core.Debt{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			_, err := Compare(debts)
			if !errors.Is(err, core.ErrNoEligibleDebts) {
				t.Fatalf("expected ErrNoEligibleDebts, got %v", err)
			}
		})
	}
}

func TestCompareTotalsAndSavings(t *testing.T) {
	debts := []core.Debt{
		debt("A", "500", "5", "25"),
		debt("B", "3000", "29", "60"),
		debt("C", "1200", "19.99", "40"),
	}
	got, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if !got.TotalDebt.Equal(dec("4700")) {
		t.Errorf("TotalDebt = %s, want 4700", got.TotalDebt)
	}
	if !got.MonthlyPayment.Equal(dec("125")) {
		t.Errorf("MonthlyPayment = %s, want 125", got.MonthlyPayment)
	}
	if got.Snowball.Method != core.Snowball || got.Avalanche.Method != core.Avalanche {
		t.Fatalf("methods swapped: %s / %s", got.Snowball.Method, got.Avalanche.Method)
	}
	wantInterest := got.Snowball.TotalInterest.Sub(got.Avalanche.TotalInterest)
	if !got.InterestSavings.Equal(wantInterest) {
		t.Errorf("InterestSavings = %s, want %s", got.InterestSavings, wantInterest)
	}
	if got.TimeSavings != got.Snowball.TotalMonths-got.Avalanche.TotalMonths {
		t.Errorf("TimeSavings = %d", got.TimeSavings)
	}
	if got.InterestSavings.IsNegative() {
		t.Errorf("avalanche should not cost more here, savings %s", got.InterestSavings)
	}
	if len(got.Debts) != 3 || got.Debts[0].ID != "A" {
		t.Errorf("snapshot not kept in input order: %+v", got.Debts)
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	debts := []core.Debt{
		debt("A", "1000", "24", "50"),
		debt("B", "5000", "10", "100"),
		debt("C", "5000", "10", "100"),
	}
	first, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	second, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Compare is not deterministic for identical input")
	}
}

func TestCompareMatchesSequentialRuns(t *testing.T) {
	debts := []core.Debt{
		debt("A", "500", "5", "25"),
		debt("B", "3000", "29", "60"),
	}
	got, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	budget := MonthlyPayment(debts)
	if want := simulator.Simulate(debts, budget, simulator.SnowballPolicy{}); !reflect.DeepEqual(got.Snowball, want) {
		t.Error("concurrent snowball run differs from a sequential one")
	}
	if want := simulator.Simulate(debts, budget, simulator.AvalanchePolicy{}); !reflect.DeepEqual(got.Avalanche, want) {
		t.Error("concurrent avalanche run differs from a sequential one")
	}
}

func TestCompareSnapshotDoesNotAliasInput(t *testing.T) {
	debts := []core.Debt{debt("A", "1000", "24", "50")}
	got, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	debts[0].ID = "changed"
	if got.Debts[0].ID != "A" {
		t.Fatal("comparison snapshot aliases the caller's slice")
	}
}

func TestCompareSameFirstTarget(t *testing.T) {
	debts := []core.Debt{
		debt("A", "1000", "24", "50"),
		debt("B", "5000", "10", "100"),
	}
	got, err := Compare(debts)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got.TimeSavings != 0 || !got.InterestSavings.IsZero() {
		t.Fatalf("identical orders should tie: months %d, interest %s", got.TimeSavings, got.InterestSavings)
	}
}

func TestActionPlan(t *testing.T) {
	debts := []core.Debt{
		debt("A", "1000", "24", "50"),
		debt("B", "5000", "10", "100"),
	}

	base, err := ActionPlan(debts, core.Avalanche, decimal.Zero)
	if err != nil {
		t.Fatalf("ActionPlan: %v", err)
	}
	extra, err := ActionPlan(debts, core.Avalanche, dec("150"))
	if err != nil {
		t.Fatalf("ActionPlan: %v", err)
	}
	if extra.TotalMonths >= base.TotalMonths {
		t.Errorf("extra payment should shorten the plan: %d vs %d", extra.TotalMonths, base.TotalMonths)
	}
	if !extra.TotalInterest.LessThan(base.TotalInterest) {
		t.Errorf("extra payment should cut interest: %s vs %s", extra.TotalInterest, base.TotalInterest)
	}
	if !extra.Timeline[0].Paid.Equal(dec("300")) {
		t.Errorf("month 1 should spend minimums + extra, paid %s", extra.Timeline[0].Paid)
	}
}

func TestActionPlanErrors(t *testing.T) {
	debts := []core.Debt{debt("A", "1000", "24", "50")}
	tests := []struct {
		name   string
		debts  []core.Debt
		method core.Method
		extra  decimal.Decimal
		want   error
	}{
		{"negative extra", debts, core.Snowball, dec("-1"), core.ErrInvalidAllocationInput},
		{"unknown method", debts, "hybrid", decimal.Zero, core.ErrUnknownMethod},
		{"no debts", nil, core.Snowball, decimal.Zero, core.ErrNoEligibleDebts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ActionPlan(tt.debts, tt.method, tt.extra)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
