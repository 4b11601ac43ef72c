package simulator

import (
	"errors"
	"testing"

	"payoff/internal/core"
)

func ids(ds []core.Debt) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOrder(t *testing.T) {
	debts := []core.Debt{
		debt("d1", "800", "0", "25"),
		debt("d2", "300", "12", "25"),
		debt("d3", "800", "22", "25"),
		debt("d4", "300", "22", "25"),
	}
	tests := []struct {
		name   string
		policy OrderingPolicy
		want   []string
	}{
		{"snowball ties keep input order", SnowballPolicy{}, []string{"d2", "d4", "d1", "d3"}},
		{"avalanche ties keep input order, zero rate last", AvalanchePolicy{}, []string{"d3", "d4", "d2", "d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Order(debts, tt.policy))
			if !equalIDs(got, tt.want) {
				t.Fatalf("Order() = %v, want %v", got, tt.want)
			}
		})
	}
	if got := ids(debts); !equalIDs(got, []string{"d1", "d2", "d3", "d4"}) {
		t.Fatalf("Order mutated its input: %v", got)
	}
}

func TestPolicyFor(t *testing.T) {
	for _, m := range []core.Method{core.Snowball, core.Avalanche} {
		p, err := PolicyFor(m)
		if err != nil {
			t.Fatalf("PolicyFor(%s): %v", m, err)
		}
		if p.Method() != m {
			t.Fatalf("PolicyFor(%s).Method() = %s", m, p.Method())
		}
	}
	if _, err := PolicyFor("minimum-only"); !errors.Is(err, core.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}
