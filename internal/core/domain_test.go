package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"snowball", Snowball, false},
		{" Avalanche ", Avalanche, false},
		{"SNOWBALL", Snowball, false},
		{"", "", true},
		{"hybrid", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMethod) {
					t.Fatalf("expected ErrUnknownMethod, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseMethod(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{"valid", Transaction{ID: "a", Type: TypeDebt, RemainingBalance: decimal.NewFromInt(10)}, false},
		{"empty id", Transaction{ID: " ", Type: TypeDebt}, true},
		{"bad type", Transaction{ID: "a", Type: "loan"}, true},
		{"negative balance", Transaction{ID: "a", Type: TypeDebt, RemainingBalance: neg}, true},
		{"negative rate", Transaction{ID: "a", Type: TypeDebt, InterestRate: &neg}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSimulationResultErr(t *testing.T) {
	month := 3
	done := SimulationResult{
		Converged:      true,
		TotalMonths:    3,
		PayoffSchedule: []SimulationDebtState{{Debt: Debt{ID: "a"}, IsPaidOff: true, PayoffMonth: &month}},
	}
	if err := done.Err(); err != nil {
		t.Fatalf("converged result should not error: %v", err)
	}
	if len(done.Unpaid()) != 0 {
		t.Fatalf("expected no unpaid debts, got %v", done.Unpaid())
	}

	stuck := SimulationResult{
		TotalMonths: 600,
		PayoffSchedule: []SimulationDebtState{
			{Debt: Debt{ID: "a"}, IsPaidOff: true, PayoffMonth: &month},
			{Debt: Debt{ID: "b"}},
		},
	}
	if err := stuck.Err(); !errors.Is(err, ErrNonConvergentPlan) {
		t.Fatalf("expected ErrNonConvergentPlan, got %v", err)
	}
	if ids := stuck.Unpaid(); len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("unexpected unpaid ids: %v", ids)
	}
	if s, ok := stuck.State("b"); !ok || s.IsPaidOff {
		t.Fatalf("State(b) = %+v, %v", s, ok)
	}
	if _, ok := stuck.State("zzz"); ok {
		t.Fatal("State should report missing ids")
	}
}
