package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/preferences"
)

func tx(id string, balance int64) core.Transaction {
	return core.Transaction{ID: id, Type: core.TypeDebt, Category: "Card", RemainingBalance: decimal.NewFromInt(balance)}
}

func TestStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.PutTransactions(ctx, "u", []core.Transaction{tx("a", 100), tx("b", 200)}); err != nil {
		t.Fatalf("PutTransactions: %v", err)
	}
	if err := s.PutTransactions(ctx, "u", []core.Transaction{tx("a", 50)}); err != nil {
		t.Fatalf("PutTransactions: %v", err)
	}
	got, _ := s.ListTransactions(ctx, "u")
	if len(got) != 2 || got[0].ID != "a" || !got[0].RemainingBalance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("upsert lost order or value: %+v", got)
	}

	got[0].ID = "mutated"
	again, _ := s.ListTransactions(ctx, "u")
	if again[0].ID != "a" {
		t.Fatal("ListTransactions returned an aliased slice")
	}

	if err := s.DeleteTransaction(ctx, "u", "a"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	got, _ = s.ListTransactions(ctx, "u")
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected after delete: %+v", got)
	}

	if err := s.PutTransactions(ctx, "u", []core.Transaction{{ID: "", Type: core.TypeDebt}}); !errors.Is(err, core.ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestStorePreferencesMerge(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Load(ctx, "u"); !errors.Is(err, preferences.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	_ = s.SetMethod(ctx, "u", preferences.MethodPtr(core.Avalanche))
	_ = s.SetAllocation(ctx, "u", decimal.RequireFromString("125.50"))
	_ = s.SetPaidOff(ctx, "u", "visa", true)
	_ = s.SetPaidOff(ctx, "u", "loan", false)

	p, err := s.Load(ctx, "u")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m, ok := p.Method(); !ok || m != core.Avalanche {
		t.Errorf("method = %v", m)
	}
	if !p.Allocation.Equal(decimal.RequireFromString("125.5")) {
		t.Errorf("allocation = %s", p.Allocation)
	}
	if !p.PaidOff["visa"] || p.PaidOff["loan"] {
		t.Errorf("paid off = %v", p.PaidOff)
	}

	// clearing the method must not touch the other fields
	_ = s.SetMethod(ctx, "u", nil)
	_ = s.DeletePaidOff(ctx, "u", "loan")
	p, _ = s.Load(ctx, "u")
	if p.ChosenMethod != nil {
		t.Error("method not cleared")
	}
	if p.Allocation.IsZero() || !p.PaidOff["visa"] {
		t.Errorf("merge overwrote unrelated fields: %+v", p)
	}
	if _, ok := p.PaidOff["loan"]; ok {
		t.Error("DeletePaidOff left the entry behind")
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id":"visa","type":"debt","category":"Credit Card","amount":"0","remainingBalance":"900","interestRate":"24.99"}]`
	if err := os.WriteFile(filepath.Join(dir, "alice.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	got, _ := s.ListTransactions(context.Background(), "alice")
	if len(got) != 1 || got[0].ID != "visa" {
		t.Fatalf("unexpected seed: %+v", got)
	}

	empty, err := NewFromDir("")
	if err != nil {
		t.Fatalf("NewFromDir(\"\"): %v", err)
	}
	if got, _ := empty.ListTransactions(context.Background(), "alice"); len(got) != 0 {
		t.Fatal("expected empty store")
	}
}
