package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/preferences"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "payoff.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRepositoryTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	txs := []core.Transaction{
		{ID: "visa", Type: core.TypeDebt, Category: "Credit Card", Description: "Visa", RemainingBalance: decimal.RequireFromString("1200.50"), InterestRate: ptr("22.9")},
		{ID: "rent", Type: core.TypeExpense, Category: "Housing", Amount: decimal.RequireFromString("1500")},
		{ID: "loan", Type: core.TypeDebt, Category: "Loan", RemainingBalance: decimal.RequireFromString("4000"), InterestRate: ptr("9.5"), MinimumPayment: ptr("120")},
	}
	if err := repo.PutTransactions(ctx, "alice", txs); err != nil {
		t.Fatalf("PutTransactions: %v", err)
	}

	got, err := repo.ListTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 3 || got[0].ID != "visa" || got[1].ID != "rent" || got[2].ID != "loan" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if !got[0].RemainingBalance.Equal(decimal.RequireFromString("1200.5")) || got[0].InterestRate == nil {
		t.Errorf("visa round trip lost data: %+v", got[0])
	}
	if got[0].MinimumPayment != nil {
		t.Errorf("absent minimum payment should stay NULL")
	}
	if got[2].MinimumPayment == nil || !got[2].MinimumPayment.Equal(decimal.NewFromInt(120)) {
		t.Errorf("loan minimum payment lost: %+v", got[2])
	}

	// updating an existing id keeps its position
	update := txs[0]
	update.RemainingBalance = decimal.NewFromInt(900)
	if err := repo.PutTransactions(ctx, "alice", []core.Transaction{update}); err != nil {
		t.Fatalf("PutTransactions update: %v", err)
	}
	got, _ = repo.ListTransactions(ctx, "alice")
	if got[0].ID != "visa" || !got[0].RemainingBalance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("update moved or lost row: %+v", got[0])
	}

	if err := repo.DeleteTransaction(ctx, "alice", "rent"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	got, _ = repo.ListTransactions(ctx, "alice")
	if len(got) != 2 {
		t.Errorf("expected 2 transactions after delete, got %d", len(got))
	}

	other, _ := repo.ListTransactions(ctx, "bob")
	if len(other) != 0 {
		t.Errorf("transactions leaked across users")
	}
}

func TestRepositoryRejectsInvalidTransaction(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.PutTransactions(context.Background(), "alice", []core.Transaction{{ID: "x", Type: "loan"}})
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestRepositoryPreferencesMerge(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Load(ctx, "alice"); !errors.Is(err, preferences.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := repo.SetAllocation(ctx, "alice", decimal.RequireFromString("150.25")); err != nil {
		t.Fatalf("SetAllocation: %v", err)
	}
	if err := repo.SetMethod(ctx, "alice", preferences.MethodPtr(core.Snowball)); err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	if err := repo.SetPaidOff(ctx, "alice", "visa", true); err != nil {
		t.Fatalf("SetPaidOff: %v", err)
	}

	p, err := repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m, ok := p.Method(); !ok || m != core.Snowball {
		t.Errorf("method = %v", m)
	}
	if !p.Allocation.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("allocation overwritten by SetMethod: %s", p.Allocation)
	}
	if !p.PaidOff["visa"] {
		t.Errorf("paid off = %v", p.PaidOff)
	}

	if err := repo.SetMethod(ctx, "alice", nil); err != nil {
		t.Fatalf("SetMethod(nil): %v", err)
	}
	if err := repo.DeletePaidOff(ctx, "alice", "visa"); err != nil {
		t.Fatalf("DeletePaidOff: %v", err)
	}
	p, err = repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ChosenMethod != nil || len(p.PaidOff) != 0 {
		t.Errorf("expected cleared method and marks: %+v", p)
	}
	if p.Allocation.IsZero() {
		t.Errorf("allocation lost")
	}
}

func TestRepositoryPaidOffOnlyUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.SetPaidOff(ctx, "bob", "card", true); err != nil {
		t.Fatalf("SetPaidOff: %v", err)
	}
	p, err := repo.Load(ctx, "bob")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ChosenMethod != nil || !p.Allocation.IsZero() || !p.PaidOff["card"] {
		t.Errorf("unexpected preferences: %+v", p)
	}
}

func TestRepositoryMilestones(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	m := Milestone{EventID: "evt-1", UserID: "alice", DebtID: "visa", Kind: MilestoneMarked, OccurredAt: at}
	inserted, err := repo.RecordMilestone(ctx, m)
	if err != nil || !inserted {
		t.Fatalf("RecordMilestone = %v, %v", inserted, err)
	}
	inserted, err = repo.RecordMilestone(ctx, m)
	if err != nil || inserted {
		t.Fatalf("duplicate RecordMilestone = %v, %v", inserted, err)
	}
	if _, err := repo.RecordMilestone(ctx, Milestone{EventID: "evt-2", UserID: "alice", DebtID: "visa", Kind: MilestoneUnmarked, OccurredAt: at.Add(time.Hour)}); err != nil {
		t.Fatalf("RecordMilestone: %v", err)
	}

	got, err := repo.ListMilestones(ctx, "alice")
	if err != nil {
		t.Fatalf("ListMilestones: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "evt-1" || got[1].Kind != MilestoneUnmarked {
		t.Fatalf("unexpected milestones: %+v", got)
	}
	if !got[0].OccurredAt.Equal(at) || got[0].RecordedAt.IsZero() {
		t.Errorf("timestamps lost: %+v", got[0])
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payoff.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first RunMigrations: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
}
