package redisstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/preferences"
)

func TestDecode(t *testing.T) {
	t.Run("empty is not found", func(t *testing.T) {
		if _, err := decode(nil, nil); !errors.Is(err, preferences.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
	t.Run("all fields", func(t *testing.T) {
		p, err := decode(
			map[string]string{fieldMethod: "avalanche", fieldAllocation: "75.5"},
			map[string]string{"visa": "1", "loan": "0"},
		)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m, ok := p.Method(); !ok || m != core.Avalanche {
			t.Errorf("method = %v", m)
		}
		if !p.Allocation.Equal(decimal.RequireFromString("75.5")) {
			t.Errorf("allocation = %s", p.Allocation)
		}
		if !p.PaidOff["visa"] || p.PaidOff["loan"] {
			t.Errorf("paid off = %v", p.PaidOff)
		}
	})
	t.Run("only marks", func(t *testing.T) {
		p, err := decode(nil, map[string]string{"visa": "1"})
		if err != nil || p.ChosenMethod != nil || !p.Allocation.IsZero() {
			t.Fatalf("decode = %+v, %v", p, err)
		}
	})
	t.Run("corrupt method", func(t *testing.T) {
		if _, err := decode(map[string]string{fieldMethod: "hybrid"}, nil); !errors.Is(err, core.ErrUnknownMethod) {
			t.Fatalf("expected ErrUnknownMethod, got %v", err)
		}
	})
	t.Run("corrupt allocation", func(t *testing.T) {
		if _, err := decode(map[string]string{fieldAllocation: "lots"}, nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestKeys(t *testing.T) {
	s := New("localhost:0", 0).WithPrefix("test")
	if got := s.prefsKey("alice"); got != "test:prefs:alice" {
		t.Errorf("prefsKey = %q", got)
	}
	if got := s.paidOffKey("alice"); got != "test:paid_off:alice" {
		t.Errorf("paidOffKey = %q", got)
	}
}

// Runs against a real server when PAYOFF_TEST_REDIS_ADDR is set.
func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("PAYOFF_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PAYOFF_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := New(addr, 0).WithPrefix(fmt.Sprintf("payoff-test-%d", time.Now().UnixNano()))
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	user := "alice"
	defer s.client.Del(context.Background(), s.prefsKey(user), s.paidOffKey(user))

	if _, err := s.Load(ctx, user); !errors.Is(err, preferences.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := s.SetAllocation(ctx, user, decimal.NewFromInt(40)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMethod(ctx, user, preferences.MethodPtr(core.Snowball)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPaidOff(ctx, user, "visa", true); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load(ctx, user)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m, _ := p.Method(); m != core.Snowball || !p.Allocation.Equal(decimal.NewFromInt(40)) || !p.PaidOff["visa"] {
		t.Fatalf("unexpected preferences: %+v", p)
	}

	if err := s.SetMethod(ctx, user, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePaidOff(ctx, user, "visa"); err != nil {
		t.Fatal(err)
	}
	p, err = s.Load(ctx, user)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ChosenMethod != nil || len(p.PaidOff) != 0 || p.Allocation.IsZero() {
		t.Fatalf("merge semantics broken: %+v", p)
	}
}
