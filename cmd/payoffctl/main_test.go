package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const aliceSeed = `[
  {"id":"A","type":"debt","category":"Credit Card","amount":"0","remainingBalance":"500","interestRate":"5","minimumPayment":"25"},
  {"id":"B","type":"debt","category":"Personal Loan","amount":"0","remainingBalance":"3000","interestRate":"29","minimumPayment":"60"},
  {"id":"rent","type":"expense","category":"Housing","amount":"1200","remainingBalance":"0"}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.json"), []byte(aliceSeed), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PREFERENCES_BACKEND", "same")
	t.Setenv("SEED_DIR", dir)
	t.Setenv("AMQP_URL", "")
	t.Setenv("DEFAULT_USER", "alice")

	flagUser, flagMethod, flagExtra, flagTimeline = "", "", "0", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompareCommand(t *testing.T) {
	out, err := run(t, "compare")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, want := range []string{"SNOWBALL vs AVALANCHE", "Snowball", "Avalanche", "$3,500.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlanPreviewCommand(t *testing.T) {
	out, err := run(t, "plan", "--method", "avalanche", "--extra", "100", "--timeline")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"AVALANCHE PLAN", "$185.00/mo", "Timeline"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlanWithoutChoiceFails(t *testing.T) {
	if _, err := run(t, "plan"); err == nil || !strings.Contains(err.Error(), "no payoff method chosen") {
		t.Fatalf("err = %v", err)
	}
}

func TestMarkUnknownDebtFails(t *testing.T) {
	if _, err := run(t, "mark", "rent"); err == nil {
		t.Fatal("expected an error for a non-debt transaction")
	}
}

func TestAllocateRejectsNegative(t *testing.T) {
	if _, err := run(t, "allocate", "--", "-5"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestEmptyStateCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"compare", []string{"compare", "--user", "bob"}, "Nothing to compare"},
		{"plan preview", []string{"plan", "--user", "bob", "--method", "snowball"}, "Nothing to plan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("%v should succeed with no debts: %v", tt.args, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}
