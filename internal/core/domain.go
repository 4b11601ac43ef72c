package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Snowball  Method = "snowball"  // smallest balance first
	Avalanche Method = "avalanche" // highest APR first
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
	TypeDebt    TransactionType = "debt"
)

type (
	Method string

	TransactionType string

	// Transaction is the record shape read from the transaction store.
	// InterestRate and MinimumPayment are optional on the wire.
	Transaction struct {
		ID               string           `json:"id"`
		Type             TransactionType  `json:"type"`
		Category         string           `json:"category"`
		Description      string           `json:"description,omitempty"`
		Amount           decimal.Decimal  `json:"amount"`
		RemainingBalance decimal.Decimal  `json:"remainingBalance"`
		InterestRate     *decimal.Decimal `json:"interestRate,omitempty"` // annual percent, e.g. 24.99
		MinimumPayment   *decimal.Decimal `json:"minimumPayment,omitempty"`
	}

	// Debt is a normalized, simulation-ready snapshot of one obligation.
	Debt struct {
		ID                        string
		Description               string
		Category                  string
		StartingBalance           decimal.Decimal
		InterestRateAnnualPercent decimal.Decimal
		MinimumPayment            decimal.Decimal
	}

	// SimulationDebtState is the per-debt working state of a single run.
	SimulationDebtState struct {
		Debt
		RemainingBalance     decimal.Decimal
		TotalInterestAccrued decimal.Decimal
		TotalPaid            decimal.Decimal
		PayoffMonth          *int // 1-based, nil while unpaid
		IsPaidOff            bool
	}

	// DebtMonth is one debt's line in a month of the timeline.
	DebtMonth struct {
		DebtID   string
		Interest decimal.Decimal
		Payment  decimal.Decimal
		Balance  decimal.Decimal // end of month
	}

	// MonthRecord captures what happened in one simulated month.
	MonthRecord struct {
		Month    int
		TargetID string // debt that received the remainder, empty if none
		Interest decimal.Decimal
		Paid     decimal.Decimal
		Debts    []DebtMonth // input order
	}

	SimulationResult struct {
		Method         Method
		TotalMonths    int
		TotalInterest  decimal.Decimal
		PayoffSchedule []SimulationDebtState // input order, not payoff order
		Timeline       []MonthRecord
		Converged      bool
	}

	ComparisonResult struct {
		Debts           []Debt
		TotalDebt       decimal.Decimal
		MonthlyPayment  decimal.Decimal // sum of minimum payments
		Snowball        SimulationResult
		Avalanche       SimulationResult
		InterestSavings decimal.Decimal // snowball - avalanche, may be negative
		TimeSavings     int             // snowball - avalanche, may be negative
	}
)

var (
	ErrNoEligibleDebts        = errors.New("no eligible debts")
	ErrInvalidAllocationInput = errors.New("invalid allocation input")
	ErrNonConvergentPlan      = errors.New("plan does not converge at this payment level")
	ErrUnknownMethod          = errors.New("unknown payoff method")
	ErrEmptyID                = errors.New("empty transaction id")
	ErrInvalidType            = errors.New("invalid transaction type")
)

// ParseMethod accepts a payoff method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

func (m Method) IsValid() bool {
	switch m {
	case Snowball, Avalanche:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeDebt:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if t.RemainingBalance.IsNegative() {
		return errors.New("remaining balance cannot be negative")
	}
	if t.InterestRate != nil && t.InterestRate.IsNegative() {
		return errors.New("interest rate cannot be negative")
	}
	return nil
}

// Err reports ErrNonConvergentPlan when the run stopped at the month cap
// with balances still outstanding.
func (r SimulationResult) Err() error {
	if r.Converged {
		return nil
	}
	return fmt.Errorf("%w: %d debt(s) unpaid after %d months", ErrNonConvergentPlan, len(r.Unpaid()), r.TotalMonths)
}

// Unpaid returns the ids of debts not paid off by the end of the run.
func (r SimulationResult) Unpaid() []string {
	var ids []string
	for _, s := range r.PayoffSchedule {
		if !s.IsPaidOff {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// State returns the final state of a debt by id.
func (r SimulationResult) State(id string) (SimulationDebtState, bool) {
	for _, s := range r.PayoffSchedule {
		if s.ID == id {
			return s, true
		}
	}
	return SimulationDebtState{}, false
}
