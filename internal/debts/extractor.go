// Package debts turns transaction records into the debt snapshot used for
// payoff planning.
//
// The eligibility rule lives in IsEligible and nowhere else: every screen
// that compares payoff strategies goes through Extract.
package debts

import (
	"strings"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
)

var (
	minimumPaymentRate  = decimal.RequireFromString("0.02")
	minimumPaymentFloor = decimal.NewFromInt(25)
)

// excludedCategories are matched as case-insensitive substrings of the
// transaction category. Student and auto loans sit outside the comparison cohort.
var excludedCategories = []string{"student", "auto", "vehicle"}

// RawDebtInput is a debt as it arrives from the store, with optional fields
// still unresolved.
type RawDebtInput struct {
	ID             string
	Description    string
	Category       string
	Balance        decimal.Decimal
	InterestRate   *decimal.Decimal
	MinimumPayment *decimal.Decimal
}

// FromTransaction lifts a transaction record into a RawDebtInput.
func FromTransaction(tx core.Transaction) RawDebtInput {
	return RawDebtInput{
		ID:             tx.ID,
		Description:    tx.Description,
		Category:       tx.Category,
		Balance:        tx.RemainingBalance,
		InterestRate:   tx.InterestRate,
		MinimumPayment: tx.MinimumPayment,
	}
}

// Normalize resolves the optional fields of raw into a fully populated Debt.
// A missing rate becomes 0; a missing or non-positive minimum payment is
// derived with DefaultMinimumPayment.
func Normalize(raw RawDebtInput) core.Debt {
	rate := decimal.Zero
	if raw.InterestRate != nil && raw.InterestRate.IsPositive() {
		rate = *raw.InterestRate
	}

	minPayment := DefaultMinimumPayment(raw.Balance)
	if raw.MinimumPayment != nil && raw.MinimumPayment.IsPositive() {
		minPayment = *raw.MinimumPayment
	}

	return core.Debt{
		ID:                        raw.ID,
		Description:               raw.Description,
		Category:                  raw.Category,
		StartingBalance:           raw.Balance,
		InterestRateAnnualPercent: rate,
		MinimumPayment:            minPayment,
	}
}

// DefaultMinimumPayment is max(balance * 2%, 25), rounded to the cent.
func DefaultMinimumPayment(balance decimal.Decimal) decimal.Decimal {
	return core.RoundCents(decimal.Max(balance.Mul(minimumPaymentRate), minimumPaymentFloor))
}

// IsExcludedCategory reports whether category names a student or auto loan.
func IsExcludedCategory(category string) bool {
	c := strings.ToLower(category)
	for _, sub := range excludedCategories {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// IsEligible reports whether tx belongs to the Snowball/Avalanche comparison
// cohort: a debt with a positive balance, a known positive rate, and a
// category that is not a student or auto loan.
func IsEligible(tx core.Transaction) bool {
	if tx.Type != core.TypeDebt {
		return false
	}
	if !tx.RemainingBalance.IsPositive() {
		return false
	}
	if tx.InterestRate == nil || !tx.InterestRate.IsPositive() {
		return false
	}
	return !IsExcludedCategory(tx.Category)
}

// Extract returns the eligible debts in input order. It returns
// core.ErrNoEligibleDebts when nothing qualifies, which callers should render
// as an empty state.
func Extract(txs []core.Transaction) ([]core.Debt, error) {
	var out []core.Debt
	for _, tx := range txs {
		if !IsEligible(tx) {
			continue
		}
		out = append(out, Normalize(FromTransaction(tx)))
	}
	if len(out) == 0 {
		return nil, core.ErrNoEligibleDebts
	}
	return out, nil
}

// IDs returns the debt ids in order.
func IDs(ds []core.Debt) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return ids
}
