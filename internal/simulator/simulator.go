package simulator

import (
	"github.com/shopspring/decimal"

	"payoff/internal/core"
)

// MaxMonths caps a run at 50 years.
const MaxMonths = 600

// annual percent -> monthly fraction
var percentMonths = decimal.NewFromInt(1200)

// Simulate runs the payoff schedule for debts with a fixed monthly budget,
// targeting the remainder according to policy.
//
// Each month interest accrues on every unpaid debt, minimums are paid from a
// shared pool in policy order, and whatever is left goes to the first unpaid
// debt in that order. The remainder is not cascaded to a second debt in the
// same month. The run stops when every debt is paid or after MaxMonths; in
// the latter case the result has Converged == false and callers should check
// result.Err().
//
// Simulate never mutates debts. Totals are summed unrounded and rounded to
// the cent once at the end.
func Simulate(debts []core.Debt, totalMonthlyPayment decimal.Decimal, policy OrderingPolicy) core.SimulationResult {
	states := make([]core.SimulationDebtState, len(debts))
	for i, d := range debts {
		states[i] = core.SimulationDebtState{
			Debt:                 d,
			RemainingBalance:     d.StartingBalance,
			TotalInterestAccrued: decimal.Zero,
			TotalPaid:            decimal.Zero,
		}
		if !d.StartingBalance.IsPositive() {
			zero := 0
			states[i].RemainingBalance = decimal.Zero
			states[i].IsPaidOff = true
			states[i].PayoffMonth = &zero
		}
	}

	order := orderIndices(debts, policy)
	budget := decimal.Max(totalMonthlyPayment, decimal.Zero)
	totalInterest := decimal.Zero
	var timeline []core.MonthRecord

	month := 0
	done := allPaidOff(states)
	for !done && month < MaxMonths {
		month++
		rec := core.MonthRecord{
			Month:    month,
			Interest: decimal.Zero,
			Paid:     decimal.Zero,
			Debts:    make([]core.DebtMonth, len(states)),
		}
		for i := range states {
			rec.Debts[i] = core.DebtMonth{DebtID: states[i].ID, Interest: decimal.Zero, Payment: decimal.Zero}
		}

		// 1) Accrue monthly interest on remaining balances
		for i := range states {
			s := &states[i]
			if s.IsPaidOff {
				continue
			}
			interest := s.RemainingBalance.Mul(s.InterestRateAnnualPercent).Div(percentMonths)
			s.RemainingBalance = s.RemainingBalance.Add(interest)
			s.TotalInterestAccrued = s.TotalInterestAccrued.Add(interest)
			totalInterest = totalInterest.Add(interest)
			rec.Debts[i].Interest = interest
			rec.Interest = rec.Interest.Add(interest)
		}

		// 2) Pay minimums in policy order from the shared pool
		pool := budget
		for _, i := range order {
			s := &states[i]
			if s.IsPaidOff {
				continue
			}
			pay := decimal.Min(s.MinimumPayment, s.RemainingBalance, pool)
			if !pay.IsPositive() {
				continue
			}
			applyPayment(s, pay, month)
			pool = pool.Sub(pay)
			rec.Debts[i].Payment = rec.Debts[i].Payment.Add(pay)
			rec.Paid = rec.Paid.Add(pay)
		}

		// 3) Remainder goes to the first unpaid debt only
		if pool.IsPositive() {
			for _, i := range order {
				s := &states[i]
				if s.IsPaidOff {
					continue
				}
				pay := decimal.Min(pool, s.RemainingBalance)
				applyPayment(s, pay, month)
				rec.TargetID = s.ID
				rec.Debts[i].Payment = rec.Debts[i].Payment.Add(pay)
				rec.Paid = rec.Paid.Add(pay)
				break
			}
		}

		for i := range states {
			rec.Debts[i].Balance = states[i].RemainingBalance
		}
		timeline = append(timeline, roundRecord(rec))
		done = allPaidOff(states)
	}

	for i := range states {
		s := &states[i]
		s.TotalInterestAccrued = core.RoundCents(s.TotalInterestAccrued)
		s.TotalPaid = core.RoundCents(s.TotalPaid)
		s.RemainingBalance = core.RoundCents(s.RemainingBalance)
	}

	return core.SimulationResult{
		Method:         policy.Method(),
		TotalMonths:    month,
		TotalInterest:  core.RoundCents(totalInterest),
		PayoffSchedule: states,
		Timeline:       timeline,
		Converged:      done,
	}
}

// SimulateMethod is Simulate with the policy looked up by method name.
func SimulateMethod(debts []core.Debt, totalMonthlyPayment decimal.Decimal, method core.Method) (core.SimulationResult, error) {
	policy, err := PolicyFor(method)
	if err != nil {
		return core.SimulationResult{}, err
	}
	return Simulate(debts, totalMonthlyPayment, policy), nil
}

func applyPayment(s *core.SimulationDebtState, pay decimal.Decimal, month int) {
	s.RemainingBalance = s.RemainingBalance.Sub(pay)
	s.TotalPaid = s.TotalPaid.Add(pay)
	if !s.RemainingBalance.IsPositive() {
		m := month
		s.RemainingBalance = decimal.Zero
		s.IsPaidOff = true
		s.PayoffMonth = &m
	}
}

func allPaidOff(states []core.SimulationDebtState) bool {
	for _, s := range states {
		if !s.IsPaidOff {
			return false
		}
	}
	return true
}

func roundRecord(rec core.MonthRecord) core.MonthRecord {
	rec.Interest = core.RoundCents(rec.Interest)
	rec.Paid = core.RoundCents(rec.Paid)
	for i := range rec.Debts {
		rec.Debts[i].Interest = core.RoundCents(rec.Debts[i].Interest)
		rec.Debts[i].Payment = core.RoundCents(rec.Debts[i].Payment)
		rec.Debts[i].Balance = core.RoundCents(rec.Debts[i].Balance)
	}
	return rec
}
