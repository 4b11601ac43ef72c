package http

import (
	"time"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/progress"
	"payoff/internal/services"
)

// Amounts travel as fixed two-decimal strings so clients never see float
// rounding.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

type debtView struct {
	ID             string `json:"id"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category"`
	Balance        string `json:"balance"`
	InterestRate   string `json:"interestRate"`
	MinimumPayment string `json:"minimumPayment"`
}

type scheduleView struct {
	debtView
	RemainingBalance string `json:"remainingBalance"`
	TotalInterest    string `json:"totalInterest"`
	TotalPaid        string `json:"totalPaid"`
	PayoffMonth      *int   `json:"payoffMonth"`
	PaidOff          bool   `json:"paidOff"`
	Marked           *bool  `json:"markedPaidOff,omitempty"`
}

type debtMonthView struct {
	DebtID   string `json:"debtId"`
	Interest string `json:"interest"`
	Payment  string `json:"payment"`
	Balance  string `json:"balance"`
}

type monthView struct {
	Month    int             `json:"month"`
	TargetID string          `json:"targetId,omitempty"`
	Interest string          `json:"interest"`
	Paid     string          `json:"paid"`
	Debts    []debtMonthView `json:"debts"`
}

type debtFreeView struct {
	Date       string `json:"date"`
	Achievable bool   `json:"achievable"`
}

type resultView struct {
	Method        string         `json:"method"`
	TotalMonths   int            `json:"totalMonths"`
	TotalInterest string         `json:"totalInterest"`
	Converged     bool           `json:"converged"`
	DebtFree      debtFreeView   `json:"debtFree"`
	Schedule      []scheduleView `json:"schedule"`
	Timeline      []monthView    `json:"timeline,omitempty"`
}

type comparisonView struct {
	Eligible        bool       `json:"eligible"`
	Debts           []debtView `json:"debts"`
	TotalDebt       string     `json:"totalDebt"`
	MonthlyPayment  string     `json:"monthlyPayment"`
	Snowball        resultView `json:"snowball"`
	Avalanche       resultView `json:"avalanche"`
	InterestSavings string     `json:"interestSavings"`
	TimeSavings     int        `json:"timeSavings"`
	ChosenMethod    *string    `json:"chosenMethod"`
}

type planView struct {
	Eligible       bool       `json:"eligible"`
	Method         string     `json:"method"`
	Extra          string     `json:"extra"`
	MonthlyPayment string     `json:"monthlyPayment"`
	Plan           resultView `json:"plan"`
	Warning        string     `json:"warning,omitempty"`
}

// emptyStateView is returned with 200 when no debt qualifies for planning.
type emptyStateView struct {
	Eligible bool       `json:"eligible"`
	Message  string     `json:"message"`
	Debts    []debtView `json:"debts"`
}

func newEmptyStateView(message string) emptyStateView {
	return emptyStateView{Eligible: false, Message: message, Debts: []debtView{}}
}

type methodView struct {
	ChosenMethod *string `json:"chosenMethod"`
}

type allocationView struct {
	Allocation string `json:"allocation"`
}

type toggleView struct {
	DebtID    string `json:"debtId"`
	State     string `json:"state"`
	Persisted bool   `json:"persisted"`
}

func newDebtView(d core.Debt) debtView {
	return debtView{
		ID:             d.ID,
		Description:    d.Description,
		Category:       d.Category,
		Balance:        money(d.StartingBalance),
		InterestRate:   d.InterestRateAnnualPercent.String(),
		MinimumPayment: money(d.MinimumPayment),
	}
}

func newScheduleView(s core.SimulationDebtState) scheduleView {
	return scheduleView{
		debtView:         newDebtView(s.Debt),
		RemainingBalance: money(s.RemainingBalance),
		TotalInterest:    money(s.TotalInterestAccrued),
		TotalPaid:        money(s.TotalPaid),
		PayoffMonth:      s.PayoffMonth,
		PaidOff:          s.IsPaidOff,
	}
}

func newDebtFreeView(d services.DebtFree) debtFreeView {
	return debtFreeView{Date: d.Date.Format(time.DateOnly), Achievable: d.Achievable}
}

func newResultView(r core.SimulationResult, free services.DebtFree, timeline bool) resultView {
	v := resultView{
		Method:        r.Method.String(),
		TotalMonths:   r.TotalMonths,
		TotalInterest: money(r.TotalInterest),
		Converged:     r.Converged,
		DebtFree:      newDebtFreeView(free),
		Schedule:      make([]scheduleView, 0, len(r.PayoffSchedule)),
	}
	for _, s := range r.PayoffSchedule {
		v.Schedule = append(v.Schedule, newScheduleView(s))
	}
	if timeline {
		v.Timeline = newTimelineView(r.Timeline)
	}
	return v
}

func newTimelineView(months []core.MonthRecord) []monthView {
	out := make([]monthView, 0, len(months))
	for _, m := range months {
		mv := monthView{
			Month:    m.Month,
			TargetID: m.TargetID,
			Interest: money(m.Interest),
			Paid:     money(m.Paid),
			Debts:    make([]debtMonthView, 0, len(m.Debts)),
		}
		for _, d := range m.Debts {
			mv.Debts = append(mv.Debts, debtMonthView{
				DebtID:   d.DebtID,
				Interest: money(d.Interest),
				Payment:  money(d.Payment),
				Balance:  money(d.Balance),
			})
		}
		out = append(out, mv)
	}
	return out
}

func newComparisonView(c services.Comparison, timeline bool) comparisonView {
	v := comparisonView{
		Eligible:        true,
		Debts:           make([]debtView, 0, len(c.Debts)),
		TotalDebt:       money(c.TotalDebt),
		MonthlyPayment:  money(c.MonthlyPayment),
		Snowball:        newResultView(c.Snowball, c.SnowballDebtFree, timeline),
		Avalanche:       newResultView(c.Avalanche, c.AvalancheDebtFree, timeline),
		InterestSavings: money(c.InterestSavings),
		TimeSavings:     c.TimeSavings,
		ChosenMethod:    methodString(c.ChosenMethod),
	}
	for _, d := range c.Debts {
		v.Debts = append(v.Debts, newDebtView(d))
	}
	return v
}

func newPlanView(p services.Plan, timeline bool) planView {
	v := planView{
		Eligible:       true,
		Method:         p.Method.String(),
		Extra:          money(p.Extra),
		MonthlyPayment: money(p.MonthlyPayment),
		Plan:           newResultView(p.Result, p.DebtFree, timeline),
	}
	marks := make(map[string]bool, len(p.Entries))
	for _, e := range p.Entries {
		marks[e.ID] = e.Marked
	}
	for i := range v.Plan.Schedule {
		marked := marks[v.Plan.Schedule[i].ID]
		v.Plan.Schedule[i].Marked = &marked
	}
	if err := p.Result.Err(); err != nil {
		v.Warning = err.Error()
	}
	return v
}

func newToggleView(t progress.Toggled) toggleView {
	return toggleView{DebtID: t.DebtID, State: t.State.String(), Persisted: t.Persisted}
}

func methodString(m *core.Method) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
