package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"payoff/internal/core"
	"payoff/internal/services"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)
)

// Table is a bordered text table. The first column is left aligned, the
// rest right aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderWarning renders a highlighted one-line warning.
func RenderWarning(msg string) string {
	return warnStyle.Render("! " + msg)
}

// RenderEmptyState is shown instead of a table when no debt qualifies.
func RenderEmptyState(msg string) string {
	return dimStyle.Render(msg) + "\n"
}

func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < numCols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right) + "\n")
	}
	line := func(cells []string, style lipgloss.Style, header bool) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 || header {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	line(t.Headers, headerStyle, true)
	rule("├", "┼", "┤")
	for _, row := range t.Rows {
		line(row, valueStyle, false)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderComparison renders both strategies side by side.
func RenderComparison(c services.Comparison) string {
	var b strings.Builder
	b.WriteString(RenderTitle("SNOWBALL vs AVALANCHE") + "\n\n")

	debtRows := make([][]string, 0, len(c.Debts))
	for _, d := range c.Debts {
		debtRows = append(debtRows, []string{label(d), core.FormatMoney(d.StartingBalance),
			d.InterestRateAnnualPercent.String() + "%", core.FormatMoney(d.MinimumPayment)})
	}
	b.WriteString(RenderTable(Table{
		Title:   fmt.Sprintf("Debts  total %s, minimums %s/mo", core.FormatMoney(c.TotalDebt), core.FormatMoney(c.MonthlyPayment)),
		Headers: []string{"Debt", "Balance", "APR", "Minimum"},
		Rows:    debtRows,
	}))
	b.WriteString("\n")

	b.WriteString(RenderTable(Table{
		Headers: []string{"Method", "Months", "Interest", "Debt-free"},
		Rows: [][]string{
			{"Snowball", strconv.Itoa(c.Snowball.TotalMonths), core.FormatMoney(c.Snowball.TotalInterest), debtFreeLabel(c.SnowballDebtFree)},
			{"Avalanche", strconv.Itoa(c.Avalanche.TotalMonths), core.FormatMoney(c.Avalanche.TotalInterest), debtFreeLabel(c.AvalancheDebtFree)},
		},
	}))

	savings := fmt.Sprintf("Avalanche saves %s in interest and %d month(s).", core.FormatMoney(c.InterestSavings), c.TimeSavings)
	if c.InterestSavings.IsNegative() {
		b.WriteString(RenderWarning(savings) + "\n")
	} else {
		b.WriteString(goodStyle.Render(savings) + "\n")
	}
	if c.ChosenMethod != nil {
		b.WriteString(valueStyle.Render("Chosen method: "+c.ChosenMethod.String()) + "\n")
	}
	return b.String()
}

// RenderPlan renders the payoff schedule and, optionally, the month by
// month timeline.
func RenderPlan(p services.Plan, timeline bool) string {
	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("%s PLAN  %s/mo", strings.ToUpper(p.Method.String()), core.FormatMoney(p.MonthlyPayment))) + "\n\n")

	rows := make([][]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		month := "-"
		if e.PayoffMonth != nil {
			month = strconv.Itoa(*e.PayoffMonth)
		}
		mark := ""
		if e.Marked {
			mark = "paid"
		}
		rows = append(rows, []string{label(e.Debt), core.FormatMoney(e.StartingBalance), month,
			core.FormatMoney(e.TotalInterestAccrued), core.FormatMoney(e.TotalPaid), mark})
	}
	b.WriteString(RenderTable(Table{
		Title:   fmt.Sprintf("Extra %s/mo", core.FormatMoney(p.Extra)),
		Headers: []string{"Debt", "Balance", "Paid off", "Interest", "Total paid", "Marked"},
		Rows:    rows,
	}))

	if err := p.Result.Err(); err != nil {
		b.WriteString(RenderWarning(err.Error()) + "\n")
	} else {
		b.WriteString(goodStyle.Render(fmt.Sprintf("Debt-free in %d months (%s), %s interest.",
			p.Result.TotalMonths, debtFreeLabel(p.DebtFree), core.FormatMoney(p.Result.TotalInterest))) + "\n")
	}

	if timeline {
		b.WriteString("\n")
		months := make([][]string, 0, len(p.Result.Timeline))
		for _, m := range p.Result.Timeline {
			months = append(months, []string{strconv.Itoa(m.Month), m.TargetID,
				core.FormatMoney(m.Paid), core.FormatMoney(m.Interest)})
		}
		b.WriteString(RenderTable(Table{
			Title:   "Timeline",
			Headers: []string{"Month", "Target", "Paid", "Interest"},
			Rows:    months,
		}))
	}
	return b.String()
}

func label(d core.Debt) string {
	if d.Description != "" {
		return d.Description
	}
	return d.ID
}

func debtFreeLabel(d services.DebtFree) string {
	if !d.Achievable {
		return "never"
	}
	return d.Date.Format(time.DateOnly)
}
