package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"payoff/internal/cache"
	"payoff/internal/comparator"
	"payoff/internal/core"
	"payoff/internal/debts"
	"payoff/internal/ledger"
	"payoff/internal/log"
	"payoff/internal/preferences"
	"payoff/internal/progress"
	"payoff/internal/simulator"
)

var (
	ErrNoMethodChosen = errors.New("no payoff method chosen")
	ErrUnknownDebt    = errors.New("debt is not part of the payoff plan")
)

// DebtFree is a projected debt-free date. Achievable is false when the plan
// hit the month cap, in which case Date is only the cap.
type DebtFree struct {
	Date       time.Time
	Achievable bool
}

type Comparison struct {
	core.ComparisonResult
	SnowballDebtFree  DebtFree
	AvalancheDebtFree DebtFree
	ChosenMethod      *core.Method
}

type Plan struct {
	Method         core.Method
	Extra          decimal.Decimal
	MonthlyPayment decimal.Decimal // minimums + extra
	Result         core.SimulationResult
	Entries        []progress.Entry
	DebtFree       DebtFree
}

type PlanOptions struct {
	Notifier       progress.Notifier
	ComparisonMemo cache.Cache[core.ComparisonResult]
	PlanMemo       cache.Cache[core.SimulationResult]
	WriteRetries   int
	Now            func() time.Time
	Logger         *log.Logger
}

// PlanService wires the payoff engine to the ledger and preference stores.
// Debt snapshots are re-extracted on every call; only the pure simulation
// results are memoized, keyed by the snapshot they were computed from.
type PlanService struct {
	ledger ledger.TransactionReader
	prefs  preferences.Store
	opts   PlanOptions
	logger *log.Logger

	mu       sync.Mutex
	trackers map[string]*progress.Tracker
}

func NewPlanService(txs ledger.TransactionReader, prefs preferences.Store, opts PlanOptions) *PlanService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	return &PlanService{
		ledger:   txs,
		prefs:    prefs,
		opts:     opts,
		logger:   opts.Logger.WithComponent(log.ComponentPlan),
		trackers: make(map[string]*progress.Tracker),
	}
}

// Debts returns the current eligible debt snapshot for a user.
func (s *PlanService) Debts(ctx context.Context, userID string) ([]core.Debt, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return debts.Extract(txs)
}

// Comparison runs Snowball and Avalanche on the minimum-payment budget.
func (s *PlanService) Comparison(ctx context.Context, userID string) (Comparison, error) {
	snapshot, err := s.Debts(ctx, userID)
	if err != nil {
		return Comparison{}, err
	}

	key := "compare:" + Fingerprint(snapshot, "", decimal.Zero)
	result, hit := s.lookupComparison(key)
	if !hit {
		if result, err = comparator.Compare(snapshot); err != nil {
			return Comparison{}, err
		}
		if s.opts.ComparisonMemo != nil {
			s.opts.ComparisonMemo.Set(key, result)
		}
	}

	prefs, err := preferences.Load(ctx, s.prefs, userID)
	if err != nil {
		return Comparison{}, fmt.Errorf("load preferences: %w", err)
	}

	now := s.opts.Now()
	out := Comparison{
		ComparisonResult:  result,
		SnowballDebtFree:  debtFree(result.Snowball, now),
		AvalancheDebtFree: debtFree(result.Avalanche, now),
		ChosenMethod:      prefs.ChosenMethod,
	}

	s.logger.InfoContext(ctx, "Strategies compared",
		log.FieldUser, userID,
		log.FieldOperation, log.OpCompare,
		log.FieldDebtCount, len(snapshot),
		"interest_savings", result.InterestSavings.String(),
		"time_savings", result.TimeSavings,
		"memo_hit", hit)
	return out, nil
}

// ActionPlan re-simulates the chosen method with the stored extra
// allocation and annotates the schedule with the user's marks.
func (s *PlanService) ActionPlan(ctx context.Context, userID string) (Plan, error) {
	prefs, err := preferences.Load(ctx, s.prefs, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("load preferences: %w", err)
	}
	method, ok := prefs.Method()
	if !ok {
		return Plan{}, ErrNoMethodChosen
	}
	return s.plan(ctx, userID, method, prefs.Allocation, true)
}

// Preview simulates method and extra without touching stored preferences.
// Marks for deleted debts are left for the next stored plan to prune.
func (s *PlanService) Preview(ctx context.Context, userID string, method core.Method, rawExtra string) (Plan, error) {
	extra, err := core.ParseAllocation(rawExtra)
	if err != nil {
		return Plan{}, err
	}
	return s.plan(ctx, userID, method, extra, false)
}

func (s *PlanService) plan(ctx context.Context, userID string, method core.Method, extra decimal.Decimal, prune bool) (Plan, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("list transactions: %w", err)
	}
	snapshot, err := debts.Extract(txs)
	if err != nil {
		return Plan{}, err
	}

	tracker, err := s.tracker(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	if prune {
		tracker.Prune(ctx, transactionIDs(txs))
	}

	key := "plan:" + Fingerprint(snapshot, method, extra)
	result, hit := s.lookupPlan(key)
	if !hit {
		if result, err = comparator.ActionPlan(snapshot, method, extra); err != nil {
			return Plan{}, err
		}
		if s.opts.PlanMemo != nil {
			s.opts.PlanMemo.Set(key, result)
		}
	}

	plan := Plan{
		Method:         method,
		Extra:          extra,
		MonthlyPayment: comparator.MonthlyPayment(snapshot).Add(extra),
		Result:         result,
		Entries:        tracker.Annotate(result),
		DebtFree:       debtFree(result, s.opts.Now()),
	}

	fields := log.NewFields().
		WithOperation(log.OpPlan).
		WithPlan(method.String(), result.TotalMonths, result.TotalInterest.String(), result.Converged)
	fields[log.FieldUser] = userID
	fields["memo_hit"] = hit
	if err := result.Err(); err != nil {
		s.logger.WarnContext(ctx, "Payoff plan does not converge", fields.WithError(err).ToSlice()...)
	} else {
		s.logger.InfoContext(ctx, "Payoff plan computed", fields.ToSlice()...)
	}
	return plan, nil
}

// ChooseMethod stores the user's method. A blank name clears the choice.
func (s *PlanService) ChooseMethod(ctx context.Context, userID, raw string) (*core.Method, error) {
	var method *core.Method
	if strings.TrimSpace(raw) != "" {
		m, err := core.ParseMethod(raw)
		if err != nil {
			return nil, err
		}
		method = &m
	}
	if err := s.prefs.SetMethod(ctx, userID, method); err != nil {
		return nil, fmt.Errorf("save method: %w", err)
	}
	s.logger.InfoContext(ctx, "Payoff method chosen",
		log.FieldUser, userID, log.FieldOperation, log.OpChoose, log.FieldPayoff, methodName(method))
	return method, nil
}

// SetAllocation validates and stores the extra monthly payment. Invalid
// input is rejected before the store is touched, so the previous value
// stays in effect.
func (s *PlanService) SetAllocation(ctx context.Context, userID, raw string) (decimal.Decimal, error) {
	extra, err := core.ParseAllocation(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected allocation input",
			log.FieldUser, userID, log.FieldOperation, log.OpAllocate, log.FieldError, err)
		return decimal.Zero, err
	}
	if err := s.prefs.SetAllocation(ctx, userID, extra); err != nil {
		return decimal.Zero, fmt.Errorf("save allocation: %w", err)
	}
	s.logger.InfoContext(ctx, "Payoff allocation updated",
		log.FieldUser, userID, log.FieldOperation, log.OpAllocate, log.FieldAllocation, extra.String())
	return extra, nil
}

// TogglePaidOff flips the user's mark on an eligible debt. Marks for debts
// that no longer exist are pruned first.
func (s *PlanService) TogglePaidOff(ctx context.Context, userID, debtID string) (progress.Toggled, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return progress.Toggled{}, fmt.Errorf("list transactions: %w", err)
	}
	snapshot, err := debts.Extract(txs)
	if err != nil && !errors.Is(err, core.ErrNoEligibleDebts) {
		return progress.Toggled{}, err
	}
	tracker, err := s.tracker(ctx, userID)
	if err != nil {
		return progress.Toggled{}, err
	}
	tracker.Prune(ctx, transactionIDs(txs))

	if !containsID(snapshot, debtID) {
		return progress.Toggled{}, fmt.Errorf("%w: %q", ErrUnknownDebt, debtID)
	}
	return tracker.Toggle(ctx, debtID), nil
}

// Progress returns the user's current marks.
func (s *PlanService) Progress(ctx context.Context, userID string) (map[string]bool, error) {
	tracker, err := s.tracker(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tracker.Snapshot(), nil
}

// tracker returns the user's tracker, seeding it from the preference store
// on first use.
func (s *PlanService) tracker(ctx context.Context, userID string) (*progress.Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trackers[userID]; ok {
		return t, nil
	}
	prefs, err := preferences.Load(ctx, s.prefs, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	t := progress.NewTracker(userID, prefs.PaidOff, s.prefs, progress.Options{
		Retries:  s.opts.WriteRetries,
		Notifier: s.opts.Notifier,
		Logger:   s.opts.Logger,
		Now:      s.opts.Now,
	})
	s.trackers[userID] = t
	return t, nil
}

func (s *PlanService) lookupComparison(key string) (core.ComparisonResult, bool) {
	if s.opts.ComparisonMemo == nil {
		return core.ComparisonResult{}, false
	}
	return s.opts.ComparisonMemo.Get(key)
}

func (s *PlanService) lookupPlan(key string) (core.SimulationResult, bool) {
	if s.opts.PlanMemo == nil {
		return core.SimulationResult{}, false
	}
	return s.opts.PlanMemo.Get(key)
}

// Fingerprint identifies a simulation input: the ordered debt snapshot,
// the method and the extra payment.
func Fingerprint(snapshot []core.Debt, method core.Method, extra decimal.Decimal) string {
	h := xxhash.New()
	for _, d := range snapshot {
		for _, part := range []string{d.ID, d.StartingBalance.String(), d.InterestRateAnnualPercent.String(), d.MinimumPayment.String()} {
			h.WriteString(part)
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	h.WriteString(method.String())
	h.Write([]byte{0})
	h.WriteString(extra.String())
	return strconv.FormatUint(h.Sum64(), 16)
}

func debtFree(r core.SimulationResult, now time.Time) DebtFree {
	date, ok := simulator.DebtFreeDate(r, now)
	return DebtFree{Date: date, Achievable: ok}
}

func transactionIDs(txs []core.Transaction) []string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}

func containsID(ds []core.Debt, id string) bool {
	for _, d := range ds {
		if d.ID == id {
			return true
		}
	}
	return false
}

func methodName(m *core.Method) string {
	if m == nil {
		return "none"
	}
	return m.String()
}
