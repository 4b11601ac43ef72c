// Package progress tracks which debts a user has marked as paid off.
//
// Marks are user-asserted facts. They are never derived from, or
// overwritten by, a simulation's IsPaidOff projection.
package progress

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"payoff/internal/core"
	"payoff/internal/log"
)

type State int

const (
	NotMarked State = iota
	MarkedPaidOff
)

func (s State) String() string {
	if s == MarkedPaidOff {
		return "marked_paid_off"
	}
	return "not_marked"
}

// Writer is the slice of the preference store the tracker persists to.
type Writer interface {
	SetPaidOff(ctx context.Context, userID, debtID string, marked bool) error
	DeletePaidOff(ctx context.Context, userID, debtID string) error
}

// Event describes one transition.
type Event struct {
	UserID string
	DebtID string
	State  State
	At     time.Time
}

// Notifier receives transitions. Marking a debt is the celebration trigger.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Toggled reports the outcome of Toggle. State is the new in-memory state
// and is authoritative even when Persisted is false.
type Toggled struct {
	DebtID    string
	State     State
	Persisted bool
}

// Entry is one schedule row annotated with the user's mark.
type Entry struct {
	core.SimulationDebtState
	Marked bool
}

type Options struct {
	Retries      int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	Notifier     Notifier
	Logger       *log.Logger
	Now          func() time.Time
}

// Tracker holds one user's marks. Changes are applied in memory first and
// persisted afterwards; a failed write is logged and never rolled back.
type Tracker struct {
	userID string
	store  Writer
	opts   Options
	logger *log.Logger

	mu    sync.RWMutex
	marks map[string]bool

	// serializes writes so the store converges on the latest in-memory value
	writeMu sync.Mutex
}

func NewTracker(userID string, initial map[string]bool, store Writer, opts Options) *Tracker {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	marks := make(map[string]bool, len(initial))
	for id, marked := range initial {
		if marked {
			marks[id] = true
		}
	}
	return &Tracker{
		userID: userID,
		store:  store,
		opts:   opts,
		logger: opts.Logger.WithComponent(log.ComponentProgress).With(log.FieldUser, userID),
		marks:  marks,
	}
}

func (t *Tracker) UserID() string { return t.userID }

func (t *Tracker) IsMarked(debtID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.marks[debtID]
}

func (t *Tracker) State(debtID string) State {
	if t.IsMarked(debtID) {
		return MarkedPaidOff
	}
	return NotMarked
}

// Snapshot returns a copy of the current marks.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.marks)
}

// Toggle flips NotMarked and MarkedPaidOff for debtID. Last write wins.
func (t *Tracker) Toggle(ctx context.Context, debtID string) Toggled {
	t.mu.Lock()
	next := !t.marks[debtID]
	if next {
		t.marks[debtID] = true
	} else {
		delete(t.marks, debtID)
	}
	t.mu.Unlock()

	state := NotMarked
	if next {
		state = MarkedPaidOff
	}
	t.logger.InfoContext(ctx, "Payoff mark toggled",
		log.FieldDebtID, debtID, log.FieldMarked, next, log.FieldOperation, log.OpToggle)

	persisted := t.persist(ctx, debtID)
	t.notify(ctx, Event{UserID: t.userID, DebtID: debtID, State: state, At: t.opts.Now()})
	return Toggled{DebtID: debtID, State: state, Persisted: persisted}
}

// Annotate pairs every schedule row of result with the current mark.
func (t *Tracker) Annotate(result core.SimulationResult) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(result.PayoffSchedule))
	for i, s := range result.PayoffSchedule {
		out[i] = Entry{SimulationDebtState: s, Marked: t.marks[s.ID]}
	}
	return out
}

// Prune forgets marks for debts that no longer exist in the ledger and
// returns the ids it dropped.
func (t *Tracker) Prune(ctx context.Context, liveIDs []string) []string {
	t.mu.Lock()
	var gone []string
	for id := range t.marks {
		if !slices.Contains(liveIDs, id) {
			gone = append(gone, id)
			delete(t.marks, id)
		}
	}
	t.mu.Unlock()

	slices.Sort(gone)
	for _, id := range gone {
		t.logger.InfoContext(ctx, "Forgetting mark for deleted debt", log.FieldDebtID, id, log.FieldOperation, log.OpPrune)
		t.persist(ctx, id)
	}
	return gone
}

// persist writes the current in-memory value of debtID, retrying with a
// linear backoff. The request context only contributes values; its
// cancellation does not abort the write.
func (t *Tracker) persist(ctx context.Context, debtID string) bool {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.WriteTimeout)
	defer cancel()

	var err error
retry:
	for attempt := 1; ; attempt++ {
		if err = t.write(wctx, debtID); err == nil {
			return true
		}
		t.logger.WarnContext(ctx, "Payoff mark write failed",
			log.FieldDebtID, debtID, log.FieldAttempt, attempt, log.FieldError, err)
		if attempt > t.opts.Retries {
			break
		}
		select {
		case <-wctx.Done():
			err = wctx.Err()
			break retry
		case <-time.After(time.Duration(attempt) * t.opts.RetryBackoff):
		}
	}
	t.logger.ErrorContext(ctx, "Payoff mark not persisted, keeping in-memory state",
		log.FieldDebtID, debtID, log.FieldOperation, log.OpPersist, log.FieldError, err)
	return false
}

func (t *Tracker) write(ctx context.Context, debtID string) error {
	if t.IsMarked(debtID) {
		return t.store.SetPaidOff(ctx, t.userID, debtID, true)
	}
	return t.store.DeletePaidOff(ctx, t.userID, debtID)
}

func (t *Tracker) notify(ctx context.Context, ev Event) {
	if t.opts.Notifier == nil {
		return
	}
	if err := t.opts.Notifier.Notify(ctx, ev); err != nil {
		t.logger.WarnContext(ctx, "Payoff event not delivered",
			log.FieldDebtID, ev.DebtID, log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}
