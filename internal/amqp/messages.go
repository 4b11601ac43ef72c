package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"payoff/internal/progress"
)

const (
	EventMarkedPaidOff = "debt.marked_paid_off"
	EventUnmarked      = "debt.unmarked"
)

// ProgressEvent is the wire form of a payoff mark transition.
type ProgressEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	DebtID     string    `json:"debt_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProgressEvent stamps a tracker transition with a fresh event id.
func NewProgressEvent(ev progress.Event) *ProgressEvent {
	typ := EventUnmarked
	if ev.State == progress.MarkedPaidOff {
		typ = EventMarkedPaidOff
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return &ProgressEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		UserID:     ev.UserID,
		DebtID:     ev.DebtID,
		OccurredAt: at.UTC(),
	}
}

func (m *ProgressEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProgressEventFromJSON decodes and sanity-checks a message body.
func ProgressEventFromJSON(data []byte) (*ProgressEvent, error) {
	var msg ProgressEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := uuid.Validate(msg.EventID); err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	switch msg.Type {
	case EventMarkedPaidOff, EventUnmarked:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.UserID == "" || msg.DebtID == "" {
		return nil, fmt.Errorf("event %s: missing user or debt id", msg.EventID)
	}
	return &msg, nil
}
