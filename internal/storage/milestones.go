package storage

import (
	"context"
	"fmt"
	"time"
)

const (
	MilestoneMarked   = "marked_paid_off"
	MilestoneUnmarked = "unmarked"
)

// Milestone is a recorded payoff progress event.
type Milestone struct {
	EventID    string
	UserID     string
	DebtID     string
	Kind       string
	OccurredAt time.Time
	RecordedAt time.Time
}

// RecordMilestone stores m once per event id. It reports false when the
// event was already recorded, so redelivered messages are harmless.
func (r *SQLiteRepository) RecordMilestone(ctx context.Context, m Milestone) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO milestones (event_id, user_id, debt_id, kind, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING`,
		m.EventID, m.UserID, m.DebtID, m.Kind,
		m.OccurredAt.UTC().Format(timeLayout), r.stamp())
	if err != nil {
		return false, fmt.Errorf("record milestone %s: %w", m.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record milestone %s: %w", m.EventID, err)
	}
	return n == 1, nil
}

// ListMilestones returns a user's milestones oldest first.
func (r *SQLiteRepository) ListMilestones(ctx context.Context, userID string) ([]Milestone, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, user_id, debt_id, kind, occurred_at, recorded_at
		FROM milestones
		WHERE user_id = ?
		ORDER BY occurred_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		var (
			m                  Milestone
			occurred, recorded string
		)
		if err := rows.Scan(&m.EventID, &m.UserID, &m.DebtID, &m.Kind, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		if m.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("milestone %s occurred_at: %w", m.EventID, err)
		}
		if m.RecordedAt, err = time.Parse(timeLayout, recorded); err != nil {
			return nil, fmt.Errorf("milestone %s recorded_at: %w", m.EventID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
