// Package redisstore keeps payoff preferences in Redis hashes, one pair of
// hashes per user. HSET and HDEL touch single fields, which gives the
// store its merge semantics.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/preferences"
)

const (
	fieldMethod     = "chosenPayoffMethod"
	fieldAllocation = "debtPayoffAllocation"

	defaultPrefix = "payoff"
)

type Store struct {
	client *redis.Client
	prefix string
}

func New(addr string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, DB: db}))
}

func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, prefix: defaultPrefix}
}

// WithPrefix namespaces all keys, mainly so tests can share a server.
func (s *Store) WithPrefix(prefix string) *Store {
	s.prefix = prefix
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) prefsKey(userID string) string {
	return fmt.Sprintf("%s:prefs:%s", s.prefix, userID)
}

func (s *Store) paidOffKey(userID string) string {
	return fmt.Sprintf("%s:paid_off:%s", s.prefix, userID)
}

func (s *Store) Load(ctx context.Context, userID string) (preferences.Preferences, error) {
	pipe := s.client.Pipeline()
	prefsCmd := pipe.HGetAll(ctx, s.prefsKey(userID))
	paidCmd := pipe.HGetAll(ctx, s.paidOffKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return preferences.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return decode(prefsCmd.Val(), paidCmd.Val())
}

func (s *Store) SetMethod(ctx context.Context, userID string, method *core.Method) error {
	var err error
	if method == nil {
		err = s.client.HDel(ctx, s.prefsKey(userID), fieldMethod).Err()
	} else {
		err = s.client.HSet(ctx, s.prefsKey(userID), fieldMethod, method.String()).Err()
	}
	if err != nil {
		return fmt.Errorf("set payoff method: %w", err)
	}
	return nil
}

func (s *Store) SetAllocation(ctx context.Context, userID string, extra decimal.Decimal) error {
	if err := s.client.HSet(ctx, s.prefsKey(userID), fieldAllocation, extra.String()).Err(); err != nil {
		return fmt.Errorf("set payoff allocation: %w", err)
	}
	return nil
}

func (s *Store) SetPaidOff(ctx context.Context, userID, debtID string, marked bool) error {
	if err := s.client.HSet(ctx, s.paidOffKey(userID), debtID, encodeBool(marked)).Err(); err != nil {
		return fmt.Errorf("set paid off %s: %w", debtID, err)
	}
	return nil
}

func (s *Store) DeletePaidOff(ctx context.Context, userID, debtID string) error {
	if err := s.client.HDel(ctx, s.paidOffKey(userID), debtID).Err(); err != nil {
		return fmt.Errorf("delete paid off %s: %w", debtID, err)
	}
	return nil
}

// decode turns the two raw hashes into Preferences. Both empty means the
// user has never saved anything.
func decode(prefs, paidOff map[string]string) (preferences.Preferences, error) {
	if len(prefs) == 0 && len(paidOff) == 0 {
		return preferences.Preferences{}, preferences.ErrUserNotFound
	}
	p := preferences.Preferences{Allocation: decimal.Zero, PaidOff: make(map[string]bool, len(paidOff))}
	if v, ok := prefs[fieldMethod]; ok {
		m, err := core.ParseMethod(v)
		if err != nil {
			return preferences.Preferences{}, fmt.Errorf("stored method: %w", err)
		}
		p.ChosenMethod = &m
	}
	if v, ok := prefs[fieldAllocation]; ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return preferences.Preferences{}, fmt.Errorf("stored allocation: %w", err)
		}
		p.Allocation = d
	}
	for id, v := range paidOff {
		p.PaidOff[id] = v == "1"
	}
	return p, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
