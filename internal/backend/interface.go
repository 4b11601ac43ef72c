// Package backend builds the storage side of the application from config.
package backend

import (
	"context"

	"payoff/internal/ledger"
	"payoff/internal/preferences"
)

// Backend is everything the plan service and the operator tools need from
// storage.
type Backend interface {
	ledger.TransactionReader
	ledger.TransactionWriter
	preferences.Store
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type        BackendType
	Preferences PreferencesType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	SeedDir string

	// Redis preferences
	RedisAddr string
	RedisDB   int
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// PreferencesType selects where preferences live. SamePreferences keeps
// them in the data backend.
type PreferencesType string

const (
	SamePreferences  PreferencesType = "same"
	RedisPreferences PreferencesType = "redis"
)

func (pt PreferencesType) IsValid() bool {
	return pt == SamePreferences || pt == RedisPreferences
}
