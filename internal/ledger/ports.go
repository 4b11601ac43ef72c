// Package ledger defines the ports to the external transaction store and
// the seed file format shared by its adapters.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"payoff/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionReader is all the payoff engine needs from the ledger.
	TransactionReader interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	// TransactionWriter is used by seeding and tests, never by the engine.
	TransactionWriter interface {
		PutTransactions(ctx context.Context, userID string, txs []core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}
)

const seedExt = ".json"

// ReadSeedFile decodes a JSON array of transactions and validates each one.
func ReadSeedFile(path string) ([]core.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", filepath.Base(path), err)
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s entry %d: %w", filepath.Base(path), i, err)
		}
	}
	return txs, nil
}

// ReadSeedDir reads every <user>.json in dir, keyed by user id.
func ReadSeedDir(dir string) (map[string][]core.Transaction, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read seed dir: %w", err)
	}
	out := make(map[string][]core.Transaction)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), seedExt) {
			continue
		}
		txs, err := ReadSeedFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(e.Name(), seedExt)] = txs
	}
	return out, nil
}
