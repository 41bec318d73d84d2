// Package store persists scan results.
package store

import (
	"fmt"

	"github.com/praetorian-inc/regext/pkg/types"
)

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Store provides persistence for scan results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddBlob stores a blob record.
	AddBlob(id types.BlobID, size int64) error

	// BlobExists checks if a blob has already been scanned.
	BlobExists(id types.BlobID) (bool, error)

	// AddRule stores the rule findings refer to.
	AddRule(r *types.Rule) error

	// GetRules retrieves all stored rules, sorted by ID.
	GetRules() ([]*types.Rule, error)

	// AddFinding stores a finding (deduplicated by ID).
	AddFinding(f *types.Finding) error

	// GetFindings retrieves all findings ordered by path, offset and rule.
	GetFindings() ([]*types.Finding, error)

	// GetFindingsByRule retrieves the findings of one rule, in the same order.
	GetFindingsByRule(ruleID string) ([]*types.Finding, error)

	// FindingExists checks if a finding with this ID exists.
	FindingExists(id string) (bool, error)

	// Close releases the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for the in-memory store (useful for testing).
	Path string
}

// New creates a Store: the in-memory store for ":memory:", SQLite otherwise.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
