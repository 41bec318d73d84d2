package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/regext/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu       sync.RWMutex
	blobs    map[types.BlobID]int64
	rules    map[string]*types.Rule
	findings map[string]*types.Finding // keyed by finding ID
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		blobs:    make(map[types.BlobID]int64),
		rules:    make(map[string]*types.Rule),
		findings: make(map[string]*types.Finding),
	}
}

// AddBlob stores a blob record.
func (m *MemoryStore) AddBlob(id types.BlobID, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[id]; !exists {
		m.blobs[id] = size
	}
	return nil
}

// BlobExists checks if a blob has already been scanned.
func (m *MemoryStore) BlobExists(id types.BlobID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.blobs[id]
	return exists, nil
}

// AddRule stores a rule. The first rule stored under an ID wins.
func (m *MemoryStore) AddRule(r *types.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rules[r.ID]; !exists {
		m.rules[r.ID] = r
	}
	return nil
}

// GetRules retrieves all stored rules, sorted by ID.
func (m *MemoryStore) GetRules() ([]*types.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// AddFinding stores a finding (deduplicated).
func (m *MemoryStore) AddFinding(f *types.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.findings[f.ID]; exists {
		// Deduplicate - already exists
		return nil
	}

	m.findings[f.ID] = f
	return nil
}

// GetFindings retrieves all findings (for reporting).
func (m *MemoryStore) GetFindings() ([]*types.Finding, error) {
	return m.collect(func(*types.Finding) bool { return true }), nil
}

// GetFindingsByRule retrieves the findings of one rule.
func (m *MemoryStore) GetFindingsByRule(ruleID string) ([]*types.Finding, error) {
	return m.collect(func(f *types.Finding) bool { return f.RuleID == ruleID }), nil
}

func (m *MemoryStore) collect(keep func(*types.Finding) bool) []*types.Finding {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Finding, 0, len(m.findings))
	for _, f := range m.findings {
		if keep(f) {
			result = append(result, f)
		}
	}
	sortFindings(result)
	return result
}

// FindingExists checks if a finding with this ID exists.
func (m *MemoryStore) FindingExists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.findings[id]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// sortFindings orders findings the way the SQLite store returns them.
func sortFindings(findings []*types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Location.Offset.Start != b.Location.Offset.Start {
			return a.Location.Offset.Start < b.Location.Offset.Start
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.ID < b.ID
	})
}
