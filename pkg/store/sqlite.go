package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/regext/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openDB opens path with a single connection: SQLite serialises writers,
// and an in-memory database exists per connection.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// AddBlob stores a blob record.
func (s *SQLiteStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO blobs (id, size) VALUES (?, ?)", id, size)
	if err != nil {
		return fmt.Errorf("inserting blob: %w", err)
	}
	return nil
}

// BlobExists checks if a blob has already been scanned.
func (s *SQLiteStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM blobs WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blob existence: %w", err)
	}
	return count > 0, nil
}

// AddRule stores a rule. The first rule stored under an ID wins.
func (s *SQLiteStore) AddRule(r *types.Rule) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO rules (id, name, pattern, flags, structural_id)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Pattern, r.Flags, r.StructuralID)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// GetRules retrieves all stored rules, sorted by ID.
func (s *SQLiteStore) GetRules() ([]*types.Rule, error) {
	rows, err := s.db.Query("SELECT id, name, pattern, flags, structural_id FROM rules ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	rules := []*types.Rule{}
	for rows.Next() {
		var r types.Rule
		if err := rows.Scan(&r.ID, &r.Name, &r.Pattern, &r.Flags, &r.StructuralID); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rules = append(rules, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// AddFinding stores a finding (deduplicated).
func (s *SQLiteStore) AddFinding(f *types.Finding) error {
	// Serialize groups to JSON
	groupsJSON, err := json.Marshal(f.Groups)
	if err != nil {
		return fmt.Errorf("marshaling groups: %w", err)
	}

	loc := f.Location
	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO findings
		(id, blob_id, rule_id, rule_name, path, offset_start, offset_end,
		 start_line, start_column, end_line, end_column, text, groups_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID,
		f.BlobID,
		f.RuleID,
		f.RuleName,
		f.Path,
		loc.Offset.Start,
		loc.Offset.End,
		loc.Source.Start.Line,
		loc.Source.Start.Column,
		loc.Source.End.Line,
		loc.Source.End.Column,
		f.Text,
		string(groupsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting finding: %w", err)
	}

	return nil
}

const selectFindings = `
	SELECT id, blob_id, rule_id, rule_name, path, offset_start, offset_end,
	       start_line, start_column, end_line, end_column, text, groups_json
	FROM findings
`

const orderFindings = ` ORDER BY path, offset_start, rule_id, id`

// GetFindings retrieves all findings (for reporting).
func (s *SQLiteStore) GetFindings() ([]*types.Finding, error) {
	return s.queryFindings(selectFindings + orderFindings)
}

// GetFindingsByRule retrieves the findings of one rule.
func (s *SQLiteStore) GetFindingsByRule(ruleID string) ([]*types.Finding, error) {
	return s.queryFindings(selectFindings+" WHERE rule_id = ?"+orderFindings, ruleID)
}

func (s *SQLiteStore) queryFindings(query string, args ...any) ([]*types.Finding, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	findings := []*types.Finding{}
	for rows.Next() {
		var f types.Finding
		var groupsJSON sql.NullString
		loc := &f.Location

		err := rows.Scan(
			&f.ID,
			&f.BlobID,
			&f.RuleID,
			&f.RuleName,
			&f.Path,
			&loc.Offset.Start,
			&loc.Offset.End,
			&loc.Source.Start.Line,
			&loc.Source.Start.Column,
			&loc.Source.End.Line,
			&loc.Source.End.Column,
			&f.Text,
			&groupsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}

		// Unmarshal groups
		if groupsJSON.Valid && groupsJSON.String != "" {
			if err := json.Unmarshal([]byte(groupsJSON.String), &f.Groups); err != nil {
				return nil, fmt.Errorf("unmarshaling groups: %w", err)
			}
		}

		findings = append(findings, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}

	return findings, nil
}

// FindingExists checks if a finding with this ID exists.
func (s *SQLiteStore) FindingExists(id string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM findings WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking finding existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
