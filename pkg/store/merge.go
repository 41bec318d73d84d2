package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	BlobsMerged      int
	RulesMerged      int
	FindingsMerged   int
	SourcesProcessed int
}

// mergeTables lists the copied tables and columns in dependency order.
var mergeTables = []struct {
	name    string
	columns []string
}{
	{"blobs", []string{"id", "size"}},
	{"rules", []string{"id", "name", "pattern", "flags", "structural_id"}},
	{"findings", []string{
		"id", "blob_id", "rule_id", "rule_name", "path", "offset_start", "offset_end",
		"start_line", "start_column", "end_line", "end_column", "text", "groups_json",
	}},
}

// Merge combines multiple result databases into one.
// Deduplication is handled via INSERT OR IGNORE on primary keys.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	// Open/create destination database
	destDB, err := openDB(cfg.DestPath)
	if err != nil {
		return nil, err
	}
	defer destDB.Close()

	// Initialize schema on destination
	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.BlobsMerged += sourceStats.BlobsMerged
		stats.RulesMerged += sourceStats.RulesMerged
		stats.FindingsMerged += sourceStats.FindingsMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	// Opening a missing file would silently create an empty database.
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, err
	}

	sourceDB, err := openDB(sourcePath)
	if err != nil {
		return nil, err
	}
	defer sourceDB.Close()

	// Start transaction for efficiency
	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	counts := make(map[string]int, len(mergeTables))
	for _, table := range mergeTables {
		n, err := mergeTable(tx, sourceDB, table.name, table.columns)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", table.name, err)
		}
		counts[table.name] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &MergeStats{
		BlobsMerged:    counts["blobs"],
		RulesMerged:    counts["rules"],
		FindingsMerged: counts["findings"],
	}, nil
}

// mergeTable copies every row of table from sourceDB, returning how many
// rows were new to the destination.
func mergeTable(tx *sql.Tx, sourceDB *sql.DB, table string, columns []string) (int, error) {
	cols := strings.Join(columns, ", ")
	rows, err := sourceDB.Query(fmt.Sprintf("SELECT %s FROM %s", cols, table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, cols, placeholders))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
