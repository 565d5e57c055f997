package norm

import (
	"database/sql"
	"encoding/json"
	"fmt"

	tt "github.com/gnoverse/canopy/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	unit_id TEXT NOT NULL,
	original_source TEXT NOT NULL,
	transformed_source TEXT NOT NULL,
	passes_applied TEXT NOT NULL,
	diagnostics TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_results_unit_id ON results (unit_id);
`

// ResultsDB is a SQLite sink for unit records; one row per record,
// appended per run.
type ResultsDB struct {
	db *sql.DB
}

// OpenResultsDB opens (creating if needed) the results database.
func OpenResultsDB(path string) (*ResultsDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening results database %s: %w", path, err)
	}
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing results schema: %w", err)
	}
	return &ResultsDB{db: db}, nil
}

// Append inserts one row per result in a single transaction.
func (r *ResultsDB) Append(results []tt.UnitResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO results
		(unit_id, original_source, transformed_source, passes_applied, diagnostics, status)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, result := range results {
		passes, err := json.Marshal(result.PassesApplied)
		if err != nil {
			return err
		}
		diags, err := json.Marshal(result.Diagnostics)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(
			result.ID,
			result.OriginalSource,
			result.TransformedSource,
			string(passes),
			string(diags),
			string(result.Status),
		); err != nil {
			return fmt.Errorf("error inserting result for %s: %w", result.ID, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying handle.
func (r *ResultsDB) Close() error { return r.db.Close() }
