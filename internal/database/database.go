// Package database provides SQLite-backed storage for canonical clinical
// study records and the condition, sponsor, intervention and keyword
// entities they link to.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nishad/ctrake/internal/errors"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
	path string
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// Initialize creates and configures the database connection
func Initialize(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_sync=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 20000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{
		DB:   db,
		path: path,
	}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS phase (
		phase_id INTEGER PRIMARY KEY AUTOINCREMENT,
		phase TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS study (
		study_id INTEGER PRIMARY KEY AUTOINCREMENT,
		nct_id TEXT NOT NULL UNIQUE,
		phase_id INTEGER REFERENCES phase(phase_id),
		org_study_id TEXT,
		brief_title TEXT,
		official_title TEXT,
		acronym TEXT,
		source TEXT,
		rank TEXT,
		brief_summary TEXT,
		detailed_description TEXT,
		overall_status TEXT,
		last_known_status TEXT,
		why_stopped TEXT,
		study_type TEXT,
		has_expanded_access TEXT,
		target_duration TEXT,
		biospec_retention TEXT,
		biospec_description TEXT,
		start_date DATE,
		completion_date DATE,
		verification_date DATE,
		primary_completion_date DATE,
		study_first_submitted DATE,
		study_first_submitted_qc DATE,
		study_first_posted DATE,
		results_first_submitted DATE,
		results_first_submitted_qc DATE,
		results_first_posted DATE,
		disposition_first_submitted DATE,
		disposition_first_submitted_qc DATE,
		disposition_first_posted DATE,
		last_update_submitted DATE,
		last_update_submitted_qc DATE,
		last_update_posted DATE,
		number_of_arms INTEGER,
		number_of_groups INTEGER,
		enrollment INTEGER,
		enrollment_type TEXT,
		keywords TEXT,
		text TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS condition (
		condition_id INTEGER PRIMARY KEY AUTOINCREMENT,
		condition TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS sponsor (
		sponsor_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sponsor TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS intervention (
		intervention_id INTEGER PRIMARY KEY AUTOINCREMENT,
		intervention TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS keyword (
		keyword_id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS study_to_condition (
		study_to_condition_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		condition_id INTEGER NOT NULL REFERENCES condition(condition_id),
		UNIQUE (study_id, condition_id)
	);

	CREATE TABLE IF NOT EXISTS study_to_sponsor (
		study_to_sponsor_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		sponsor_id INTEGER NOT NULL REFERENCES sponsor(sponsor_id),
		UNIQUE (study_id, sponsor_id)
	);

	CREATE TABLE IF NOT EXISTS study_to_intervention (
		study_to_intervention_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		intervention_id INTEGER NOT NULL REFERENCES intervention(intervention_id),
		UNIQUE (study_id, intervention_id)
	);

	CREATE TABLE IF NOT EXISTS study_to_keyword (
		study_to_keyword_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		keyword_id INTEGER NOT NULL REFERENCES keyword(keyword_id),
		UNIQUE (study_id, keyword_id)
	);

	CREATE TABLE IF NOT EXISTS study_doc (
		study_doc_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		doc_id TEXT NOT NULL,
		doc_type TEXT,
		doc_url TEXT,
		doc_comment TEXT,
		UNIQUE (study_id, doc_id)
	);

	CREATE TABLE IF NOT EXISTS study_outcome (
		study_outcome_id INTEGER PRIMARY KEY AUTOINCREMENT,
		study_id INTEGER NOT NULL REFERENCES study(study_id) ON DELETE CASCADE,
		outcome_type TEXT NOT NULL,
		measure TEXT,
		time_frame TEXT,
		description TEXT,
		UNIQUE (study_id, outcome_type, measure, time_frame, description)
	);

	CREATE INDEX IF NOT EXISTS idx_study_phase ON study(phase_id);
	CREATE INDEX IF NOT EXISTS idx_s2c_condition ON study_to_condition(condition_id);
	CREATE INDEX IF NOT EXISTS idx_s2s_sponsor ON study_to_sponsor(sponsor_id);
	CREATE INDEX IF NOT EXISTS idx_s2i_intervention ON study_to_intervention(intervention_id);
	CREATE INDEX IF NOT EXISTS idx_s2k_keyword ON study_to_keyword(keyword_id);
	`

	_, err := db.Exec(schema)
	return err
}

// WithTx runs fn inside one transaction, committing on success and
// rolling back on any error.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	const op = errors.Op("database.WithTx")

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.E(op, errors.KindDatabase, err, "begin transaction")
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return errors.E(op, errors.KindDatabase, err, "commit")
	}
	return nil
}

// CountTable counts rows in a table.
// The table name is validated against the AllowedTables whitelist
// to prevent SQL injection attacks.
func (db *DB) CountTable(ctx context.Context, table string) (int64, error) {
	safeTable, err := SafeTableName(table)
	if err != nil {
		return 0, fmt.Errorf("CountTable: %w", err)
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", safeTable)
	err = db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// DatabaseInfo holds the database file size and live row counts of the
// entity tables.
type DatabaseInfo struct {
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	Studies       int64  `json:"studies"`
	Conditions    int64  `json:"conditions"`
	Sponsors      int64  `json:"sponsors"`
	Interventions int64  `json:"interventions"`
	Keywords      int64  `json:"keywords"`
}

// GetInfo returns database information
func (db *DB) GetInfo(ctx context.Context) (*DatabaseInfo, error) {
	info := &DatabaseInfo{Path: db.path}

	if db.path != "" {
		if stat, err := os.Stat(db.path); err == nil {
			info.Size = stat.Size()
		}
	}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"study", &info.Studies},
		{"condition", &info.Conditions},
		{"sponsor", &info.Sponsors},
		{"intervention", &info.Interventions},
		{"keyword", &info.Keywords},
	}
	for _, c := range counts {
		n, err := db.CountTable(ctx, c.table)
		if err != nil {
			return nil, errors.E(errors.Op("database.GetInfo"), errors.KindDatabase, err)
		}
		*c.dst = n
	}
	return info, nil
}
