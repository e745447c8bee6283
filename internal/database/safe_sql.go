package database

import "fmt"

// AllowedTables is the whitelist of valid table names in the ctrake database.
// Any table name not in this list will be rejected to prevent SQL injection.
var AllowedTables = map[string]bool{
	// Core entity tables
	"study":        true,
	"phase":        true,
	"condition":    true,
	"sponsor":      true,
	"intervention": true,
	"keyword":      true,

	// Junction tables
	"study_to_condition":    true,
	"study_to_sponsor":      true,
	"study_to_intervention": true,
	"study_to_keyword":      true,

	// Per-study detail tables
	"study_doc":     true,
	"study_outcome": true,
}

// AllowedColumns is the whitelist of valid column names.
// This is used for dynamic column selection in queries.
var AllowedColumns = map[string]bool{
	// Identifier columns
	"study_id":        true,
	"nct_id":          true,
	"phase_id":        true,
	"condition_id":    true,
	"sponsor_id":      true,
	"intervention_id": true,
	"keyword_id":      true,

	// Name columns
	"phase":        true,
	"condition":    true,
	"sponsor":      true,
	"intervention": true,
	"keyword":      true,

	// Descriptive columns
	"brief_title":          true,
	"official_title":       true,
	"detailed_description": true,
	"overall_status":       true,
	"study_type":           true,

	// Timestamp columns
	"start_date":         true,
	"completion_date":    true,
	"last_update_posted": true,
	"updated_at":         true,
}

// ErrInvalidTableName is returned when a table name is not in the whitelist.
var ErrInvalidTableName = fmt.Errorf("invalid table name")

// ErrInvalidColumnName is returned when a column name is not in the whitelist.
var ErrInvalidColumnName = fmt.Errorf("invalid column name")

// ValidateTableName checks if a table name is in the allowed list.
// Returns nil if valid, ErrInvalidTableName otherwise.
func ValidateTableName(table string) error {
	if !AllowedTables[table] {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}

// ValidateColumnName checks if a column name is in the allowed list.
// Returns nil if valid, ErrInvalidColumnName otherwise.
func ValidateColumnName(column string) error {
	if !AllowedColumns[column] {
		return fmt.Errorf("%w: %q", ErrInvalidColumnName, column)
	}
	return nil
}

// SafeTableName returns the table name if valid, otherwise returns an error.
// Use this when you need the table name for SQL construction.
func SafeTableName(table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", err
	}
	return table, nil
}

// SafeColumnName returns the column name if valid, otherwise returns an error.
// Use this when you need the column name for SQL construction.
func SafeColumnName(column string) (string, error) {
	if err := ValidateColumnName(column); err != nil {
		return "", err
	}
	return column, nil
}
