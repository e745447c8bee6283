package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nishad/ctrake/internal/errors"
)

const studyColumns = `
	s.study_id, s.nct_id, COALESCE(s.phase_id, 0), COALESCE(p.phase, ''),
	COALESCE(s.org_study_id, ''), COALESCE(s.brief_title, ''), COALESCE(s.official_title, ''),
	COALESCE(s.acronym, ''), COALESCE(s.source, ''), COALESCE(s.rank, ''),
	COALESCE(s.brief_summary, ''), COALESCE(s.detailed_description, ''),
	COALESCE(s.overall_status, ''), COALESCE(s.last_known_status, ''),
	COALESCE(s.why_stopped, ''), COALESCE(s.study_type, ''),
	COALESCE(s.has_expanded_access, ''), COALESCE(s.target_duration, ''),
	COALESCE(s.biospec_retention, ''), COALESCE(s.biospec_description, ''),
	COALESCE(s.start_date, ''), COALESCE(s.completion_date, ''),
	COALESCE(s.verification_date, ''), COALESCE(s.primary_completion_date, ''),
	COALESCE(s.study_first_submitted, ''), COALESCE(s.study_first_submitted_qc, ''),
	COALESCE(s.study_first_posted, ''), COALESCE(s.results_first_submitted, ''),
	COALESCE(s.results_first_submitted_qc, ''), COALESCE(s.results_first_posted, ''),
	COALESCE(s.disposition_first_submitted, ''), COALESCE(s.disposition_first_submitted_qc, ''),
	COALESCE(s.disposition_first_posted, ''), COALESCE(s.last_update_submitted, ''),
	COALESCE(s.last_update_submitted_qc, ''), COALESCE(s.last_update_posted, ''),
	s.number_of_arms, s.number_of_groups, s.enrollment, COALESCE(s.enrollment_type, ''),
	COALESCE(s.keywords, ''), COALESCE(s.text, '')`

func scanStudy(row interface{ Scan(...interface{}) error }) (*Study, error) {
	s := &Study{}
	var arms, groups, enrollment sql.NullInt64
	err := row.Scan(
		&s.StudyID, &s.NCTID, &s.PhaseID, &s.Phase,
		&s.OrgStudyID, &s.BriefTitle, &s.OfficialTitle,
		&s.Acronym, &s.Source, &s.Rank,
		&s.BriefSummary, &s.DetailedDescription,
		&s.OverallStatus, &s.LastKnownStatus,
		&s.WhyStopped, &s.StudyType,
		&s.HasExpandedAccess, &s.TargetDuration,
		&s.BiospecRetention, &s.BiospecDescription,
		&s.StartDate, &s.CompletionDate,
		&s.VerificationDate, &s.PrimaryCompletionDate,
		&s.StudyFirstSubmitted, &s.StudyFirstSubmittedQC,
		&s.StudyFirstPosted, &s.ResultsFirstSubmitted,
		&s.ResultsFirstSubmittedQC, &s.ResultsFirstPosted,
		&s.DispositionFirstSubmitted, &s.DispositionFirstSubmittedQC,
		&s.DispositionFirstPosted, &s.LastUpdateSubmitted,
		&s.LastUpdateSubmittedQC, &s.LastUpdatePosted,
		&arms, &groups, &enrollment, &s.EnrollmentType,
		&s.Keywords, &s.Text,
	)
	if err != nil {
		return nil, err
	}
	s.NumberOfArms = nullInt(arms)
	s.NumberOfGroups = nullInt(groups)
	s.Enrollment = nullInt(enrollment)
	return s, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// GetStudy retrieves a study by its registry identifier.
// Returns a KindNotFound error if the study is not found.
func (db *DB) GetStudy(ctx context.Context, nctID string) (*Study, error) {
	const op = errors.Op("database.GetStudy")

	row := db.QueryRowContext(ctx, `
		SELECT `+studyColumns+`
		FROM study s LEFT JOIN phase p ON p.phase_id = s.phase_id
		WHERE s.nct_id = ?`, nctID)

	s, err := scanStudy(row)
	if err == sql.ErrNoRows {
		return nil, errors.E(op, errors.KindNotFound, "study not found: "+nctID)
	}
	if err != nil {
		return nil, errors.E(op, errors.KindDatabase, err)
	}
	return s, nil
}

// CountStudies returns the number of loaded studies.
func (db *DB) CountStudies(ctx context.Context) (int64, error) {
	return db.CountTable(ctx, "study")
}

// ListStudies returns studies ordered by registry identifier.
func (db *DB) ListStudies(ctx context.Context, limit, offset int) ([]StudySummary, error) {
	return summaries(ctx, db, `
		SELECT s.study_id, s.nct_id, COALESCE(s.brief_title, ''), COALESCE(s.detailed_description, '')
		FROM study s
		ORDER BY s.nct_id
		LIMIT ? OFFSET ?`, limit, offset)
}

// FilterStudies returns the studies matching every criterion in f. All
// values are bound as parameters. Keyword matches are staged in a
// connection-local temp table and joined, so their number is not bounded
// by SQLite's variable limit.
func (db *DB) FilterStudies(ctx context.Context, f Filter) ([]StudySummary, error) {
	const op = errors.Op("database.FilterStudies")

	if f.Restrict && len(f.NCTIDs) == 0 {
		return []StudySummary{}, nil
	}

	var (
		where []string
		args  []interface{}
	)
	if len(f.ConditionIDs) > 0 {
		where = append(where, `s.study_id IN (
			SELECT study_id FROM study_to_condition WHERE condition_id IN (`+placeholders(len(f.ConditionIDs))+`))`)
		for _, id := range f.ConditionIDs {
			args = append(args, id)
		}
	}
	if len(f.SponsorIDs) > 0 {
		where = append(where, `s.study_id IN (
			SELECT study_id FROM study_to_sponsor WHERE sponsor_id IN (`+placeholders(len(f.SponsorIDs))+`))`)
		for _, id := range f.SponsorIDs {
			args = append(args, id)
		}
	}

	query := `
		SELECT s.study_id, s.nct_id, COALESCE(s.brief_title, ''), COALESCE(s.detailed_description, '')
		FROM study s`
	if f.Restrict {
		query += "\n\t\tJOIN temp.matched_study m ON m.nct_id = s.nct_id"
	}
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, "\n\t\tAND ")
	}
	query += "\n\t\tORDER BY s.nct_id"

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query += "\n\t\tLIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	if !f.Restrict {
		return summaries(ctx, db, query, args...)
	}

	// The temp table lives on the transaction's connection and is discarded
	// with the rollback.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindDatabase, err, "begin transaction")
	}
	defer func() { errors.IgnoreError(tx.Rollback(), "read-only filter transaction") }()

	if err := stageMatches(ctx, tx, f.NCTIDs); err != nil {
		return nil, errors.E(op, errors.KindDatabase, err)
	}
	return summaries(ctx, tx, query, args...)
}

func stageMatches(ctx context.Context, tx *sql.Tx, ids []string) error {
	if _, err := tx.ExecContext(ctx,
		`CREATE TEMP TABLE IF NOT EXISTS matched_study (nct_id TEXT PRIMARY KEY)`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM temp.matched_study`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO temp.matched_study (nct_id) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func summaries(ctx context.Context, q queryer, query string, args ...interface{}) ([]StudySummary, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(errors.Op("database.summaries"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudySummary{}
	for rows.Next() {
		var s StudySummary
		if err := rows.Scan(&s.StudyID, &s.NCTID, &s.Title, &s.DetailedDescription); err != nil {
			return nil, errors.E(errors.Op("database.summaries"), errors.KindDatabase, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StudySponsors returns the sponsors linked to a study, in link order.
func (db *DB) StudySponsors(ctx context.Context, studyID int64) ([]StudySponsor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.sponsor_id, p.sponsor
		FROM study_to_sponsor s2p JOIN sponsor p ON p.sponsor_id = s2p.sponsor_id
		WHERE s2p.study_id = ?
		ORDER BY s2p.study_to_sponsor_id`, studyID)
	if err != nil {
		return nil, errors.E(errors.Op("database.StudySponsors"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudySponsor{}
	for rows.Next() {
		var s StudySponsor
		if err := rows.Scan(&s.SponsorID, &s.SponsorName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StudyConditions returns the conditions linked to a study.
func (db *DB) StudyConditions(ctx context.Context, studyID int64) ([]StudyCondition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.condition_id, c.condition
		FROM study_to_condition s2c JOIN condition c ON c.condition_id = s2c.condition_id
		WHERE s2c.study_id = ?
		ORDER BY s2c.study_to_condition_id`, studyID)
	if err != nil {
		return nil, errors.E(errors.Op("database.StudyConditions"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudyCondition{}
	for rows.Next() {
		var c StudyCondition
		if err := rows.Scan(&c.ConditionID, &c.Condition); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// StudyInterventions returns the interventions linked to a study.
func (db *DB) StudyInterventions(ctx context.Context, studyID int64) ([]StudyIntervention, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT i.intervention_id, i.intervention
		FROM study_to_intervention s2i JOIN intervention i ON i.intervention_id = s2i.intervention_id
		WHERE s2i.study_id = ?
		ORDER BY s2i.study_to_intervention_id`, studyID)
	if err != nil {
		return nil, errors.E(errors.Op("database.StudyInterventions"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudyIntervention{}
	for rows.Next() {
		var i StudyIntervention
		if err := rows.Scan(&i.InterventionID, &i.Intervention); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// StudyDocs returns the documents attached to a study.
func (db *DB) StudyDocs(ctx context.Context, studyID int64) ([]StudyDoc, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT doc_id, COALESCE(doc_type, ''), COALESCE(doc_url, ''), COALESCE(doc_comment, '')
		FROM study_doc WHERE study_id = ? ORDER BY doc_id`, studyID)
	if err != nil {
		return nil, errors.E(errors.Op("database.StudyDocs"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudyDoc{}
	for rows.Next() {
		var d StudyDoc
		if err := rows.Scan(&d.DocID, &d.DocType, &d.DocURL, &d.DocComment); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// StudyOutcomes returns a study's outcome measures, primary first.
func (db *DB) StudyOutcomes(ctx context.Context, studyID int64) ([]StudyOutcome, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT outcome_type, COALESCE(measure, ''), COALESCE(time_frame, ''), COALESCE(description, '')
		FROM study_outcome WHERE study_id = ?
		ORDER BY CASE outcome_type WHEN 'primary' THEN 0 WHEN 'secondary' THEN 1 ELSE 2 END,
			study_outcome_id`, studyID)
	if err != nil {
		return nil, errors.E(errors.Op("database.StudyOutcomes"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []StudyOutcome{}
	for rows.Next() {
		var o StudyOutcome
		if err := rows.Scan(&o.OutcomeType, &o.Measure, &o.TimeFrame, &o.Description); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Conditions lists conditions with their study counts, ordered by name.
// A non-empty name keeps only conditions containing it.
func (db *DB) Conditions(ctx context.Context, name string) ([]ConditionCount, error) {
	query := `
		SELECT c.condition_id, c.condition, COUNT(s2c.study_id) AS num_studies
		FROM condition c JOIN study_to_condition s2c ON s2c.condition_id = c.condition_id`
	var args []interface{}
	if name != "" {
		query += "\n\t\tWHERE c.condition LIKE ?"
		args = append(args, "%"+name+"%")
	}
	query += "\n\t\tGROUP BY c.condition_id, c.condition\n\t\tORDER BY c.condition"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(errors.Op("database.Conditions"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []ConditionCount{}
	for rows.Next() {
		var c ConditionCount
		if err := rows.Scan(&c.ConditionID, &c.Condition, &c.NumStudies); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sponsors lists sponsors with their study counts, ordered by name.
func (db *DB) Sponsors(ctx context.Context) ([]SponsorCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.sponsor_id, p.sponsor, COUNT(s2p.study_id) AS num_studies
		FROM sponsor p JOIN study_to_sponsor s2p ON s2p.sponsor_id = p.sponsor_id
		GROUP BY p.sponsor_id, p.sponsor
		ORDER BY p.sponsor`)
	if err != nil {
		return nil, errors.E(errors.Op("database.Sponsors"), errors.KindDatabase, err)
	}
	defer rows.Close()

	out := []SponsorCount{}
	for rows.Next() {
		var s SponsorCount
		if err := rows.Scan(&s.SponsorID, &s.Sponsor, &s.NumStudies); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
