package database

import (
	"database/sql"
	"fmt"

	"github.com/nishad/ctrake/internal/errors"
)

// Tx is a write transaction opened by DB.WithTx.
type Tx struct {
	tx *sql.Tx
}

// entity describes a lookup table holding one unique name per row.
type entity struct {
	table  string
	id     string
	column string
}

var (
	phaseEntity        = entity{"phase", "phase_id", "phase"}
	conditionEntity    = entity{"condition", "condition_id", "condition"}
	sponsorEntity      = entity{"sponsor", "sponsor_id", "sponsor"}
	interventionEntity = entity{"intervention", "intervention_id", "intervention"}
	keywordEntity      = entity{"keyword", "keyword_id", "keyword"}
)

// getOrCreate returns the id of the row named value, inserting it first
// when missing.
func (t *Tx) getOrCreate(e entity, value string) (int64, error) {
	table, err := SafeTableName(e.table)
	if err != nil {
		return 0, err
	}

	var id int64
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", e.id, table, e.column)
	err = t.tx.QueryRow(query, value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, errors.E(errors.Op("database.getOrCreate"), errors.KindDatabase, err, e.table)
	}

	res, err := t.tx.Exec(fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", table, e.column), value)
	if err != nil {
		return 0, errors.E(errors.Op("database.getOrCreate"), errors.KindDatabase, err, e.table)
	}
	return res.LastInsertId()
}

// GetOrCreatePhase returns the id of the named phase.
func (t *Tx) GetOrCreatePhase(phase string) (int64, error) {
	return t.getOrCreate(phaseEntity, phase)
}

// GetOrCreateCondition returns the id of the named condition.
func (t *Tx) GetOrCreateCondition(condition string) (int64, error) {
	return t.getOrCreate(conditionEntity, condition)
}

// GetOrCreateSponsor returns the id of the named sponsor.
func (t *Tx) GetOrCreateSponsor(sponsor string) (int64, error) {
	return t.getOrCreate(sponsorEntity, sponsor)
}

// GetOrCreateIntervention returns the id of the named intervention.
func (t *Tx) GetOrCreateIntervention(intervention string) (int64, error) {
	return t.getOrCreate(interventionEntity, intervention)
}

// GetOrCreateKeyword returns the id of the keyword.
func (t *Tx) GetOrCreateKeyword(keyword string) (int64, error) {
	return t.getOrCreate(keywordEntity, keyword)
}

// link inserts a junction row unless it already exists.
func (t *Tx) link(junction, column string, studyID, id int64) error {
	table, err := SafeTableName(junction)
	if err != nil {
		return err
	}
	col, err := SafeColumnName(column)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (study_id, %s) VALUES (?, ?)", table, col)
	if _, err := t.tx.Exec(query, studyID, id); err != nil {
		return errors.E(errors.Op("database.link"), errors.KindDatabase, err, junction)
	}
	return nil
}

// LinkCondition records that the study names the condition.
func (t *Tx) LinkCondition(studyID, conditionID int64) error {
	return t.link("study_to_condition", "condition_id", studyID, conditionID)
}

// LinkSponsor records that the sponsor backs the study.
func (t *Tx) LinkSponsor(studyID, sponsorID int64) error {
	return t.link("study_to_sponsor", "sponsor_id", studyID, sponsorID)
}

// LinkIntervention records that the study uses the intervention.
func (t *Tx) LinkIntervention(studyID, interventionID int64) error {
	return t.link("study_to_intervention", "intervention_id", studyID, interventionID)
}

// LinkKeyword records that the study is tagged with the keyword.
func (t *Tx) LinkKeyword(studyID, keywordID int64) error {
	return t.link("study_to_keyword", "keyword_id", studyID, keywordID)
}

// UpsertStudy inserts the study or, when its nct_id already exists,
// replaces every scalar column. It returns the study_id.
func (t *Tx) UpsertStudy(s *Study) (int64, error) {
	const op = errors.Op("database.UpsertStudy")

	_, err := t.tx.Exec(`
		INSERT INTO study (
			nct_id, phase_id, org_study_id, brief_title, official_title,
			acronym, source, rank, brief_summary, detailed_description,
			overall_status, last_known_status, why_stopped, study_type,
			has_expanded_access, target_duration, biospec_retention,
			biospec_description, start_date, completion_date,
			verification_date, primary_completion_date,
			study_first_submitted, study_first_submitted_qc, study_first_posted,
			results_first_submitted, results_first_submitted_qc, results_first_posted,
			disposition_first_submitted, disposition_first_submitted_qc,
			disposition_first_posted, last_update_submitted,
			last_update_submitted_qc, last_update_posted,
			number_of_arms, number_of_groups, enrollment, enrollment_type,
			keywords, text, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(nct_id) DO UPDATE SET
			phase_id = excluded.phase_id,
			org_study_id = excluded.org_study_id,
			brief_title = excluded.brief_title,
			official_title = excluded.official_title,
			acronym = excluded.acronym,
			source = excluded.source,
			rank = excluded.rank,
			brief_summary = excluded.brief_summary,
			detailed_description = excluded.detailed_description,
			overall_status = excluded.overall_status,
			last_known_status = excluded.last_known_status,
			why_stopped = excluded.why_stopped,
			study_type = excluded.study_type,
			has_expanded_access = excluded.has_expanded_access,
			target_duration = excluded.target_duration,
			biospec_retention = excluded.biospec_retention,
			biospec_description = excluded.biospec_description,
			start_date = excluded.start_date,
			completion_date = excluded.completion_date,
			verification_date = excluded.verification_date,
			primary_completion_date = excluded.primary_completion_date,
			study_first_submitted = excluded.study_first_submitted,
			study_first_submitted_qc = excluded.study_first_submitted_qc,
			study_first_posted = excluded.study_first_posted,
			results_first_submitted = excluded.results_first_submitted,
			results_first_submitted_qc = excluded.results_first_submitted_qc,
			results_first_posted = excluded.results_first_posted,
			disposition_first_submitted = excluded.disposition_first_submitted,
			disposition_first_submitted_qc = excluded.disposition_first_submitted_qc,
			disposition_first_posted = excluded.disposition_first_posted,
			last_update_submitted = excluded.last_update_submitted,
			last_update_submitted_qc = excluded.last_update_submitted_qc,
			last_update_posted = excluded.last_update_posted,
			number_of_arms = excluded.number_of_arms,
			number_of_groups = excluded.number_of_groups,
			enrollment = excluded.enrollment,
			enrollment_type = excluded.enrollment_type,
			keywords = excluded.keywords,
			text = excluded.text,
			updated_at = CURRENT_TIMESTAMP
	`,
		s.NCTID, nullID(s.PhaseID), s.OrgStudyID, s.BriefTitle, s.OfficialTitle,
		s.Acronym, s.Source, s.Rank, s.BriefSummary, s.DetailedDescription,
		s.OverallStatus, s.LastKnownStatus, s.WhyStopped, s.StudyType,
		s.HasExpandedAccess, s.TargetDuration, s.BiospecRetention,
		s.BiospecDescription, nullDate(s.StartDate), nullDate(s.CompletionDate),
		nullDate(s.VerificationDate), nullDate(s.PrimaryCompletionDate),
		nullDate(s.StudyFirstSubmitted), nullDate(s.StudyFirstSubmittedQC), nullDate(s.StudyFirstPosted),
		nullDate(s.ResultsFirstSubmitted), nullDate(s.ResultsFirstSubmittedQC), nullDate(s.ResultsFirstPosted),
		nullDate(s.DispositionFirstSubmitted), nullDate(s.DispositionFirstSubmittedQC),
		nullDate(s.DispositionFirstPosted), nullDate(s.LastUpdateSubmitted),
		nullDate(s.LastUpdateSubmittedQC), nullDate(s.LastUpdatePosted),
		s.NumberOfArms, s.NumberOfGroups, s.Enrollment, s.EnrollmentType,
		s.Keywords, s.Text,
	)
	if err != nil {
		return 0, errors.E(op, errors.KindDatabase, err, s.NCTID)
	}

	// LastInsertId is unreliable after the update branch of an upsert.
	var id int64
	if err := t.tx.QueryRow("SELECT study_id FROM study WHERE nct_id = ?", s.NCTID).Scan(&id); err != nil {
		return 0, errors.E(op, errors.KindDatabase, err, s.NCTID)
	}
	return id, nil
}

// UpsertStudyDoc gets or creates the (study, doc_id) row and updates its
// descriptive columns.
func (t *Tx) UpsertStudyDoc(studyID int64, doc StudyDoc) error {
	_, err := t.tx.Exec(`
		INSERT INTO study_doc (study_id, doc_id, doc_type, doc_url, doc_comment)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(study_id, doc_id) DO UPDATE SET
			doc_type = excluded.doc_type,
			doc_url = excluded.doc_url,
			doc_comment = excluded.doc_comment
	`, studyID, doc.DocID, doc.DocType, doc.DocURL, doc.DocComment)
	if err != nil {
		return errors.E(errors.Op("database.UpsertStudyDoc"), errors.KindDatabase, err, doc.DocID)
	}
	return nil
}

// AddOutcome gets or creates an outcome row identified by all its columns.
func (t *Tx) AddOutcome(studyID int64, o StudyOutcome) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO study_outcome (study_id, outcome_type, measure, time_frame, description)
		VALUES (?, ?, ?, ?, ?)
	`, studyID, o.OutcomeType, o.Measure, o.TimeFrame, o.Description)
	if err != nil {
		return errors.E(errors.Op("database.AddOutcome"), errors.KindDatabase, err, o.OutcomeType)
	}
	return nil
}

func nullDate(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
