package database

// Study is one row of the study table. Dates are YYYY-MM-DD strings,
// empty when the record has none.
type Study struct {
	// Primary key
	StudyID int64  `json:"study_id"`
	NCTID   string `json:"nct_id"`

	PhaseID int64  `json:"-"`
	Phase   string `json:"phase"`

	// Descriptive fields
	OrgStudyID          string `json:"org_study_id"`
	BriefTitle          string `json:"brief_title"`
	OfficialTitle       string `json:"official_title"`
	Acronym             string `json:"acronym"`
	Source              string `json:"source"`
	Rank                string `json:"rank"`
	BriefSummary        string `json:"brief_summary"`
	DetailedDescription string `json:"detailed_description"`
	OverallStatus       string `json:"overall_status"`
	LastKnownStatus     string `json:"last_known_status"`
	WhyStopped          string `json:"why_stopped"`
	StudyType           string `json:"study_type"`
	HasExpandedAccess   string `json:"has_expanded_access"`
	TargetDuration      string `json:"target_duration"`
	BiospecRetention    string `json:"biospec_retention"`
	BiospecDescription  string `json:"biospec_description"`

	// Dates
	StartDate                   string `json:"start_date"`
	CompletionDate              string `json:"completion_date"`
	VerificationDate            string `json:"verification_date"`
	PrimaryCompletionDate       string `json:"primary_completion_date"`
	StudyFirstSubmitted         string `json:"study_first_submitted"`
	StudyFirstSubmittedQC       string `json:"study_first_submitted_qc"`
	StudyFirstPosted            string `json:"study_first_posted"`
	ResultsFirstSubmitted       string `json:"results_first_submitted"`
	ResultsFirstSubmittedQC     string `json:"results_first_submitted_qc"`
	ResultsFirstPosted          string `json:"results_first_posted"`
	DispositionFirstSubmitted   string `json:"disposition_first_submitted"`
	DispositionFirstSubmittedQC string `json:"disposition_first_submitted_qc"`
	DispositionFirstPosted      string `json:"disposition_first_posted"`
	LastUpdateSubmitted         string `json:"last_update_submitted"`
	LastUpdateSubmittedQC       string `json:"last_update_submitted_qc"`
	LastUpdatePosted            string `json:"last_update_posted"`

	// Counts, nil when unknown
	NumberOfArms   *int64 `json:"number_of_arms,omitempty"`
	NumberOfGroups *int64 `json:"number_of_groups,omitempty"`
	Enrollment     *int64 `json:"enrollment,omitempty"`
	EnrollmentType string `json:"enrollment_type"`

	// Keywords is the comma separated keyword list; Text the token blob.
	Keywords string `json:"keywords"`
	Text     string `json:"-"`
}

// StudySummary is the short form returned by searches and listings.
type StudySummary struct {
	StudyID             int64  `json:"study_id"`
	NCTID               string `json:"nct_id"`
	Title               string `json:"title"`
	DetailedDescription string `json:"detailed_description"`
}

// StudySponsor links a study to one sponsor.
type StudySponsor struct {
	SponsorID   int64  `json:"sponsor_id"`
	SponsorName string `json:"sponsor_name"`
}

// StudyCondition links a study to one condition.
type StudyCondition struct {
	ConditionID int64  `json:"condition_id"`
	Condition   string `json:"condition"`
}

// StudyIntervention links a study to one intervention.
type StudyIntervention struct {
	InterventionID int64  `json:"intervention_id"`
	Intervention   string `json:"intervention"`
}

// StudyDoc is a document attached to a study, unique per (study, doc_id).
type StudyDoc struct {
	DocID      string `json:"doc_id"`
	DocType    string `json:"doc_type"`
	DocURL     string `json:"doc_url"`
	DocComment string `json:"doc_comment"`
}

// StudyOutcome is an outcome measure tagged primary, secondary or other.
type StudyOutcome struct {
	OutcomeType string `json:"outcome_type"`
	Measure     string `json:"measure"`
	TimeFrame   string `json:"time_frame"`
	Description string `json:"description"`
}

// ConditionCount is a condition with the number of studies naming it.
type ConditionCount struct {
	ConditionID int64  `json:"condition_id"`
	Condition   string `json:"condition"`
	NumStudies  int64  `json:"num_studies"`
}

// SponsorCount is a sponsor with the number of studies it backs.
type SponsorCount struct {
	SponsorID  int64  `json:"sponsor_id"`
	Sponsor    string `json:"sponsor"`
	NumStudies int64  `json:"num_studies"`
}

// Filter narrows FilterStudies. Empty id lists place no restriction;
// NCTIDs restricts only when Restrict is set, so an empty keyword match
// can still exclude everything.
type Filter struct {
	NCTIDs       []string
	Restrict     bool
	ConditionIDs []int64
	SponsorIDs   []int64
	Limit        int
	Offset       int
}
