// Package study defines the canonical clinical study record and the
// restructurer that assembles it from a decoded registry document.
package study

import "github.com/nishad/ctrake/internal/normalize"

// Study is the canonical record written to the JSON artifact and consumed
// by the loader. Descriptive strings are always present (possibly empty),
// collections are never nil, and optional dates, counts and sub-records
// are omitted when absent.
type Study struct {
	NCTID         string `json:"nct_id"`
	OrgStudyID    string `json:"org_study_id"`
	BriefTitle    string `json:"brief_title"`
	OfficialTitle string `json:"official_title"`
	Acronym       string `json:"acronym"`
	Source        string `json:"source"`
	Rank          string `json:"rank"`

	BriefSummary        string `json:"brief_summary"`
	DetailedDescription string `json:"detailed_description"`

	OverallStatus     string `json:"overall_status"`
	LastKnownStatus   string `json:"last_known_status"`
	WhyStopped        string `json:"why_stopped"`
	Phase             string `json:"phase"`
	StudyType         string `json:"study_type"`
	HasExpandedAccess string `json:"has_expanded_access"`
	TargetDuration    string `json:"target_duration"`

	BiospecRetention   string `json:"biospec_retention"`
	BiospecDescription string `json:"biospec_description"`

	StartDate             *string `json:"start_date,omitempty"`
	CompletionDate        *string `json:"completion_date,omitempty"`
	VerificationDate      *string `json:"verification_date,omitempty"`
	PrimaryCompletionDate *string `json:"primary_completion_date,omitempty"`

	StudyFirstSubmitted   *string `json:"study_first_submitted,omitempty"`
	StudyFirstSubmittedQC *string `json:"study_first_submitted_qc,omitempty"`
	StudyFirstPosted      *string `json:"study_first_posted,omitempty"`

	ResultsFirstSubmitted   *string `json:"results_first_submitted,omitempty"`
	ResultsFirstSubmittedQC *string `json:"results_first_submitted_qc,omitempty"`
	ResultsFirstPosted      *string `json:"results_first_posted,omitempty"`

	DispositionFirstSubmitted   *string `json:"disposition_first_submitted,omitempty"`
	DispositionFirstSubmittedQC *string `json:"disposition_first_submitted_qc,omitempty"`
	DispositionFirstPosted      *string `json:"disposition_first_posted,omitempty"`

	LastUpdateSubmitted   *string `json:"last_update_submitted,omitempty"`
	LastUpdateSubmittedQC *string `json:"last_update_submitted_qc,omitempty"`
	LastUpdatePosted      *string `json:"last_update_posted,omitempty"`

	NumberOfArms   *int64 `json:"number_of_arms,omitempty"`
	NumberOfGroups *int64 `json:"number_of_groups,omitempty"`

	Eligibility          *Eligibility   `json:"eligibility,omitempty"`
	Enrollment           *Enrollment    `json:"enrollment,omitempty"`
	OversightInfo        *OversightInfo `json:"oversight_info,omitempty"`
	StudyDesign          *StudyDesign   `json:"study_design,omitempty"`
	OverallContact       *Contact       `json:"overall_contact,omitempty"`
	OverallContactBackup *Contact       `json:"overall_contact_backup,omitempty"`

	Conditions         []string           `json:"conditions"`
	Keywords           []string           `json:"keywords"`
	Sponsors           []string           `json:"sponsors"`
	PrimaryOutcomes    []Outcome          `json:"primary_outcomes"`
	SecondaryOutcomes  []Outcome          `json:"secondary_outcomes"`
	OtherOutcomes      []Outcome          `json:"other_outcomes"`
	ArmGroups          []ArmGroup         `json:"arm_groups"`
	Interventions      []Intervention     `json:"interventions"`
	OverallOfficial    []Investigator     `json:"overall_official"`
	References         []Reference        `json:"references"`
	ConditionBrowse    []string           `json:"condition_browse"`
	InterventionBrowse []string           `json:"intervention_browse"`
	StudyDocs          []StudyDoc         `json:"study_docs"`
	ProvidedDocuments  []ProvidedDocument `json:"provided_documents"`
	PendingResults     []PendingResult    `json:"pending_results"`

	// Text is the space separated keyword token set. Its order carries no
	// meaning.
	Text string `json:"text"`
}

// Enrollment is the participant count with its actual/anticipated tag.
type Enrollment = normalize.Enrollment

// Eligibility describes who may take part.
type Eligibility struct {
	StudyPop          string `json:"study_pop"`
	SamplingMethod    string `json:"sampling_method"`
	Criteria          string `json:"criteria"`
	Gender            string `json:"gender"`
	GenderBased       string `json:"gender_based"`
	GenderDescription string `json:"gender_description"`
	MinimumAge        string `json:"minimum_age"`
	MaximumAge        string `json:"maximum_age"`
	HealthyVolunteers string `json:"healthy_volunteers"`
}

// OversightInfo carries the Yes/No regulatory flags.
type OversightInfo struct {
	HasDMC               string `json:"has_dmc"`
	IsFDARegulatedDrug   string `json:"is_fda_regulated_drug"`
	IsFDARegulatedDevice string `json:"is_fda_regulated_device"`
	IsUnapprovedDevice   string `json:"is_unapproved_device"`
	IsPPSD               string `json:"is_ppsd"`
	IsUSExport           string `json:"is_us_export"`
}

// StudyDesign holds the allocation, masking and model descriptors.
type StudyDesign struct {
	Allocation                   string `json:"allocation"`
	InterventionModel            string `json:"intervention_model"`
	InterventionModelDescription string `json:"intervention_model_description"`
	PrimaryPurpose               string `json:"primary_purpose"`
	ObservationalModel           string `json:"observational_model"`
	TimePerspective              string `json:"time_perspective"`
	Masking                      string `json:"masking"`
	MaskingDescription           string `json:"masking_description"`
}

// Outcome is a primary, secondary or other outcome measure.
type Outcome struct {
	Measure     string `json:"measure"`
	TimeFrame   string `json:"time_frame"`
	Description string `json:"description"`
}

// ArmGroup is one labelled arm of the study.
type ArmGroup struct {
	Label       string `json:"arm_group_label"`
	Type        string `json:"arm_group_type"`
	Description string `json:"description"`
}

// Intervention lists the arms it applies to and its alternate names; both
// are omitted when the source has none.
type Intervention struct {
	Type          string   `json:"intervention_type"`
	Name          string   `json:"intervention_name"`
	Description   string   `json:"description"`
	ArmGroupLabel []string `json:"arm_group_label,omitempty"`
	OtherName     []string `json:"other_name,omitempty"`
}

// Investigator is one overall official.
type Investigator struct {
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Degrees     string `json:"degrees"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
}

// Contact is the overall or backup study contact.
type Contact struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Degrees    string `json:"degrees"`
	Phone      string `json:"phone"`
	PhoneExt   string `json:"phone_ext"`
	Email      string `json:"email"`
}

// Reference is a bibliographic citation; PMID is 0 when unknown.
type Reference struct {
	Citation string `json:"citation"`
	PMID     int64  `json:"pmid"`
}

// StudyDoc is a supporting document referenced by identifier.
type StudyDoc struct {
	DocID      string `json:"doc_id"`
	DocType    string `json:"doc_type"`
	DocURL     string `json:"doc_url"`
	DocComment string `json:"doc_comment"`
}

// ProvidedDocument is a protocol, SAP or consent form attached to the record.
type ProvidedDocument struct {
	DocumentType        string `json:"document_type"`
	DocumentHasProtocol string `json:"document_has_protocol"`
	DocumentHasICF      string `json:"document_has_icf"`
	DocumentHasSAP      string `json:"document_has_sap"`
	DocumentDate        string `json:"document_date"`
	DocumentURL         string `json:"document_url"`
}

// PendingResult is one results submission cycle. Dates are absent when
// the cycle has not reached that step.
type PendingResult struct {
	Submitted          *string `json:"submitted,omitempty"`
	Returned           *string `json:"returned,omitempty"`
	SubmissionCanceled *string `json:"submission_canceled,omitempty"`
}

// Outcomes returns every outcome keyed by its kind: primary, secondary or
// other.
func (s *Study) Outcomes() map[string][]Outcome {
	return map[string][]Outcome{
		"primary":   s.PrimaryOutcomes,
		"secondary": s.SecondaryOutcomes,
		"other":     s.OtherOutcomes,
	}
}
