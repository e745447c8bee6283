package study

import (
	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/normalize"
	"github.com/nishad/ctrake/internal/xmltree"
)

// ErrMissingID is wrapped by the error returned when a document has no
// registry identifier.
var ErrMissingID = errors.New("missing registry identifier id_info/nct_id")

// Restructure assembles the canonical record from a decoded clinical_study
// node and its keyword blob. Every lookup tolerates missing data; the only
// failure is an empty registry identifier, reported with KindRequired.
func Restructure(root xmltree.Node, text string) (*Study, error) {
	const op = errors.Op("study.Restructure")

	idInfo := root.Get("id_info")
	nctID := normalize.Str(idInfo.Get("nct_id"))
	if nctID == "" {
		return nil, errors.E(op, errors.KindRequired, ErrMissingID)
	}

	str := func(key string) string { return normalize.Str(root.Get(key)) }
	date := func(key string) *string { return normalize.Date(root.Get(key)) }

	rank := normalize.Str(root.Attr("rank"))
	if rank == "" {
		rank = str("rank")
	}

	s := &Study{
		NCTID:         nctID,
		OrgStudyID:    normalize.Str(idInfo.Get("org_study_id")),
		BriefTitle:    str("brief_title"),
		OfficialTitle: str("official_title"),
		Acronym:       str("acronym"),
		Source:        str("source"),
		Rank:          rank,

		BriefSummary:        normalize.TextBlock(root.Get("brief_summary")),
		DetailedDescription: normalize.TextBlock(root.Get("detailed_description")),

		OverallStatus:     str("overall_status"),
		LastKnownStatus:   str("last_known_status"),
		WhyStopped:        str("why_stopped"),
		Phase:             str("phase"),
		StudyType:         str("study_type"),
		HasExpandedAccess: str("has_expanded_access"),
		TargetDuration:    str("target_duration"),

		BiospecRetention:   str("biospec_retention"),
		BiospecDescription: normalize.TextBlock(root.Get("biospec_descr")),

		StartDate:             date("start_date"),
		CompletionDate:        date("completion_date"),
		VerificationDate:      date("verification_date"),
		PrimaryCompletionDate: date("primary_completion_date"),

		StudyFirstSubmitted:   date("study_first_submitted"),
		StudyFirstSubmittedQC: date("study_first_submitted_qc"),
		StudyFirstPosted:      date("study_first_posted"),

		ResultsFirstSubmitted:   date("results_first_submitted"),
		ResultsFirstSubmittedQC: date("results_first_submitted_qc"),
		ResultsFirstPosted:      date("results_first_posted"),

		DispositionFirstSubmitted:   date("disposition_first_submitted"),
		DispositionFirstSubmittedQC: date("disposition_first_submitted_qc"),
		DispositionFirstPosted:      date("disposition_first_posted"),

		LastUpdateSubmitted:   date("last_update_submitted"),
		LastUpdateSubmittedQC: date("last_update_submitted_qc"),
		LastUpdatePosted:      date("last_update_posted"),

		NumberOfArms:   normalize.OptionalInt(root.Get("number_of_arms")),
		NumberOfGroups: normalize.OptionalInt(root.Get("number_of_groups")),

		Eligibility:          eligibility(root.Get("eligibility")),
		Enrollment:           normalize.ToEnrollment(root.Get("enrollment")),
		OversightInfo:        oversight(root.Get("oversight_info")),
		StudyDesign:          studyDesign(root.Get("study_design_info")),
		OverallContact:       contact(root.Get("overall_contact")),
		OverallContactBackup: contact(root.Get("overall_contact_backup")),

		Conditions:         normalize.StringList(root.Get("condition")),
		Keywords:           normalize.StringList(root.Get("keyword")),
		Sponsors:           normalize.Sponsors(root.Get("sponsors")),
		PrimaryOutcomes:    outcomes(root.Get("primary_outcome")),
		SecondaryOutcomes:  outcomes(root.Get("secondary_outcome")),
		OtherOutcomes:      outcomes(root.Get("other_outcome")),
		ArmGroups:          armGroups(root.Get("arm_group")),
		Interventions:      interventions(root.Get("intervention")),
		OverallOfficial:    investigators(root.Get("overall_official")),
		References:         references(root.Get("reference")),
		ConditionBrowse:    normalize.BrowseTerms(root.Get("condition_browse")),
		InterventionBrowse: normalize.BrowseTerms(root.Get("intervention_browse")),
		StudyDocs:          studyDocs(root.Path("study_docs", "study_doc")),
		ProvidedDocuments:  providedDocuments(root.Path("provided_document_section", "provided_document")),
		PendingResults:     pendingResults(root.Get("pending_results")),

		Text: text,
	}
	return s, nil
}

// Sub-records are built only when their enclosing node is a mapping, so
// an absent section yields nil rather than a record of empty strings.

func eligibility(n xmltree.Node) *Eligibility {
	if !n.IsMap() {
		return nil
	}
	return &Eligibility{
		StudyPop:          normalize.TextBlock(n.Get("study_pop")),
		SamplingMethod:    normalize.Str(n.Get("sampling_method")),
		Criteria:          normalize.TextBlock(n.Get("criteria")),
		Gender:            normalize.Str(n.Get("gender")),
		GenderBased:       normalize.Str(n.Get("gender_based")),
		GenderDescription: normalize.Str(n.Get("gender_description")),
		MinimumAge:        normalize.Str(n.Get("minimum_age")),
		MaximumAge:        normalize.Str(n.Get("maximum_age")),
		HealthyVolunteers: normalize.Str(n.Get("healthy_volunteers")),
	}
}

func oversight(n xmltree.Node) *OversightInfo {
	if !n.IsMap() {
		return nil
	}
	return &OversightInfo{
		HasDMC:               normalize.Str(n.Get("has_dmc")),
		IsFDARegulatedDrug:   normalize.Str(n.Get("is_fda_regulated_drug")),
		IsFDARegulatedDevice: normalize.Str(n.Get("is_fda_regulated_device")),
		IsUnapprovedDevice:   normalize.Str(n.Get("is_unapproved_device")),
		IsPPSD:               normalize.Str(n.Get("is_ppsd")),
		IsUSExport:           normalize.Str(n.Get("is_us_export")),
	}
}

func studyDesign(n xmltree.Node) *StudyDesign {
	if !n.IsMap() {
		return nil
	}
	return &StudyDesign{
		Allocation:                   normalize.Str(n.Get("allocation")),
		InterventionModel:            normalize.Str(n.Get("intervention_model")),
		InterventionModelDescription: normalize.Str(n.Get("intervention_model_description")),
		PrimaryPurpose:               normalize.Str(n.Get("primary_purpose")),
		ObservationalModel:           normalize.Str(n.Get("observational_model")),
		TimePerspective:              normalize.Str(n.Get("time_perspective")),
		Masking:                      normalize.Str(n.Get("masking")),
		MaskingDescription:           normalize.Str(n.Get("masking_description")),
	}
}

func contact(n xmltree.Node) *Contact {
	if !n.IsMap() {
		return nil
	}
	return &Contact{
		FirstName:  normalize.Str(n.Get("first_name")),
		MiddleName: normalize.Str(n.Get("middle_name")),
		LastName:   normalize.Str(n.Get("last_name")),
		Degrees:    normalize.Str(n.Get("degrees")),
		Phone:      normalize.Str(n.Get("phone")),
		PhoneExt:   normalize.Str(n.Get("phone_ext")),
		Email:      normalize.Str(n.Get("email")),
	}
}

func outcomes(n xmltree.Node) []Outcome {
	items := n.Items()
	out := make([]Outcome, 0, len(items))
	for _, it := range items {
		out = append(out, Outcome{
			Measure:     normalize.Str(it.Get("measure")),
			TimeFrame:   normalize.Str(it.Get("time_frame")),
			Description: normalize.Str(it.Get("description")),
		})
	}
	return out
}

func armGroups(n xmltree.Node) []ArmGroup {
	items := n.Items()
	out := make([]ArmGroup, 0, len(items))
	for _, it := range items {
		out = append(out, ArmGroup{
			Label:       normalize.Str(it.Get("arm_group_label")),
			Type:        normalize.Str(it.Get("arm_group_type")),
			Description: normalize.Str(it.Get("description")),
		})
	}
	return out
}

func interventions(n xmltree.Node) []Intervention {
	items := n.Items()
	out := make([]Intervention, 0, len(items))
	for _, it := range items {
		iv := Intervention{
			Type:        normalize.Str(it.Get("intervention_type")),
			Name:        normalize.Str(it.Get("intervention_name")),
			Description: normalize.Str(it.Get("description")),
		}
		if labels := normalize.StringList(it.Get("arm_group_label")); len(labels) > 0 {
			iv.ArmGroupLabel = labels
		}
		if names := normalize.StringList(it.Get("other_name")); len(names) > 0 {
			iv.OtherName = names
		}
		out = append(out, iv)
	}
	return out
}

func investigators(n xmltree.Node) []Investigator {
	items := n.Items()
	out := make([]Investigator, 0, len(items))
	for _, it := range items {
		out = append(out, Investigator{
			FirstName:   normalize.Str(it.Get("first_name")),
			MiddleName:  normalize.Str(it.Get("middle_name")),
			LastName:    normalize.Str(it.Get("last_name")),
			Degrees:     normalize.Str(it.Get("degrees")),
			Role:        normalize.Str(it.Get("role")),
			Affiliation: normalize.Str(it.Get("affiliation")),
		})
	}
	return out
}

func references(n xmltree.Node) []Reference {
	items := n.Items()
	out := make([]Reference, 0, len(items))
	for _, it := range items {
		ref := Reference{Citation: normalize.Str(it.Get("citation"))}
		pmid := it.Get("PMID")
		if pmid.IsNone() {
			pmid = it.Get("pmid")
		}
		if v, ok := pmid.Value().Integer(); ok {
			ref.PMID = v
		}
		out = append(out, ref)
	}
	return out
}

func studyDocs(n xmltree.Node) []StudyDoc {
	items := n.Items()
	out := make([]StudyDoc, 0, len(items))
	for _, it := range items {
		out = append(out, StudyDoc{
			DocID:      normalize.Str(it.Get("doc_id")),
			DocType:    normalize.Str(it.Get("doc_type")),
			DocURL:     normalize.Str(it.Get("doc_url")),
			DocComment: normalize.Str(it.Get("doc_comment")),
		})
	}
	return out
}

func providedDocuments(n xmltree.Node) []ProvidedDocument {
	items := n.Items()
	out := make([]ProvidedDocument, 0, len(items))
	for _, it := range items {
		out = append(out, ProvidedDocument{
			DocumentType:        normalize.Str(it.Get("document_type")),
			DocumentHasProtocol: normalize.Str(it.Get("document_has_protocol")),
			DocumentHasICF:      normalize.Str(it.Get("document_has_icf")),
			DocumentHasSAP:      normalize.Str(it.Get("document_has_sap")),
			DocumentDate:        normalize.Str(it.Get("document_date")),
			DocumentURL:         normalize.Str(it.Get("document_url")),
		})
	}
	return out
}

// pendingResults pairs the i-th submitted, returned and canceled dates
// into one cycle each.
func pendingResults(n xmltree.Node) []PendingResult {
	submitted := n.Get("submitted").Items()
	returned := n.Get("returned").Items()
	canceled := n.Get("submission_canceled").Items()

	count := len(submitted)
	if len(returned) > count {
		count = len(returned)
	}
	if len(canceled) > count {
		count = len(canceled)
	}

	at := func(items []xmltree.Node, i int) *string {
		if i >= len(items) {
			return nil
		}
		return normalize.Date(items[i])
	}

	out := make([]PendingResult, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, PendingResult{
			Submitted:          at(submitted, i),
			Returned:           at(returned, i),
			SubmissionCanceled: at(canceled, i),
		})
	}
	return out
}
