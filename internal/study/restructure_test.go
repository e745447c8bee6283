package study

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/schema"
	"github.com/nishad/ctrake/internal/testutil"
	"github.com/nishad/ctrake/internal/xmltree"
)

func decode(t *testing.T, doc string) xmltree.Node {
	t.Helper()
	s, err := schema.Default()
	require.NoError(t, err)
	node, err := s.Decode([]byte(doc))
	require.NoError(t, err)
	return node
}

func TestRestructureFullRecord(t *testing.T) {
	node := decode(t, testutil.StudyXML("NCT00000102"))

	s, err := Restructure(node, "asthma compound")
	require.NoError(t, err)

	assert.Equal(t, "NCT00000102", s.NCTID)
	assert.Equal(t, "MAP-2020-01", s.OrgStudyID)
	assert.Equal(t, "12", s.Rank)
	assert.Equal(t, "ODEX", s.Acronym)
	assert.Equal(t, "This study tests whether Compound X reduces asthma exacerbations.", s.BriefSummary)
	assert.Equal(t, "Participants receive a 3.5 mg oral dose twice daily for twelve weeks.", s.DetailedDescription)
	assert.Equal(t, "Phase 2", s.Phase)
	assert.Equal(t, "asthma compound", s.Text)

	require.NotNil(t, s.StartDate)
	assert.Equal(t, "2020-12-02", *s.StartDate)
	require.NotNil(t, s.CompletionDate)
	assert.Equal(t, "2021-03-01", *s.CompletionDate)
	require.NotNil(t, s.LastUpdatePosted)
	assert.Equal(t, "2020-12-07", *s.LastUpdatePosted)
	assert.Nil(t, s.ResultsFirstPosted)

	require.NotNil(t, s.NumberOfArms)
	assert.Equal(t, int64(2), *s.NumberOfArms)
	assert.Nil(t, s.NumberOfGroups)

	assert.Equal(t, &Enrollment{Type: "Actual", Value: 120}, s.Enrollment)
	assert.Equal(t, []string{"National Institutes of Health", "Food and Drug Administration", "Acme Pharma"}, s.Sponsors)
	assert.Equal(t, []string{"Asthma", "Bronchial Hyperreactivity"}, s.Conditions)
	assert.Equal(t, []string{"asthma", "inhaled therapy"}, s.Keywords)
	assert.Equal(t, []string{"Asthma", "Bronchial Diseases"}, s.ConditionBrowse)
	assert.Equal(t, []string{"Examplinib"}, s.InterventionBrowse)

	require.NotNil(t, s.Eligibility)
	assert.Equal(t, "All", s.Eligibility.Gender)
	assert.Equal(t, "18 Years", s.Eligibility.MinimumAge)
	assert.Contains(t, s.Eligibility.Criteria, "Inclusion Criteria: - Age 18 to 65")
	assert.Empty(t, s.Eligibility.StudyPop)

	require.NotNil(t, s.OversightInfo)
	assert.Equal(t, "Yes", s.OversightInfo.HasDMC)
	assert.Equal(t, "No", s.OversightInfo.IsFDARegulatedDevice)

	require.NotNil(t, s.StudyDesign)
	assert.Equal(t, "Randomized", s.StudyDesign.Allocation)

	require.NotNil(t, s.OverallContact)
	assert.Equal(t, "coordinator@example.org", s.OverallContact.Email)
	assert.Nil(t, s.OverallContactBackup)

	require.Len(t, s.PrimaryOutcomes, 1)
	assert.Equal(t, "Rate of severe exacerbations", s.PrimaryOutcomes[0].Measure)
	require.Len(t, s.SecondaryOutcomes, 2)
	assert.Equal(t, "6 weeks", s.SecondaryOutcomes[1].TimeFrame)
	assert.Empty(t, s.OtherOutcomes)

	require.Len(t, s.ArmGroups, 2)
	assert.Equal(t, "Placebo Comparator", s.ArmGroups[1].Type)

	require.Len(t, s.Interventions, 2)
	assert.Equal(t, []string{"CPX-100", "Examplinib"}, s.Interventions[0].OtherName)
	assert.Equal(t, []string{"Compound X"}, s.Interventions[0].ArmGroupLabel)
	assert.Nil(t, s.Interventions[1].OtherName)

	require.Len(t, s.OverallOfficial, 1)
	assert.Equal(t, "Doe", s.OverallOfficial[0].LastName)

	require.Len(t, s.References, 1)
	assert.Equal(t, int64(31234567), s.References[0].PMID)

	require.Len(t, s.StudyDocs, 1)
	assert.Equal(t, "ODEX-SAP", s.StudyDocs[0].DocID)
	require.Len(t, s.ProvidedDocuments, 1)
	assert.Equal(t, "Study Protocol", s.ProvidedDocuments[0].DocumentType)

	require.Len(t, s.PendingResults, 1)
	require.NotNil(t, s.PendingResults[0].Returned)
	assert.Equal(t, "2020-11-20", *s.PendingResults[0].Returned)
	assert.Nil(t, s.PendingResults[0].SubmissionCanceled)
}

func TestRestructureIsDeterministic(t *testing.T) {
	node := decode(t, testutil.StudyXML("NCT00000102"))

	first, err := Restructure(node, "x")
	require.NoError(t, err)
	second, err := Restructure(node, "x")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestRestructureMinimalRecord(t *testing.T) {
	node := decode(t, testutil.MinimalStudyXML("NCT00000001"))

	s, err := Restructure(node, "")
	require.NoError(t, err)

	assert.Equal(t, &Enrollment{Type: "", Value: 500}, s.Enrollment)
	assert.Nil(t, s.Eligibility)
	assert.Nil(t, s.StudyDesign)
	assert.Nil(t, s.StartDate)
	assert.Equal(t, []string{"Example University"}, s.Sponsors)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, []interface{}{}, out["conditions"])
	assert.Equal(t, []interface{}{}, out["interventions"])
	assert.Equal(t, []interface{}{}, out["pending_results"])
	assert.NotContains(t, out, "start_date")
	assert.NotContains(t, out, "eligibility")
	assert.NotContains(t, out, "number_of_arms")
	assert.Equal(t, "", out["official_title"])
}

func TestRestructureMissingID(t *testing.T) {
	node := decode(t, testutil.MissingIDXML())

	s, err := Restructure(node, "")
	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRequired))
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestRestructureToleratesOddShapes(t *testing.T) {
	// Hand-built nodes not produced by the schema: singletons where lists
	// are expected and a plain string enrollment.
	node := xmltree.Map(
		xmltree.F("id_info", xmltree.Map(xmltree.F("nct_id", xmltree.Str("NCT1")))),
		xmltree.F("condition", xmltree.Str("Flu")),
		xmltree.F("enrollment", xmltree.Str("40")),
		xmltree.F("intervention", xmltree.Map(
			xmltree.F("intervention_type", xmltree.Str("Drug")),
			xmltree.F("intervention_name", xmltree.Str("Oseltamivir")),
		)),
		xmltree.F("pending_results", xmltree.Map(
			xmltree.F("submitted", xmltree.List(xmltree.Str("May 1, 2020"), xmltree.Str("June 1, 2020"))),
			xmltree.F("submission_canceled", xmltree.Str("May 5, 2020")),
		)),
		xmltree.F("start_date", xmltree.Map(xmltree.F("value", xmltree.Str("2019-06-01")))),
	)

	s, err := Restructure(node, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Flu"}, s.Conditions)
	assert.Equal(t, &Enrollment{Value: 40}, s.Enrollment)
	require.Len(t, s.Interventions, 1)
	assert.Equal(t, "Oseltamivir", s.Interventions[0].Name)
	require.NotNil(t, s.StartDate)
	assert.Equal(t, "2019-06-01", *s.StartDate)

	require.Len(t, s.PendingResults, 2)
	assert.Equal(t, "2020-05-05", *s.PendingResults[0].SubmissionCanceled)
	assert.Equal(t, "2020-06-01", *s.PendingResults[1].Submitted)
	assert.Nil(t, s.PendingResults[1].SubmissionCanceled)
}

func TestOutcomesByKind(t *testing.T) {
	s := &Study{
		PrimaryOutcomes:   []Outcome{{Measure: "a"}},
		SecondaryOutcomes: []Outcome{},
		OtherOutcomes:     []Outcome{{Measure: "b"}, {Measure: "c"}},
	}
	got := s.Outcomes()
	assert.Len(t, got["primary"], 1)
	assert.Len(t, got["secondary"], 0)
	assert.Len(t, got["other"], 2)
}
