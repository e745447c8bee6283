package testutil

import "strings"

// Fixture documents in the ClinicalTrials.gov export format. NCT IDs are
// substituted so several distinct studies can be built from one template.

const fullStudyTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<clinical_study rank="12">
  <required_header>
    <download_date>ClinicalTrials.gov processed this data on December 04, 2020</download_date>
    <link_text>Link to the current ClinicalTrials.gov record.</link_text>
    <url>https://clinicaltrials.gov/show/{{NCT}}</url>
  </required_header>
  <id_info>
    <org_study_id>MAP-2020-01</org_study_id>
    <secondary_id>R01 AI012345</secondary_id>
    <nct_id>{{NCT}}</nct_id>
  </id_info>
  <brief_title>Oral Dose Escalation of Compound X in Asthma</brief_title>
  <acronym>ODEX</acronym>
  <official_title>A Randomized, Double-Blind Trial of Compound X in Adults With Moderate Asthma</official_title>
  <sponsors>
    <lead_sponsor>
      <agency>National Institutes of Health</agency>
      <agency_class>NIH</agency_class>
    </lead_sponsor>
    <collaborator>
      <agency>Food and Drug Administration</agency>
      <agency_class>U.S. Fed</agency_class>
    </collaborator>
    <collaborator>
      <agency>Acme Pharma</agency>
      <agency_class>Industry</agency_class>
    </collaborator>
  </sponsors>
  <source>National Institutes of Health Clinical Center</source>
  <oversight_info>
    <has_dmc>Yes</has_dmc>
    <is_fda_regulated_drug>Yes</is_fda_regulated_drug>
    <is_fda_regulated_device>No</is_fda_regulated_device>
  </oversight_info>
  <brief_summary>
    <textblock>
      This study tests   whether Compound X
      reduces asthma exacerbations.
    </textblock>
  </brief_summary>
  <detailed_description>
    <textblock>
      Participants receive a 3.5 mg oral dose
      twice daily for twelve weeks.
    </textblock>
  </detailed_description>
  <overall_status>Completed</overall_status>
  <start_date type="Actual">December 2, 2020</start_date>
  <completion_date>March 2021</completion_date>
  <primary_completion_date type="Anticipated">February 15, 2021</primary_completion_date>
  <phase>Phase 2</phase>
  <study_type>Interventional</study_type>
  <has_expanded_access>No</has_expanded_access>
  <study_design_info>
    <allocation>Randomized</allocation>
    <intervention_model>Parallel Assignment</intervention_model>
    <primary_purpose>Treatment</primary_purpose>
    <masking>Double (Participant, Investigator)</masking>
  </study_design_info>
  <primary_outcome>
    <measure>Rate of severe exacerbations</measure>
    <time_frame>12 weeks</time_frame>
    <description>Exacerbations requiring systemic corticosteroids.</description>
  </primary_outcome>
  <secondary_outcome>
    <measure>FEV1 change from baseline</measure>
    <time_frame>12 weeks</time_frame>
  </secondary_outcome>
  <secondary_outcome>
    <measure>Symptom score</measure>
    <time_frame>6 weeks</time_frame>
  </secondary_outcome>
  <number_of_arms>2</number_of_arms>
  <enrollment type="Actual">120</enrollment>
  <condition>Asthma</condition>
  <condition>Bronchial Hyperreactivity</condition>
  <arm_group>
    <arm_group_label>Compound X</arm_group_label>
    <arm_group_type>Experimental</arm_group_type>
    <description>3.5 mg twice daily</description>
  </arm_group>
  <arm_group>
    <arm_group_label>Placebo</arm_group_label>
    <arm_group_type>Placebo Comparator</arm_group_type>
  </arm_group>
  <intervention>
    <intervention_type>Drug</intervention_type>
    <intervention_name>Compound X</intervention_name>
    <description>Oral tablet</description>
    <arm_group_label>Compound X</arm_group_label>
    <other_name>CPX-100</other_name>
    <other_name>Examplinib</other_name>
  </intervention>
  <intervention>
    <intervention_type>Other</intervention_type>
    <intervention_name>Placebo</intervention_name>
    <arm_group_label>Placebo</arm_group_label>
  </intervention>
  <eligibility>
    <criteria>
      <textblock>
        Inclusion Criteria:
          -  Age 18 to 65
        Exclusion Criteria:
          -  Current smoker
      </textblock>
    </criteria>
    <gender>All</gender>
    <minimum_age>18 Years</minimum_age>
    <maximum_age>65 Years</maximum_age>
    <healthy_volunteers>No</healthy_volunteers>
  </eligibility>
  <overall_official>
    <first_name>Jane</first_name>
    <last_name>Doe</last_name>
    <degrees>MD</degrees>
    <role>Principal Investigator</role>
    <affiliation>NIH Clinical Center</affiliation>
  </overall_official>
  <overall_contact>
    <last_name>Study Coordinator</last_name>
    <phone>301-555-0100</phone>
    <email>coordinator@example.org</email>
  </overall_contact>
  <location>
    <facility>
      <name>NIH Clinical Center</name>
      <address>
        <city>Bethesda</city>
        <state>Maryland</state>
        <country>United States</country>
      </address>
    </facility>
  </location>
  <location_countries>
    <country>United States</country>
  </location_countries>
  <reference>
    <citation>Doe J, et al. Compound X in asthma. Lancet. 2019;1:1-10.</citation>
    <PMID>31234567</PMID>
  </reference>
  <verification_date>December 2020</verification_date>
  <study_first_submitted>October 18, 1999</study_first_submitted>
  <study_first_submitted_qc>October 18, 1999</study_first_submitted_qc>
  <study_first_posted type="Estimate">October 19, 1999</study_first_posted>
  <last_update_submitted>December 3, 2020</last_update_submitted>
  <last_update_submitted_qc>December 3, 2020</last_update_submitted_qc>
  <last_update_posted type="Actual">December 7, 2020</last_update_posted>
  <keyword>asthma</keyword>
  <keyword>inhaled therapy</keyword>
  <condition_browse>
    <mesh_term>Asthma</mesh_term>
    <mesh_term>Bronchial Diseases</mesh_term>
  </condition_browse>
  <intervention_browse>
    <mesh_term>Examplinib</mesh_term>
  </intervention_browse>
  <study_docs>
    <study_doc>
      <doc_id>ODEX-SAP</doc_id>
      <doc_type>Statistical Analysis Plan</doc_type>
      <doc_url>https://example.org/odex/sap.pdf</doc_url>
      <doc_comment>Final version</doc_comment>
    </study_doc>
  </study_docs>
  <provided_document_section>
    <provided_document>
      <document_type>Study Protocol</document_type>
      <document_has_protocol>Yes</document_has_protocol>
      <document_has_icf>No</document_has_icf>
      <document_has_sap>No</document_has_sap>
      <document_date>June 1, 2019</document_date>
      <document_url>https://example.org/odex/protocol.pdf</document_url>
    </provided_document>
  </provided_document_section>
  <pending_results>
    <submitted>November 2, 2020</submitted>
    <returned>November 20, 2020</returned>
  </pending_results>
</clinical_study>
`

const minimalStudyTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<clinical_study>
  <id_info>
    <nct_id>{{NCT}}</nct_id>
  </id_info>
  <brief_title>Minimal Registry Record</brief_title>
  <sponsors>
    <lead_sponsor>
      <agency>Example University</agency>
    </lead_sponsor>
  </sponsors>
  <source>Example University</source>
  <overall_status>Recruiting</overall_status>
  <study_type>Observational</study_type>
  <enrollment>500</enrollment>
</clinical_study>
`

// StudyXML returns a fully populated registry record for nctID.
func StudyXML(nctID string) string {
	return strings.ReplaceAll(fullStudyTemplate, "{{NCT}}", nctID)
}

// MinimalStudyXML returns a record carrying only the elements the schema
// requires plus a bare enrollment count.
func MinimalStudyXML(nctID string) string {
	return strings.ReplaceAll(minimalStudyTemplate, "{{NCT}}", nctID)
}

// MissingIDXML is schema-valid but has an empty registry identifier.
func MissingIDXML() string {
	return MinimalStudyXML("")
}

// InvalidXML fails schema validation: the required source element is
// missing and an undeclared element is present.
func InvalidXML() string {
	doc := strings.Replace(MinimalStudyXML("NCT09999999"), "<source>Example University</source>", "", 1)
	return strings.Replace(doc, "</clinical_study>", "<undeclared>x</undeclared>\n</clinical_study>", 1)
}

// MalformedXML is not well-formed.
func MalformedXML() string {
	return "<clinical_study><id_info><nct_id>NCT0</nct_id></clinical_study>"
}
