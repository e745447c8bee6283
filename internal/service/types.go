package service

import (
	"context"

	"github.com/nishad/ctrake/internal/database"
)

// SearchRequest represents a search request with all parameters
type SearchRequest struct {
	// Keyword expressions; see search.BuildQuery.
	Text         string `json:"text,omitempty"`
	DetailedDesc string `json:"detailed_desc,omitempty"`

	// Studies must link to at least one of the listed ids.
	ConditionIDs []int64 `json:"conditions,omitempty"`
	SponsorIDs   []int64 `json:"sponsors,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Empty reports whether the request names no criterion at all.
func (r *SearchRequest) Empty() bool {
	return r.Text == "" && r.DetailedDesc == "" &&
		len(r.ConditionIDs) == 0 && len(r.SponsorIDs) == 0
}

// StudyDetail is a study with the entities it links to.
type StudyDetail struct {
	*database.Study
	Sponsors      []database.StudySponsor      `json:"sponsors"`
	Conditions    []database.StudyCondition    `json:"conditions"`
	Interventions []database.StudyIntervention `json:"interventions"`
	Docs          []database.StudyDoc          `json:"study_docs"`
	Outcomes      []database.StudyOutcome      `json:"outcomes"`
}

// Summary holds collection-wide counts.
type Summary struct {
	NumStudies int64 `json:"num_studies"`
}

// BaseService is implemented by every service the HTTP layer depends on.
type BaseService interface {
	// Health checks if the service is operational
	Health(ctx context.Context) error
}
