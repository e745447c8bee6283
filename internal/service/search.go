package service

import (
	"context"
	"fmt"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/search"
)

// SearchService combines keyword matches from the index with relational
// filters from the database.
type SearchService struct {
	db    *database.DB
	index *search.BleveIndex
}

// NewSearchService creates a new search service
func NewSearchService(db *database.DB, index *search.BleveIndex) *SearchService {
	return &SearchService{db: db, index: index}
}

// Search returns the studies matching every criterion in req, ordered by
// NCT ID. A zero Limit returns every match; a request without criteria
// matches nothing.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) ([]database.StudySummary, error) {
	if req.Empty() {
		return []database.StudySummary{}, nil
	}

	filter := database.Filter{
		ConditionIDs: req.ConditionIDs,
		SponsorIDs:   req.SponsorIDs,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	crit := search.Criteria{Text: req.Text, DetailedDescription: req.DetailedDesc}
	if !crit.Empty() {
		ids, err := s.index.Match(ctx, crit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		filter.NCTIDs = ids
		filter.Restrict = true
	}

	return s.db.FilterStudies(ctx, filter)
}

// QuickSearch matches term against the keyword token blob only.
func (s *SearchService) QuickSearch(ctx context.Context, term string) ([]database.StudySummary, error) {
	return s.Search(ctx, &SearchRequest{Text: term})
}

// Health checks the database connection and the index.
func (s *SearchService) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	if _, err := s.index.GetDocCount(); err != nil {
		return fmt.Errorf("search index unhealthy: %w", err)
	}
	return nil
}
