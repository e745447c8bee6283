// Package service provides the query operations behind the HTTP API and
// the CLI: keyword search, study detail, listings and exports.
package service

import (
	"context"
	"fmt"

	"github.com/nishad/ctrake/internal/database"
)

// MetadataService provides read access to loaded studies and the
// condition and sponsor entities they link to.
type MetadataService struct {
	db *database.DB
}

// NewMetadataService creates a new metadata service instance
func NewMetadataService(db *database.DB) *MetadataService {
	return &MetadataService{
		db: db,
	}
}

// GetStudy retrieves a study by NCT ID together with its sponsors,
// conditions, interventions, documents and outcomes. A missing study
// yields an errors.KindNotFound error.
func (m *MetadataService) GetStudy(ctx context.Context, nctID string) (*StudyDetail, error) {
	study, err := m.db.GetStudy(ctx, nctID)
	if err != nil {
		return nil, err
	}

	detail := &StudyDetail{Study: study}
	if detail.Sponsors, err = m.db.StudySponsors(ctx, study.StudyID); err != nil {
		return nil, err
	}
	if detail.Conditions, err = m.db.StudyConditions(ctx, study.StudyID); err != nil {
		return nil, err
	}
	if detail.Interventions, err = m.db.StudyInterventions(ctx, study.StudyID); err != nil {
		return nil, err
	}
	if detail.Docs, err = m.db.StudyDocs(ctx, study.StudyID); err != nil {
		return nil, err
	}
	if detail.Outcomes, err = m.db.StudyOutcomes(ctx, study.StudyID); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetStudies retrieves multiple studies with pagination
func (m *MetadataService) GetStudies(ctx context.Context, limit, offset int) ([]database.StudySummary, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return m.db.ListStudies(ctx, limit, offset)
}

// Summary returns the number of loaded studies.
func (m *MetadataService) Summary(ctx context.Context) (*Summary, error) {
	n, err := m.db.CountStudies(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{NumStudies: n}, nil
}

// Conditions lists conditions with their study counts, optionally only
// those whose name contains name.
func (m *MetadataService) Conditions(ctx context.Context, name string) ([]database.ConditionCount, error) {
	return m.db.Conditions(ctx, name)
}

// Sponsors lists sponsors with their study counts.
func (m *MetadataService) Sponsors(ctx context.Context) ([]database.SponsorCount, error) {
	return m.db.Sponsors(ctx)
}

// Info reports the database location and table sizes.
func (m *MetadataService) Info(ctx context.Context) (*database.DatabaseInfo, error) {
	return m.db.GetInfo(ctx)
}

// Health checks if the database is accessible
func (m *MetadataService) Health(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}
