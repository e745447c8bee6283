// Package loader writes canonical study artifacts into the relational
// store and the keyword index.
package loader

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/pipeline"
	"github.com/nishad/ctrake/internal/search"
	"github.com/nishad/ctrake/internal/study"
)

// DefaultPhase is stored for studies that name no phase.
const DefaultPhase = "N/A"

// Options configures a Loader. Metrics and Progress may be nil.
type Options struct {
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Progress pipeline.ProgressFunc
}

// Loader upserts studies one transaction at a time. The index is optional.
type Loader struct {
	db    *database.DB
	index *search.BleveIndex
	opts  Options
}

// Report summarizes a Run.
type Report struct {
	Loaded    int
	Errors    []*errors.DocumentError
	Cancelled bool
	Duration  time.Duration
}

// New returns a loader writing to db and, when index is non-nil, indexing
// each committed study.
func New(db *database.DB, index *search.BleveIndex, opts Options) *Loader {
	return &Loader{db: db, index: index, opts: opts}
}

// Run loads every artifact in paths in order. Per-document failures are
// collected in the report; Run stops early only when ctx is cancelled.
func (l *Loader) Run(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	report := &Report{}
	var errs errors.List

	for i, path := range paths {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		if err := l.LoadFile(ctx, path); err != nil {
			errs.Add(path, err)
			l.opts.Logger.Warn().Err(err).Str("path", path).Msg("load failed")
		} else {
			report.Loaded++
		}

		if l.opts.Progress != nil {
			l.opts.Progress(i+1, len(paths), path)
		}
	}

	report.Errors = errs.Errors()
	report.Duration = time.Since(start)

	l.opts.Logger.Info().
		Int("loaded", report.Loaded).
		Int("errors", len(report.Errors)).
		Bool("cancelled", report.Cancelled).
		Dur("duration", report.Duration).
		Msg("load finished")

	return report, nil
}

// LoadFile reads one JSON artifact and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) error {
	s, err := pipeline.ReadArtifact(path)
	if err != nil {
		return err
	}
	_, err = l.LoadStudy(ctx, s)
	return err
}

// LoadStudy upserts s with its phase, conditions, sponsors, interventions,
// keywords, documents and outcomes, then indexes it. Loading the same
// study twice leaves the store unchanged.
func (l *Loader) LoadStudy(ctx context.Context, s *study.Study) (int64, error) {
	const op = errors.Op("loader.LoadStudy")

	if s.NCTID == "" {
		return 0, errors.E(op, errors.KindRequired, "missing nct_id")
	}

	row := studyRow(s)
	skipped := errors.NewSkipCounter(string(op))
	var studyID int64
	err := l.db.WithTx(ctx, func(tx *database.Tx) error {
		phase := s.Phase
		if phase == "" {
			phase = DefaultPhase
		}
		phaseID, err := tx.GetOrCreatePhase(phase)
		if err != nil {
			return err
		}
		row.PhaseID = phaseID

		if studyID, err = tx.UpsertStudy(row); err != nil {
			return err
		}
		return linkAll(tx, studyID, s, skipped)
	})
	if err != nil {
		return 0, errors.E(op, err, s.NCTID)
	}
	skipped.Report()

	if l.index != nil {
		err := l.index.IndexStudy(search.StudyDoc{
			NCTID:               s.NCTID,
			BriefTitle:          s.BriefTitle,
			OfficialTitle:       s.OfficialTitle,
			DetailedDescription: s.DetailedDescription,
			Text:                s.Text,
		})
		if err != nil {
			return studyID, errors.E(op, err, s.NCTID)
		}
	}

	if l.opts.Metrics != nil {
		l.opts.Metrics.StudiesLoaded.Inc()
	}
	return studyID, nil
}

// linkAll writes the child rows of s. Blank names and documents without
// an id cannot be keyed and are counted in skipped instead.
func linkAll(tx *database.Tx, studyID int64, s *study.Study, skipped *errors.SkipCounter) error {
	links := []struct {
		entity string
		names  []string
		create func(string) (int64, error)
		link   func(int64, int64) error
	}{
		{"condition", s.Conditions, tx.GetOrCreateCondition, tx.LinkCondition},
		{"sponsor", s.Sponsors, tx.GetOrCreateSponsor, tx.LinkSponsor},
		{"intervention", interventionNames(s.Interventions), tx.GetOrCreateIntervention, tx.LinkIntervention},
		{"keyword", s.Keywords, tx.GetOrCreateKeyword, tx.LinkKeyword},
	}
	for _, l := range links {
		for _, name := range l.names {
			if strings.TrimSpace(name) == "" {
				skipped.Skip(nil, s.NCTID+": blank "+l.entity)
				continue
			}
			id, err := l.create(name)
			if err != nil {
				return err
			}
			if err := l.link(studyID, id); err != nil {
				return err
			}
		}
	}

	for _, doc := range s.StudyDocs {
		if doc.DocID == "" {
			skipped.Skip(nil, s.NCTID+": study_doc without doc_id")
			continue
		}
		err := tx.UpsertStudyDoc(studyID, database.StudyDoc{
			DocID:      doc.DocID,
			DocType:    doc.DocType,
			DocURL:     doc.DocURL,
			DocComment: doc.DocComment,
		})
		if err != nil {
			return err
		}
	}

	for kind, outcomes := range s.Outcomes() {
		for _, o := range outcomes {
			err := tx.AddOutcome(studyID, database.StudyOutcome{
				OutcomeType: kind,
				Measure:     o.Measure,
				TimeFrame:   o.TimeFrame,
				Description: o.Description,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func interventionNames(in []study.Intervention) []string {
	names := make([]string, 0, len(in))
	for _, i := range in {
		names = append(names, i.Name)
	}
	return names
}

// studyRow maps the canonical record onto the study table's columns.
func studyRow(s *study.Study) *database.Study {
	row := &database.Study{
		NCTID:                       s.NCTID,
		OrgStudyID:                  s.OrgStudyID,
		BriefTitle:                  s.BriefTitle,
		OfficialTitle:               s.OfficialTitle,
		Acronym:                     s.Acronym,
		Source:                      s.Source,
		Rank:                        s.Rank,
		BriefSummary:                s.BriefSummary,
		DetailedDescription:         s.DetailedDescription,
		OverallStatus:               s.OverallStatus,
		LastKnownStatus:             s.LastKnownStatus,
		WhyStopped:                  s.WhyStopped,
		StudyType:                   s.StudyType,
		HasExpandedAccess:           s.HasExpandedAccess,
		TargetDuration:              s.TargetDuration,
		BiospecRetention:            s.BiospecRetention,
		BiospecDescription:          s.BiospecDescription,
		StartDate:                   deref(s.StartDate),
		CompletionDate:              deref(s.CompletionDate),
		VerificationDate:            deref(s.VerificationDate),
		PrimaryCompletionDate:       deref(s.PrimaryCompletionDate),
		StudyFirstSubmitted:         deref(s.StudyFirstSubmitted),
		StudyFirstSubmittedQC:       deref(s.StudyFirstSubmittedQC),
		StudyFirstPosted:            deref(s.StudyFirstPosted),
		ResultsFirstSubmitted:       deref(s.ResultsFirstSubmitted),
		ResultsFirstSubmittedQC:     deref(s.ResultsFirstSubmittedQC),
		ResultsFirstPosted:          deref(s.ResultsFirstPosted),
		DispositionFirstSubmitted:   deref(s.DispositionFirstSubmitted),
		DispositionFirstSubmittedQC: deref(s.DispositionFirstSubmittedQC),
		DispositionFirstPosted:      deref(s.DispositionFirstPosted),
		LastUpdateSubmitted:         deref(s.LastUpdateSubmitted),
		LastUpdateSubmittedQC:       deref(s.LastUpdateSubmittedQC),
		LastUpdatePosted:            deref(s.LastUpdatePosted),
		NumberOfArms:                s.NumberOfArms,
		NumberOfGroups:              s.NumberOfGroups,
		Keywords:                    strings.Join(s.Keywords, ", "),
		Text:                        s.Text,
	}
	if s.Enrollment != nil {
		n := s.Enrollment.Value
		row.Enrollment = &n
		row.EnrollmentType = s.Enrollment.Type
	}
	return row
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
