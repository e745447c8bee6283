package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/search"
)

// TestDB creates a temporary database for testing.
// It returns the database and a cleanup function.
func TestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	dir, dirCleanup := TempDir(t)

	db, err := database.Initialize(filepath.Join(dir, "test.db"))
	if err != nil {
		dirCleanup()
		t.Fatalf("failed to create test database: %v", err)
	}

	return db, func() {
		db.Close()
		dirCleanup()
	}
}

// TestIndex creates an in-memory search index closed at test cleanup.
func TestIndex(t *testing.T) *search.BleveIndex {
	t.Helper()
	index, err := search.NewMemoryIndex()
	if err != nil {
		t.Fatalf("failed to create test index: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

// FixtureStudy is a study row plus the entities it links to.
type FixtureStudy struct {
	Study      database.Study
	Phase      string
	Conditions []string
	Sponsors   []string
}

// FixtureStudies returns three small studies:
// NCT00000001 (Phase 2; Asthma, Bronchitis; NIH, FDA),
// NCT00000002 (Phase 3; Diabetes; NIH) and
// NCT00000003 (N/A; Asthma; Acme Pharma).
func FixtureStudies() []FixtureStudy {
	return []FixtureStudy{
		{
			Study: database.Study{
				NCTID:               "NCT00000001",
				BriefTitle:          "Inhaled Steroids in Asthma",
				DetailedDescription: "A randomized trial of inhaled budesonide in children.",
				Text:                "asthma budesonide children inhaled randomized steroids",
			},
			Phase:      "Phase 2",
			Conditions: []string{"Asthma", "Bronchitis"},
			Sponsors:   []string{"NIH", "FDA"},
		},
		{
			Study: database.Study{
				NCTID:               "NCT00000002",
				BriefTitle:          "Metformin in Type 2 Diabetes",
				DetailedDescription: "Open label metformin dosing in adults.",
				Text:                "adults diabetes dosing label metformin open type",
			},
			Phase:      "Phase 3",
			Conditions: []string{"Diabetes"},
			Sponsors:   []string{"NIH"},
		},
		{
			Study: database.Study{
				NCTID:               "NCT00000003",
				BriefTitle:          "Exercise and Asthma Control",
				DetailedDescription: "Supervised exercise for adults with asthma.",
				Text:                "adults asthma control exercise supervised",
			},
			Phase:      "N/A",
			Conditions: []string{"Asthma"},
			Sponsors:   []string{"Acme Pharma"},
		},
	}
}

// InsertFixtures writes studies to db and index in one transaction.
func InsertFixtures(db *database.DB, index *search.BleveIndex, studies []FixtureStudy) error {
	return db.WithTx(context.Background(), func(tx *database.Tx) error {
		for _, f := range studies {
			s := f.Study
			phaseID, err := tx.GetOrCreatePhase(f.Phase)
			if err != nil {
				return err
			}
			s.PhaseID = phaseID

			studyID, err := tx.UpsertStudy(&s)
			if err != nil {
				return err
			}
			for _, c := range f.Conditions {
				id, err := tx.GetOrCreateCondition(c)
				if err != nil {
					return err
				}
				if err := tx.LinkCondition(studyID, id); err != nil {
					return err
				}
			}
			for _, sp := range f.Sponsors {
				id, err := tx.GetOrCreateSponsor(sp)
				if err != nil {
					return err
				}
				if err := tx.LinkSponsor(studyID, id); err != nil {
					return err
				}
			}

			if index != nil {
				err := index.IndexStudy(search.StudyDoc{
					NCTID:               s.NCTID,
					BriefTitle:          s.BriefTitle,
					DetailedDescription: s.DetailedDescription,
					Text:                s.Text,
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TestDBWithFixtures creates a test database and index populated with
// FixtureStudies.
func TestDBWithFixtures(t *testing.T) (*database.DB, *search.BleveIndex, func()) {
	t.Helper()

	db, cleanup := TestDB(t)
	index := TestIndex(t)

	if err := InsertFixtures(db, index, FixtureStudies()); err != nil {
		cleanup()
		t.Fatalf("failed to insert fixtures: %v", err)
	}
	return db, index, cleanup
}
