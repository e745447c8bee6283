package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/logging"
	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/schema"
	"github.com/nishad/ctrake/internal/study"
	tu "github.com/nishad/ctrake/internal/testutil"
)

func defaultSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Default()
	if err != nil {
		t.Fatalf("schema.Default() error = %v", err)
	}
	return s
}

func TestTransform(t *testing.T) {
	s := defaultSchema(t)

	rec, err := Transform(s, []byte(tu.StudyXML("NCT00000102")))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if rec.NCTID != "NCT00000102" {
		t.Errorf("NCTID = %q", rec.NCTID)
	}

	tokens := strings.Fields(rec.Text)
	has := func(tok string) bool {
		for _, got := range tokens {
			if got == tok {
				return true
			}
		}
		return false
	}
	for _, want := range []string{"asthma", "compound", "nct00000102", "actual", "examplinib"} {
		if !has(want) {
			t.Errorf("token blob missing %q", want)
		}
	}
	for _, unwanted := range []string{"the", "and", "120", "3.5"} {
		if has(unwanted) {
			t.Errorf("token blob should not contain %q", unwanted)
		}
	}
}

func TestTransformErrorKinds(t *testing.T) {
	s := defaultSchema(t)

	tests := []struct {
		name string
		doc  string
		want errors.Kind
	}{
		{"malformed", tu.MalformedXML(), errors.KindParse},
		{"invalid", tu.InvalidXML(), errors.KindValidation},
		{"missing id", tu.MissingIDXML(), errors.KindRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Transform(s, []byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error, got record %v", rec)
			}
			if !errors.IsKind(err, tt.want) {
				t.Errorf("kind = %v, want %v (%v)", errors.GetKind(err), tt.want, err)
			}
		})
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec, err := Transform(defaultSchema(t), []byte(tu.StudyXML("NCT00000102")))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	path := filepath.Join(dir, "NCT00000102.json")
	if err := WriteArtifact(path, rec); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("artifact should end with a newline")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != ArtifactMode {
		t.Errorf("artifact mode = %v, want %v", perm, ArtifactMode)
	}
	if !strings.Contains(string(data), "\n    \"nct_id\": \"NCT00000102\"") {
		t.Error("artifact should use four space indentation")
	}

	back, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact() error = %v", err)
	}
	if back.BriefTitle != rec.BriefTitle || len(back.Interventions) != 2 {
		t.Errorf("round trip lost data: %+v", back)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestReadArtifactErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadArtifact(filepath.Join(dir, "missing.json")); !errors.IsKind(err, errors.KindIO) {
		t.Errorf("missing file: kind = %v", errors.GetKind(err))
	}

	bad := tu.WriteFile(t, dir, "bad.json", "{not json")
	if _, err := ReadArtifact(bad); !errors.IsKind(err, errors.KindParse) {
		t.Errorf("bad json: kind = %v", errors.GetKind(err))
	}

	noID := tu.WriteFile(t, dir, "noid.json", `{"brief_title": "x"}`)
	if _, err := ReadArtifact(noID); !errors.IsKind(err, errors.KindRequired) {
		t.Errorf("no id: kind = %v", errors.GetKind(err))
	}
}

func TestArtifactName(t *testing.T) {
	tests := map[string]string{
		"/data/NCT00000102.xml": "NCT00000102.json",
		"NCT1.XML":              "NCT1.json",
		"a/b/study":             "study.json",
	}
	for in, want := range tests {
		if got := ArtifactName(in); got != want {
			t.Errorf("ArtifactName(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeSources(t *testing.T, dir string) []string {
	t.Helper()
	files := []string{
		tu.WriteFile(t, dir, "NCT00000001.xml", tu.StudyXML("NCT00000001")),
		tu.WriteFile(t, dir, "NCT00000002.xml", tu.StudyXML("NCT00000002")),
		tu.WriteFile(t, dir, "nested/NCT00000003.xml", tu.MinimalStudyXML("NCT00000003")),
		tu.WriteFile(t, dir, "invalid.xml", tu.InvalidXML()),
		tu.WriteFile(t, dir, "noid.xml", tu.MissingIDXML()),
		tu.WriteFile(t, dir, "broken.xml", tu.MalformedXML()),
	}
	tu.WriteFile(t, dir, "README.txt", "not a document")
	return files
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeSources(t, dir)

	files, err := Discover(dir, ".xml")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 6 {
		t.Fatalf("Discover() found %d files, want 6: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("files not sorted: %v", files)
		}
	}

	if _, err := Discover(filepath.Join(dir, "nope"), ".xml"); !errors.IsKind(err, errors.KindIO) {
		t.Errorf("missing dir: kind = %v", errors.GetKind(err))
	}
}

func TestBatchRun(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "json")
	sources := append(writeSources(t, src), filepath.Join(src, "gone.xml"))

	m := metrics.New()
	var mu sync.Mutex
	var progress []int

	b := NewBatch(defaultSchema(t), Options{
		Workers: 3,
		OutDir:  out,
		Logger:  logging.Nop(),
		Metrics: m,
		Progress: func(done, total int, _ string) {
			mu.Lock()
			defer mu.Unlock()
			if total != 7 {
				t.Errorf("total = %d, want 7", total)
			}
			progress = append(progress, done)
		},
	})

	report, err := b.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Written != 3 {
		t.Errorf("Written = %d, want 3", report.Written)
	}
	if len(report.Errors) != 4 {
		t.Fatalf("Errors = %v, want 4", report.Errors)
	}
	if report.Cancelled {
		t.Error("run should not be cancelled")
	}
	if len(progress) != 7 || progress[6] != 7 {
		t.Errorf("progress = %v", progress)
	}

	wantKinds := map[string]errors.Kind{
		"broken.xml":  errors.KindParse,
		"gone.xml":    errors.KindIO,
		"invalid.xml": errors.KindValidation,
		"noid.xml":    errors.KindRequired,
	}
	for i, e := range report.Errors {
		if i > 0 && report.Errors[i-1].Path > e.Path {
			t.Error("errors should be sorted by path")
		}
		name := filepath.Base(e.Path)
		if want, ok := wantKinds[name]; !ok || e.Kind() != want {
			t.Errorf("%s: kind = %v, want %v", name, e.Kind(), want)
		}
	}

	for _, id := range []string{"NCT00000001", "NCT00000002", "NCT00000003"} {
		data, err := os.ReadFile(filepath.Join(out, id+".json"))
		if err != nil {
			t.Errorf("artifact for %s: %v", id, err)
			continue
		}
		var s study.Study
		if err := json.Unmarshal(data, &s); err != nil || s.NCTID != id {
			t.Errorf("artifact for %s decoded as %q (%v)", id, s.NCTID, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "noid.json")); !os.IsNotExist(err) {
		t.Error("failed document must not produce an artifact")
	}

	if got := testutil.ToFloat64(m.Documents.WithLabelValues(metrics.ResultWritten)); got != 3 {
		t.Errorf("written metric = %v", got)
	}
	if got := testutil.ToFloat64(m.Documents.WithLabelValues(metrics.ResultFailed)); got != 4 {
		t.Errorf("failed metric = %v", got)
	}
}

func TestBatchSkipExisting(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	source := tu.WriteFile(t, src, "NCT00000001.xml", tu.StudyXML("NCT00000001"))
	existing := tu.WriteFile(t, out, "NCT00000001.json", "{}\n")

	b := NewBatch(defaultSchema(t), Options{OutDir: out, SkipExisting: true, Logger: logging.Nop()})
	report, err := b.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Skipped != 1 || report.Written != 0 {
		t.Errorf("report = %+v", report)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "{}\n" {
		t.Error("existing artifact was overwritten")
	}

	b = NewBatch(defaultSchema(t), Options{OutDir: out, Logger: logging.Nop()})
	report, err = b.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Written != 1 {
		t.Errorf("without skip-existing Written = %d, want 1", report.Written)
	}
}

func TestBatchCancelledBeforeStart(t *testing.T) {
	src := t.TempDir()
	sources := writeSources(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch(defaultSchema(t), Options{OutDir: t.TempDir(), Logger: logging.Nop()})
	report, err := b.Run(ctx, sources)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Cancelled {
		t.Error("expected cancelled report")
	}
	if report.Written != 0 || len(report.Errors) != 0 {
		t.Errorf("nothing should be processed: %+v", report)
	}
}

func TestBatchUnwritableOutDir(t *testing.T) {
	file := tu.WriteFile(t, t.TempDir(), "occupied", "x")

	b := NewBatch(defaultSchema(t), Options{OutDir: filepath.Join(file, "sub"), Logger: logging.Nop()})
	if _, err := b.Run(context.Background(), nil); !errors.IsKind(err, errors.KindIO) {
		t.Errorf("kind = %v, want io", errors.GetKind(err))
	}
}
