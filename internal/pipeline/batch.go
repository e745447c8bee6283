package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/schema"
)

// DefaultOutDir is where artifacts go when no directory is configured.
const DefaultOutDir = "json"

// ProgressFunc is called after each document finishes, from the single
// collecting goroutine.
type ProgressFunc func(done, total int, source string)

// Options configures a batch run.
type Options struct {
	Workers      int    // defaults to runtime.NumCPU()
	OutDir       string // defaults to DefaultOutDir
	SkipExisting bool   // leave existing artifacts untouched

	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Progress ProgressFunc
}

// Report summarizes a batch run. Errors are sorted by source path.
type Report struct {
	Written   int
	Skipped   int
	Errors    []*errors.DocumentError
	Cancelled bool
	Duration  time.Duration
}

// Batch converts many documents with one shared schema.
type Batch struct {
	schema *schema.Schema
	opts   Options
}

// NewBatch creates a batch runner.
func NewBatch(s *schema.Schema, opts Options) *Batch {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}
	return &Batch{schema: s, opts: opts}
}

type outcome int

const (
	outcomeWritten outcome = iota
	outcomeSkipped
	outcomeFailed
)

type result struct {
	source  string
	outcome outcome
	err     error
}

// Run transforms every file in sources. Per-document failures are
// collected in the report; the returned error is reserved for setup
// failures such as an unwritable output directory. Cancelling ctx stops
// new documents from being submitted while in-flight ones finish.
func (b *Batch) Run(ctx context.Context, sources []string) (*Report, error) {
	const op = errors.Op("pipeline.Batch.Run")
	start := time.Now()

	if err := os.MkdirAll(b.opts.OutDir, 0755); err != nil {
		return nil, errors.E(op, errors.KindIO, err, "creating output directory")
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < b.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				results <- b.process(source)
			}
		}()
	}

	cancelled := make(chan bool, 1)
	go func() {
		defer close(jobs)
		for _, source := range sources {
			if ctx.Err() != nil {
				cancelled <- true
				return
			}
			select {
			case <-ctx.Done():
				cancelled <- true
				return
			case jobs <- source:
			}
		}
		cancelled <- false
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	var errs errors.List
	done := 0
	for r := range results {
		done++
		switch r.outcome {
		case outcomeWritten:
			report.Written++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			errs.Add(r.source, r.err)
			b.opts.Logger.Warn().
				Err(r.err).
				Str("source", r.source).
				Str("kind", errors.GetKind(r.err).String()).
				Msg("document skipped")
		}
		if b.opts.Progress != nil {
			b.opts.Progress(done, len(sources), r.source)
		}
	}

	report.Cancelled = <-cancelled
	report.Errors = errs.Errors()
	report.Duration = time.Since(start)

	b.opts.Logger.Info().
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Bool("cancelled", report.Cancelled).
		Dur("duration", report.Duration).
		Str("outdir", b.opts.OutDir).
		Msg("conversion finished")

	return report, nil
}

func (b *Batch) process(source string) result {
	const op = errors.Op("pipeline.process")
	start := time.Now()

	r := b.convert(op, source)

	if m := b.opts.Metrics; m != nil {
		switch r.outcome {
		case outcomeWritten:
			m.Documents.WithLabelValues(metrics.ResultWritten).Inc()
			m.DocumentDuration.Observe(time.Since(start).Seconds())
		case outcomeSkipped:
			m.Documents.WithLabelValues(metrics.ResultSkipped).Inc()
		case outcomeFailed:
			m.Documents.WithLabelValues(metrics.ResultFailed).Inc()
		}
	}
	return r
}

func (b *Batch) convert(op errors.Op, source string) result {
	dest := filepath.Join(b.opts.OutDir, ArtifactName(source))

	if b.opts.SkipExisting {
		if _, err := os.Stat(dest); err == nil {
			return result{source: source, outcome: outcomeSkipped}
		}
	}

	doc, err := os.ReadFile(source)
	if err != nil {
		return result{source: source, outcome: outcomeFailed, err: errors.E(op, errors.KindIO, err)}
	}

	rec, err := Transform(b.schema, doc)
	if err != nil {
		return result{source: source, outcome: outcomeFailed, err: err}
	}

	if err := WriteArtifact(dest, rec); err != nil {
		return result{source: source, outcome: outcomeFailed, err: err}
	}
	return result{source: source, outcome: outcomeWritten}
}
