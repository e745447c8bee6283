package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/pipeline"
	"github.com/nishad/ctrake/internal/schema"
	"github.com/nishad/ctrake/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert study XML into canonical JSON",
	Long: `Convert ClinicalTrials.gov study XML files into canonical JSON records.

Each document is validated against the study schema, decoded into typed
values, enriched with a token blob and normalized dates, and written to
<outdir>/<name>.json. A failing document is reported and skipped; the rest
of the batch continues.`,
	Example: `  # Convert a single file
  ctrake convert --file NCT00000102.xml

  # Convert a directory tree with 8 workers
  ctrake convert --dir ./xml --outdir ./json --workers 8

  # Resume an interrupted run
  ctrake convert --dir ./xml --skip-existing`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

var (
	convertFiles        []string
	convertDir          string
	convertOutDir       string
	convertSchema       string
	convertSkipExisting bool
	convertWorkers      int
)

func init() {
	convertCmd.Flags().StringArrayVarP(&convertFiles, "file", "f", nil, "XML file to convert (repeatable)")
	convertCmd.Flags().StringVarP(&convertDir, "dir", "d", "", "Directory searched recursively for *.xml")
	convertCmd.Flags().StringVarP(&convertOutDir, "outdir", "o", "", "Output directory (default from config)")
	convertCmd.Flags().StringVar(&convertSchema, "schema", "", "XSD schema file (default: bundled schema)")
	convertCmd.Flags().BoolVar(&convertSkipExisting, "skip-existing", false, "Leave existing JSON files untouched")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", 0, "Parallel workers (default from config)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	sources, err := collectSources(convertFiles, convertDir, ".xml")
	if err != nil {
		return err
	}

	s, err := schema.Load(firstNonEmpty(convertSchema, cfg.Convert.SchemaPath))
	if err != nil {
		printError("Failed to load schema: %v", err)
		return err
	}

	outDir := firstNonEmpty(convertOutDir, cfg.Convert.OutDir)
	workers := cfg.Convert.Workers
	if convertWorkers > 0 {
		workers = convertWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner := ui.NewSpinner(fmt.Sprintf("Converting %d documents", len(sources)))
	if !quiet {
		spinner.Start()
	}

	batch := pipeline.NewBatch(s, pipeline.Options{
		Workers:      workers,
		OutDir:       outDir,
		SkipExisting: convertSkipExisting || cfg.Convert.SkipExisting,
		Logger:       logger,
		Progress:     spinner.Progress("Converting"),
	})
	report, err := batch.Run(ctx, sources)
	spinner.Stop("")
	if err != nil {
		printError("%v", err)
		return err
	}

	if report.Cancelled {
		printWarning("Interrupted, remaining documents were not converted")
	}
	if report.Skipped > 0 {
		printInfo("Skipped %d existing", report.Skipped)
	}
	printInfo("Done, wrote %d to %q.", report.Written, outDir)
	printErrors(report.Errors)
	return nil
}

// collectSources merges explicit files with those discovered under dir.
func collectSources(files []string, dir, ext string) ([]string, error) {
	sources := append([]string(nil), files...)
	if dir != "" {
		found, err := pipeline.Discover(dir, ext)
		if err != nil {
			printError("Failed to scan %s: %v", dir, err)
			return nil, err
		}
		sources = append(sources, found...)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no input: pass --file or --dir")
	}
	return sources, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
