package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/loader"
	"github.com/nishad/ctrake/internal/ui"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load converted JSON records into the database",
	Long: `Load canonical study JSON records into the SQLite database and the
keyword index. Each record is upserted by NCT id in its own transaction, so
reloading a directory replaces studies in place.`,
	Example: `  ctrake load --dir ./json
  ctrake load --file json/NCT00000102.json --db /tmp/trials.db`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

var (
	loadFiles []string
	loadDir   string
	loadDB    string
)

func init() {
	loadCmd.Flags().StringArrayVarP(&loadFiles, "file", "f", nil, "JSON record to load (repeatable)")
	loadCmd.Flags().StringVarP(&loadDir, "dir", "d", "", "Directory searched recursively for *.json")
	loadCmd.Flags().StringVar(&loadDB, "db", "", "Database path (default from config)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadDB != "" {
		cfg.Database.Path = loadDB
	}

	sources, err := collectSources(loadFiles, loadDir, ".json")
	if err != nil {
		return err
	}

	db, err := openDatabase(true)
	if err != nil {
		return err
	}
	defer db.Close()

	index, err := openIndex()
	if err != nil {
		return err
	}
	if index != nil {
		defer func() { errors.IgnoreError(index.Close(), "closing index after load") }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner := ui.NewSpinner(fmt.Sprintf("Loading %d records", len(sources)))
	if !quiet {
		spinner.Start()
	}

	l := loader.New(db, index, loader.Options{
		Logger:   logger,
		Progress: spinner.Progress("Loading"),
	})
	report, err := l.Run(ctx, sources)
	spinner.Stop("")
	if err != nil {
		printError("%v", err)
		return err
	}

	if report.Cancelled {
		printWarning("Interrupted, remaining records were not loaded")
	}
	printSuccess("Loaded %d studies into %s", report.Loaded, cfg.Database.Path)
	printErrors(report.Errors)
	return nil
}
