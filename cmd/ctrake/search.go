package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/search"
	"github.com/nishad/ctrake/internal/service"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search loaded studies",
	Long: `Search loaded studies by keyword, condition and sponsor.

Terms are matched against the study token blob. Separate alternatives with
"or" (or |); terms within an alternative must all match. Condition and
sponsor ids narrow the result further.`,
	Example: `  ctrake search asthma
  ctrake search "asthma or copd" --sponsors 3
  ctrake search --conditions 1,2 --format csv --output hits.csv
  ctrake search --detailed-desc metformin --format jsonl`,
	RunE: runSearch,
}

var (
	searchDetailed   string
	searchConditions string
	searchSponsors   string
	searchLimit      int
	searchOffset     int
	searchFormat     string
	searchOutput     string
)

func init() {
	searchCmd.Flags().StringVar(&searchDetailed, "detailed-desc", "", "Match against the detailed description only")
	searchCmd.Flags().StringVar(&searchConditions, "conditions", "", "Comma-separated condition ids")
	searchCmd.Flags().StringVar(&searchSponsors, "sponsors", "", "Comma-separated sponsor ids")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 100, "Maximum results to return (0 for all)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Number of results to skip")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "Output format (table|json|jsonl|csv|tsv)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "Save results to file instead of stdout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	req := &service.SearchRequest{
		Text:         strings.Join(args, " "),
		DetailedDesc: searchDetailed,
		Limit:        searchLimit,
		Offset:       searchOffset,
	}
	var err error
	if req.ConditionIDs, err = splitIDs(searchConditions); err != nil {
		return err
	}
	if req.SponsorIDs, err = splitIDs(searchSponsors); err != nil {
		return err
	}
	if req.Empty() {
		return fmt.Errorf("nothing to search for: give terms, --detailed-desc, --conditions or --sponsors")
	}

	db, err := openDatabase(false)
	if err != nil {
		return err
	}
	defer db.Close()

	index, err := search.InitBleveIndex(cfg.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	defer index.Close()

	results, err := service.NewSearchService(db, index).Search(cmd.Context(), req)
	if err != nil {
		printError("Search failed: %v", err)
		return err
	}

	var out io.Writer = os.Stdout
	if searchOutput != "" {
		f, err := os.Create(searchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if searchFormat == "table" {
		printTable(out, results)
	} else if err := service.Export(out, searchFormat, results); err != nil {
		return err
	}

	if searchOutput != "" {
		printSuccess("Wrote %d results to %s", len(results), searchOutput)
	}
	return nil
}

func printTable(out io.Writer, results []database.StudySummary) {
	if len(results) == 0 {
		printInfo("No matching studies")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, colorize(colorBold, "NCT ID\tTITLE"))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\n", r.NCTID, truncate(r.Title, 80))
	}
	w.Flush()
	printInfo("\n%d studies", len(results))
}

func splitIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
