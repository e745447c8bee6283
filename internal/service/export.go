package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nishad/ctrake/internal/database"
)

// Export formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
)

// CSVHeader is the column order of CSV and TSV exports.
var CSVHeader = []string{"study_id", "nct_id", "brief_title", "detailed_description"}

// Export writes results to writer in the named format.
func Export(writer io.Writer, format string, results []database.StudySummary) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return exportJSON(results, writer)
	case FormatJSONL, "ndjson":
		return exportJSONLines(results, writer)
	case FormatCSV:
		return exportDelimited(results, writer, ',')
	case FormatTSV:
		return exportDelimited(results, writer, '\t')
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportCSV writes results as CSV with CSVHeader.
func ExportCSV(writer io.Writer, results []database.StudySummary) error {
	return exportDelimited(results, writer, ',')
}

func exportJSON(results []database.StudySummary, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// exportJSONLines exports results as newline-delimited JSON
func exportJSONLines(results []database.StudySummary, writer io.Writer) error {
	encoder := json.NewEncoder(writer)

	for _, hit := range results {
		if err := encoder.Encode(hit); err != nil {
			return err
		}
	}

	return nil
}

func exportDelimited(results []database.StudySummary, writer io.Writer, comma rune) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = comma

	if err := csvWriter.Write(CSVHeader); err != nil {
		return err
	}

	for _, s := range results {
		row := []string{strconv.FormatInt(s.StudyID, 10), s.NCTID, s.Title, s.DetailedDescription}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
