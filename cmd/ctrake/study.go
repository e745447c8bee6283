package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/service"
)

var studyCmd = &cobra.Command{
	Use:   "study <nct_id>",
	Short: "Show one loaded study",
	Long:  `Display a loaded study with its sponsors, conditions, interventions, documents and outcomes.`,
	Example: `  ctrake study NCT00000102
  ctrake study NCT00000102 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStudy,
}

var studyFormat string

func init() {
	studyCmd.Flags().StringVarP(&studyFormat, "format", "f", "table", "Output format (table|json|yaml)")
}

func runStudy(cmd *cobra.Command, args []string) error {
	db, err := openDatabase(false)
	if err != nil {
		return err
	}
	defer db.Close()

	detail, err := service.NewMetadataService(db).GetStudy(cmd.Context(), args[0])
	if err != nil {
		if errors.IsKind(err, errors.KindNotFound) {
			printError("No study %s", args[0])
		}
		return err
	}

	switch studyFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	case "yaml":
		// Round-trip through JSON so yaml.v3 sees the same field names.
		raw, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "table":
		printStudy(detail)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", studyFormat)
	}
}

func printStudy(d *service.StudyDetail) {
	field := func(name, value string) {
		if value != "" {
			fmt.Printf("  %-22s %s\n", name+":", value)
		}
	}

	fmt.Printf("%s  %s\n", colorize(colorBold, d.NCTID), d.BriefTitle)
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))
	field("Official title", d.OfficialTitle)
	field("Phase", d.Phase)
	field("Status", d.OverallStatus)
	field("Study type", d.StudyType)
	field("Start date", d.StartDate)
	field("Completion date", d.CompletionDate)
	if d.Enrollment != nil {
		field("Enrollment", strings.TrimSpace(fmt.Sprintf("%d %s", *d.Enrollment, d.EnrollmentType)))
	}
	field("Keywords", d.Keywords)

	names := make([]string, 0, len(d.Sponsors))
	for _, s := range d.Sponsors {
		names = append(names, s.SponsorName)
	}
	field("Sponsors", strings.Join(names, "; "))

	names = names[:0]
	for _, c := range d.Conditions {
		names = append(names, c.Condition)
	}
	field("Conditions", strings.Join(names, "; "))

	names = names[:0]
	for _, i := range d.Interventions {
		names = append(names, i.Intervention)
	}
	field("Interventions", strings.Join(names, "; "))

	if len(d.Outcomes) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Outcomes:"))
		for _, o := range d.Outcomes {
			fmt.Printf("  [%s] %s (%s)\n", o.OutcomeType, o.Measure, o.TimeFrame)
		}
	}
}
