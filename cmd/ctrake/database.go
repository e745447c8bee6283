package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/database"
)

var dbCmd = &cobra.Command{
	Use:     "db",
	Short:   "Database management",
	Long:    `Inspect the local ctrake study database.`,
	Example: `  ctrake db info`,
}

// Database info subcommand
var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database statistics",
	Long:  `Display the database location, size and row counts of the entity tables.`,
	Args:  cobra.NoArgs,
	RunE:  runDBInfo,
}

func init() {
	dbCmd.AddCommand(dbInfoCmd)
}

func runDBInfo(cmd *cobra.Command, args []string) error {
	db, err := openDatabase(false)
	if err != nil {
		return err
	}
	defer db.Close()

	info, err := db.GetInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	printDatabaseInfo(info)

	if cfg.IsSearchEnabled() {
		index, err := openIndex()
		if err != nil {
			printWarning("Search index unavailable: %v", err)
			return nil
		}
		defer index.Close()
		if n, err := index.GetDocCount(); err == nil {
			fmt.Printf("  %-15s %s\n", "Indexed:", colorize(colorCyan, fmt.Sprintf("%d", n)))
		}
	}
	return nil
}

func printDatabaseInfo(info *database.DatabaseInfo) {
	printInfo("ctrake database")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))
	fmt.Printf("  %-15s %s\n", "Path:", info.Path)
	fmt.Printf("  %-15s %s\n", "Size:", formatBytes(info.Size))
	fmt.Println()

	rows := []struct {
		name  string
		count int64
	}{
		{"Studies:", info.Studies},
		{"Conditions:", info.Conditions},
		{"Sponsors:", info.Sponsors},
		{"Interventions:", info.Interventions},
		{"Keywords:", info.Keywords},
	}
	for _, r := range rows {
		fmt.Printf("  %-15s %s\n", r.name, colorize(colorCyan, fmt.Sprintf("%d", r.count)))
	}
}
