package main

import (
	"fmt"
	"os"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/search"
)

// Color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Check if output is to terminal
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Apply color if terminal output and color enabled
func colorize(color, text string) string {
	if !noColor && isTerminal() && os.Getenv("NO_COLOR") == "" {
		return color + text + colorReset
	}
	return text
}

// Print error message in user-friendly format
func printError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorRed, "✗"), msg)
}

// Print success message
func printSuccess(format string, args ...interface{}) {
	if !quiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Printf("%s %s\n", colorize(colorGreen, "✓"), msg)
	}
}

// Print info message
func printInfo(format string, args ...interface{}) {
	if !quiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Printf("%s\n", colorize(colorCyan, msg))
	}
}

// Print warning message
func printWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorYellow, "⚠"), msg)
}

// Print debug message
func printDebug(format string, args ...interface{}) {
	if debug {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(os.Stderr, "%s %s\n", colorize(colorGray, "[DEBUG]"), msg)
	}
}

// printErrors writes the per-document error block to stderr.
func printErrors(errs []*errors.DocumentError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", colorize(colorRed, fmt.Sprintf("%d ERRORS:", len(errs))))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  %s [%s]\n", e.Error(), e.Kind())
	}
}

// openDatabase opens the configured database, failing when it does not
// exist yet unless create is set.
func openDatabase(create bool) (*database.DB, error) {
	path := cfg.Database.Path
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			printError("Database not found at %s", path)
			fmt.Fprintf(os.Stderr, "\nLoad some studies first:\n")
			fmt.Fprintf(os.Stderr, "  ctrake load --dir ./json\n")
			return nil, fmt.Errorf("database not found")
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	db, err := database.Initialize(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openIndex opens the configured keyword index, or returns nil when
// search is disabled.
func openIndex() (*search.BleveIndex, error) {
	if !cfg.IsSearchEnabled() {
		return nil, nil
	}
	index, err := search.InitBleveIndex(cfg.Search.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return index, nil
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
