package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nishad/ctrake/internal/config"
	"github.com/nishad/ctrake/internal/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ctrake configuration",
	Long:  `Manage ctrake configuration including paths and settings.`,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show all active paths",
	Long: `Display all paths used by ctrake including configuration, data and cache
directories. Also shows any environment variable overrides.`,
	Args: cobra.NoArgs,
	RunE: runConfigPaths,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: defaults, overlaid by the config
file, overlaid by CTRAKE_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long: `Create a default configuration file in the appropriate location.

If a config file already exists, use --force to overwrite it.`,
	Example: `  # Create default config
  ctrake config init

  # Force overwrite existing config
  ctrake config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing configuration")

	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	p := paths.GetPaths()

	printInfo("ctrake paths")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))

	fmt.Printf("%s\n", colorize(colorBold, "Base Directories:"))
	fmt.Printf("  Config:   %s\n", colorize(colorCyan, p.ConfigDir))
	fmt.Printf("  Data:     %s\n", colorize(colorCyan, p.DataDir))
	fmt.Printf("  Cache:    %s\n", colorize(colorCyan, p.CacheDir))

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Specific Paths:"))
	fmt.Printf("  Database:  %s\n", colorize(colorCyan, cfg.Database.Path))
	fmt.Printf("  Index:     %s\n", colorize(colorCyan, cfg.Search.IndexPath))
	fmt.Printf("  Output:    %s\n", colorize(colorCyan, cfg.Convert.OutDir))

	envVars := []struct {
		name string
		desc string
	}{
		{"CTRAKE_CONFIG", "Override config file"},
		{"CTRAKE_CONFIG_HOME", "Override config directory"},
		{"CTRAKE_DATA_HOME", "Override data directory"},
		{"CTRAKE_CACHE_HOME", "Override cache directory"},
		{"CTRAKE_DB_PATH", "Override database path"},
		{"CTRAKE_INDEX_PATH", "Override index path"},
	}

	hasEnv := false
	for _, env := range envVars {
		if os.Getenv(env.name) != "" {
			hasEnv = true
			break
		}
	}

	if hasEnv {
		fmt.Println()
		fmt.Printf("%s\n", colorize(colorBold, "Environment Variables:"))
		for _, env := range envVars {
			if val := os.Getenv(env.name); val != "" {
				fmt.Printf("  %s = %s\n",
					colorize(colorYellow, env.name),
					colorize(colorCyan, val))
				if verbose {
					fmt.Printf("    %s\n", colorize(colorGray, env.desc))
				}
			}
		}
	}

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Path Status:"))

	pathChecks := []struct {
		name string
		path string
	}{
		{"Config", configPath},
		{"Data Dir", p.DataDir},
		{"Database", cfg.Database.Path},
		{"Index", cfg.Search.IndexPath},
	}

	for _, check := range pathChecks {
		if _, err := os.Stat(check.path); err == nil {
			fmt.Printf("  %-12s %s\n", check.name+":", colorize(colorGreen, "✓ exists"))
		} else {
			fmt.Printf("  %-12s %s\n", check.name+":", colorize(colorGray, "✗ not found"))
		}
	}

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	printInfo("Configuration")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))

	fmt.Printf("%s %s\n", colorize(colorBold, "Config File:"), configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Println(colorize(colorYellow, "  (using defaults - no config file found)"))
	}
	fmt.Println()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		switch {
		case strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " "):
			fmt.Println(colorize(colorBold, line))
		case strings.Contains(line, ": "):
			parts := strings.SplitN(line, ": ", 2)
			fmt.Printf("%s: %s\n", parts[0], colorize(colorCyan, parts[1]))
		default:
			fmt.Println(line)
		}
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !configForce {
		printError("Config file already exists at %s", configPath)
		fmt.Fprintf(os.Stderr, "Use --force to overwrite\n")
		return fmt.Errorf("config exists")
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	printSuccess("Created config at %s", configPath)
	return nil
}
