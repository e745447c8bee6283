// Package paths resolves ctrake's config, data and cache directories
// following the XDG base directory layout.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "ctrake"

type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// GetPaths returns all base paths respecting environment variables
func GetPaths() Paths {
	return Paths{
		ConfigDir: getDir("CTRAKE_CONFIG_HOME", "XDG_CONFIG_HOME", ".config"),
		DataDir:   getDir("CTRAKE_DATA_HOME", "XDG_DATA_HOME", ".local/share"),
		CacheDir:  getDir("CTRAKE_CACHE_HOME", "XDG_CACHE_HOME", ".cache"),
	}
}

func getDir(appEnv, xdgEnv, defaultBase string) string {
	if dir := os.Getenv(appEnv); dir != "" {
		return dir
	}

	if xdgBase := os.Getenv(xdgEnv); xdgBase != "" {
		return filepath.Join(xdgBase, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultBase, appName)
}

// GetDatabasePath returns the path to the database
func GetDatabasePath() string {
	if path := os.Getenv("CTRAKE_DB_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().DataDir, appName+".db")
}

// GetIndexPath returns the path to the search index
// Default: adjacent to database for easy backup/migration
func GetIndexPath() string {
	if path := os.Getenv("CTRAKE_INDEX_PATH"); path != "" {
		return path
	}
	return IndexPathFor(GetDatabasePath())
}

// IndexPathFor places the index next to dbPath: /data/ctrake.db becomes
// /data/ctrake.bleve.
func IndexPathFor(dbPath string) string {
	dir := filepath.Dir(dbPath)
	name := filepath.Base(dbPath)
	return filepath.Join(dir, name[:len(name)-len(filepath.Ext(name))]+".bleve")
}

// GetConfigFile returns the default config file location.
func GetConfigFile() string {
	return filepath.Join(GetPaths().ConfigDir, "config.yaml")
}

// EnsureDirectories creates all necessary directories
func EnsureDirectories() error {
	p := GetPaths()
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
