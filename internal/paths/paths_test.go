package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPaths(t *testing.T) {
	p := GetPaths()

	if p.ConfigDir == "" {
		t.Error("ConfigDir should not be empty")
	}
	if p.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if p.CacheDir == "" {
		t.Error("CacheDir should not be empty")
	}

	if !strings.Contains(p.ConfigDir, "ctrake") {
		t.Errorf("ConfigDir should contain 'ctrake', got %q", p.ConfigDir)
	}
	if !strings.Contains(p.DataDir, "ctrake") {
		t.Errorf("DataDir should contain 'ctrake', got %q", p.DataDir)
	}
}

func TestGetPathsWithAppEnv(t *testing.T) {
	t.Setenv("CTRAKE_CONFIG_HOME", "/custom/config")
	t.Setenv("CTRAKE_DATA_HOME", "/custom/data")
	t.Setenv("CTRAKE_CACHE_HOME", "/custom/cache")

	p := GetPaths()

	if p.ConfigDir != "/custom/config" {
		t.Errorf("expected ConfigDir '/custom/config', got %q", p.ConfigDir)
	}
	if p.DataDir != "/custom/data" {
		t.Errorf("expected DataDir '/custom/data', got %q", p.DataDir)
	}
	if p.CacheDir != "/custom/cache" {
		t.Errorf("expected CacheDir '/custom/cache', got %q", p.CacheDir)
	}
}

func TestGetPathsWithXDGEnv(t *testing.T) {
	t.Setenv("CTRAKE_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")

	p := GetPaths()
	if p.ConfigDir != "/xdg/config/ctrake" {
		t.Errorf("expected ConfigDir '/xdg/config/ctrake', got %q", p.ConfigDir)
	}
}

func TestGetDatabasePath(t *testing.T) {
	t.Setenv("CTRAKE_DB_PATH", "")
	path := GetDatabasePath()
	if !strings.HasSuffix(path, "ctrake.db") {
		t.Errorf("expected path to end with 'ctrake.db', got %q", path)
	}
}

func TestGetDatabasePathWithEnv(t *testing.T) {
	t.Setenv("CTRAKE_DB_PATH", "/custom/path/custom.db")
	path := GetDatabasePath()
	if path != "/custom/path/custom.db" {
		t.Errorf("expected '/custom/path/custom.db', got %q", path)
	}
}

func TestGetIndexPath(t *testing.T) {
	t.Setenv("CTRAKE_INDEX_PATH", "")
	t.Setenv("CTRAKE_DB_PATH", "/data/trials.db")
	if path := GetIndexPath(); path != "/data/trials.bleve" {
		t.Errorf("expected index next to database, got %q", path)
	}
}

func TestGetIndexPathWithEnv(t *testing.T) {
	t.Setenv("CTRAKE_INDEX_PATH", "/custom/path/custom.bleve")
	path := GetIndexPath()
	if path != "/custom/path/custom.bleve" {
		t.Errorf("expected '/custom/path/custom.bleve', got %q", path)
	}
}

func TestIndexPathFor(t *testing.T) {
	tests := []struct {
		db   string
		want string
	}{
		{"/data/ctrake.db", "/data/ctrake.bleve"},
		{"/data/noext", "/data/noext.bleve"},
		{"rel/a.b.sqlite", "rel/a.b.bleve"},
	}
	for _, tt := range tests {
		if got := IndexPathFor(tt.db); got != tt.want {
			t.Errorf("IndexPathFor(%q) = %q, want %q", tt.db, got, tt.want)
		}
	}
}

func TestGetConfigFile(t *testing.T) {
	t.Setenv("CTRAKE_CONFIG_HOME", "/cfg")
	if got := GetConfigFile(); got != "/cfg/config.yaml" {
		t.Errorf("GetConfigFile() = %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CTRAKE_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("CTRAKE_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("CTRAKE_CACHE_HOME", filepath.Join(tmp, "cache"))

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error: %v", err)
	}

	for _, dir := range []string{"config", "data", "cache"} {
		info, err := os.Stat(filepath.Join(tmp, dir))
		if err != nil {
			t.Errorf("directory %q not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%q is not a directory", dir)
		}
	}
}
