package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nishad/ctrake/internal/paths"
)

// EnvPrefix prefixes every environment override, e.g. CTRAKE_SERVER_PORT.
const EnvPrefix = "CTRAKE"

// Config represents the ctrake configuration
type Config struct {
	DataDirectory string         `yaml:"data_directory" mapstructure:"data_directory"`
	Database      DatabaseConfig `yaml:"database" mapstructure:"database"`
	Search        SearchConfig   `yaml:"search" mapstructure:"search"`
	Server        ServerConfig   `yaml:"server" mapstructure:"server"`
	Convert       ConvertConfig  `yaml:"convert" mapstructure:"convert"`
	Log           LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig contains SQLite database settings
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SearchConfig contains search-related settings
type SearchConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`       // maintain the Bleve index on load
	IndexPath string `yaml:"index_path" mapstructure:"index_path"` // Path to Bleve index
}

type ServerConfig struct {
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	EnableCORS bool   `yaml:"enable_cors" mapstructure:"enable_cors"`
}

// ConvertConfig holds defaults for the XML to JSON conversion.
type ConvertConfig struct {
	OutDir       string `yaml:"out_dir" mapstructure:"out_dir"`
	Workers      int    `yaml:"workers" mapstructure:"workers"`
	SkipExisting bool   `yaml:"skip_existing" mapstructure:"skip_existing"`
	SchemaPath   string `yaml:"schema_path" mapstructure:"schema_path"` // empty uses the bundled schema
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	p := paths.GetPaths()

	return &Config{
		DataDirectory: p.DataDir,
		Database: DatabaseConfig{
			Path: paths.GetDatabasePath(),
		},
		Search: SearchConfig{
			Enabled:   true,
			IndexPath: paths.GetIndexPath(),
		},
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8080,
			EnableCORS: true,
		},
		Convert: ConvertConfig{
			OutDir:  "json",
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults and
// under CTRAKE_* environment variables. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config.DataDirectory = expandPath(config.DataDirectory)
	config.Database.Path = expandPath(config.Database.Path)
	config.Search.IndexPath = expandPath(config.Search.IndexPath)
	config.Convert.OutDir = expandPath(config.Convert.OutDir)
	config.Convert.SchemaPath = expandPath(config.Convert.SchemaPath)

	if config.Convert.Workers < 1 {
		config.Convert.Workers = 1
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_directory", d.DataDirectory)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("search.enabled", d.Search.Enabled)
	v.SetDefault("search.index_path", d.Search.IndexPath)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.enable_cors", d.Server.EnableCORS)
	v.SetDefault("convert.out_dir", d.Convert.OutDir)
	v.SetDefault("convert.workers", d.Convert.Workers)
	v.SetDefault("convert.skip_existing", d.Convert.SkipExisting)
	v.SetDefault("convert.schema_path", d.Convert.SchemaPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if path := os.Getenv("CTRAKE_CONFIG"); path != "" {
		return path
	}

	if _, err := os.Stat("ctrake.yaml"); err == nil {
		return "ctrake.yaml"
	}

	return paths.GetConfigFile()
}

// EnsureDirectories creates necessary directories
func (c *Config) EnsureDirectories() error {
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	dirs := []string{
		c.DataDirectory,
		filepath.Dir(c.Database.Path),
	}
	if c.Search.Enabled {
		dirs = append(dirs, filepath.Dir(c.Search.IndexPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}

	return path
}

// IsSearchEnabled returns true if search is enabled
func (c *Config) IsSearchEnabled() bool {
	return c.Search.Enabled
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
