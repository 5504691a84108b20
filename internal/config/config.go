// Package config loads and saves kinetic.json, the project configuration
// consumed by the kinetic CLI.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kinetic-dev/kinetic/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "kinetic.json"

	// DefaultHistoryCapacity bounds each instance's undo and redo stacks.
	DefaultHistoryCapacity = 64

	// DefaultInspectorAddr is where the inspector HTTP server listens.
	DefaultInspectorAddr = "localhost:7411"

	// DefaultMetricsNamespace prefixes the Prometheus collectors.
	DefaultMetricsNamespace = "kinetic"

	// DefaultSnapshotDir is where disk snapshots are written.
	DefaultSnapshotDir = "snapshots"
)

// Config represents the complete kinetic.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// HistoryCapacity bounds the per-instance undo/redo stacks.
	HistoryCapacity int `json:"historyCapacity,omitempty"`

	// Inspector contains inspector HTTP server configuration.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Snapshots contains snapshot persistence configuration.
	Snapshots SnapshotConfig `json:"snapshots,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains inspector HTTP server settings.
type InspectorConfig struct {
	// Addr is the listen address (host:port).
	Addr string `json:"addr,omitempty"`

	// Enabled turns the inspector on for `kinetic serve`.
	Enabled bool `json:"enabled,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every collector name.
	Namespace string `json:"namespace,omitempty"`

	// Enabled registers the collectors on the default registry.
	Enabled bool `json:"enabled,omitempty"`
}

// SnapshotConfig contains snapshot persistence settings.
type SnapshotConfig struct {
	// Dir is the local snapshot directory.
	Dir string `json:"dir,omitempty"`

	// S3Bucket, when set, selects the S3 backend instead of disk.
	S3Bucket string `json:"s3Bucket,omitempty"`

	// S3Prefix is the object key prefix for the S3 backend.
	S3Prefix string `json:"s3Prefix,omitempty"`
}

// New returns a configuration with all defaults applied.
func New() *Config {
	return &Config{
		HistoryCapacity: DefaultHistoryCapacity,
		Inspector: InspectorConfig{
			Addr:    DefaultInspectorAddr,
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
			Enabled:   true,
		},
		Snapshots: SnapshotConfig{
			Dir: DefaultSnapshotDir,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// kinetic.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("K101").
				WithDetail("No kinetic.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'kinetic init' or create kinetic.json manually")
		}
		return nil, errors.New("K100").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("K100").
			WithDetail("Failed to parse kinetic.json: " + err.Error()).
			WithSuggestion("Check that kinetic.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("K102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("K102").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SnapshotPath returns the absolute path to the snapshot directory.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshots.Dir) {
		return c.Snapshots.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshots.Dir)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Snapshots.Dir == "" {
		c.Snapshots.Dir = DefaultSnapshotDir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HistoryCapacity < 0 {
		return errors.New("K111").
			WithDetail("History capacity must be non-negative")
	}
	return nil
}
