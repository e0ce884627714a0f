// Package config loads the survey configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/corey/survey/internal/domain/survey"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name, looked up in the data root.
const FileName = "survey.yaml"

// Config holds all survey configuration.
type Config struct {
	// Item pool layout
	Survey SurveyConfig `yaml:"survey"`

	// Collection endpoint (allocation + submission)
	Endpoint EndpointConfig `yaml:"endpoint"`

	// Image assets
	Assets AssetsConfig `yaml:"assets"`

	// Local storage
	Storage StorageConfig `yaml:"storage"`

	// Collection server (`survey serve`)
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SurveyConfig sizes the item pool. PoolSize must equal
// GroupSize × TotalGroups.
type SurveyConfig struct {
	PoolSize    int `yaml:"pool_size"`
	GroupSize   int `yaml:"group_size"`
	TotalGroups int `yaml:"total_groups"`
}

// EndpointConfig configures the remote collection endpoint. An empty URL
// selects random group assignment and log-only submission.
type EndpointConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// AssetsConfig configures the image locator.
type AssetsConfig struct {
	BaseURL string `yaml:"base_url"`
	Width   int    `yaml:"width"`
	Ext     string `yaml:"ext"`
}

// StorageConfig configures where the .survey directory lives.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"` // empty = user home
}

// ServerConfig configures the collection server.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"` // empty = bbolt sink
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration of the deployed instrument.
func Default() *Config {
	return &Config{
		Survey: SurveyConfig{
			PoolSize:    500,
			GroupSize:   10,
			TotalGroups: 50,
		},
		Endpoint: EndpointConfig{
			Timeout: "10s",
		},
		Assets: AssetsConfig{
			BaseURL: survey.DefaultAssetLocator.BaseURL,
			Width:   survey.DefaultAssetLocator.Width,
			Ext:     survey.DefaultAssetLocator.Ext,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SURVEY_ENDPOINT"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("SURVEY_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("SURVEY_ASSET_BASE"); v != "" {
		c.Assets.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Server.DatabaseURL = v
	}
}

// Layout returns the item pool layout.
func (c *Config) Layout() survey.Layout {
	return survey.Layout{PoolSize: c.Survey.PoolSize, GroupSize: c.Survey.GroupSize}
}

// AssetLocator returns the image locator.
func (c *Config) AssetLocator() survey.AssetLocator {
	return survey.AssetLocator{BaseURL: c.Assets.BaseURL, Width: c.Assets.Width, Ext: c.Assets.Ext}
}

// GetEndpointTimeout returns the endpoint timeout as a duration.
func (c *Config) GetEndpointTimeout() time.Duration {
	d, err := time.ParseDuration(c.Endpoint.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("survey: %w", err)
	}
	if c.Survey.TotalGroups != c.Layout().Groups() {
		return fmt.Errorf("survey: pool_size %d != group_size %d × total_groups %d",
			c.Survey.PoolSize, c.Survey.GroupSize, c.Survey.TotalGroups)
	}

	if c.Endpoint.URL != "" {
		u, err := url.Parse(c.Endpoint.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint: invalid url %q", c.Endpoint.URL)
		}
	}
	if c.Endpoint.Timeout != "" {
		if d, err := time.ParseDuration(c.Endpoint.Timeout); err != nil || d < 0 {
			return fmt.Errorf("endpoint: invalid timeout %q", c.Endpoint.Timeout)
		}
	}

	if c.Assets.Width < 0 {
		return fmt.Errorf("assets: width must be >= 0")
	}

	valid := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("logging: invalid level %q (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	return nil
}
