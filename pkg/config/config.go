package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Timezone   string           `yaml:"timezone"`
	Sync       SyncConfig       `yaml:"sync"`
	Verify     VerifyConfig     `yaml:"verify"`
	KV         KVConfig         `yaml:"kv"`
	NATS       NATSConfig       `yaml:"nats"`
	Properties []PropertyConfig `yaml:"properties"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SyncConfig struct {
	HorizonDays  int      `yaml:"horizon_days"`
	Workers      int      `yaml:"workers"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
	Output       string   `yaml:"output"`
	ICSExportDir string   `yaml:"ics_export_dir"`
	Schedule     string   `yaml:"schedule"` // cron expression; empty = run once
}

type VerifyConfig struct {
	WindowDays int `yaml:"window_days"`
}

type KVConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that additionally unmarshals from YAML
// strings like "10s"; yaml.v3 only handles integer nanoseconds natively.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration value %q", value.Value)
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type PropertyConfig struct {
	Name  string       `yaml:"name"`
	Feeds []FeedConfig `yaml:"feeds"`
}

type FeedConfig struct {
	Source string `yaml:"source"`
	URL    string `yaml:"url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a YAML config file. Feed URLs may reference
// environment variables as ${VAR}; they are expanded here so secrets can
// live in the environment (or a .env file) instead of the config.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.expandEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) expandEnv() {
	for i := range c.Properties {
		for j := range c.Properties[i].Feeds {
			c.Properties[i].Feeds[j].URL = os.ExpandEnv(c.Properties[i].Feeds[j].URL)
		}
	}
	c.KV.BaseURL = os.ExpandEnv(c.KV.BaseURL)
	c.NATS.URL = os.ExpandEnv(c.NATS.URL)
}

func (c *Config) validate() error {
	if c.Timezone == "" {
		c.Timezone = "Europe/Athens"
	}
	if c.Sync.HorizonDays == 0 {
		c.Sync.HorizonDays = 150
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = 4
	}
	if c.Sync.FetchTimeout == 0 {
		c.Sync.FetchTimeout = Duration(10 * time.Second)
	}
	if c.Sync.Output == "" {
		c.Sync.Output = "availability.json"
	}
	if c.Verify.WindowDays == 0 {
		c.Verify.WindowDays = 210
	}
	if c.KV.Timeout == 0 {
		c.KV.Timeout = Duration(10 * time.Second)
	}

	if len(c.Properties) == 0 {
		return fmt.Errorf("at least one property must be configured")
	}
	for i, prop := range c.Properties {
		if prop.Name == "" {
			return fmt.Errorf("property[%d]: name is required", i)
		}
		if len(prop.Feeds) == 0 {
			return fmt.Errorf("property[%d] (%s): at least one feed is required", i, prop.Name)
		}
		for j, f := range prop.Feeds {
			if f.Source == "" {
				return fmt.Errorf("property %s feed[%d]: source label is required", prop.Name, j)
			}
			if f.URL == "" {
				return fmt.Errorf("property %s feed[%d]: url is required", prop.Name, j)
			}
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}

// Location resolves the configured target zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Slugs returns the configured property slugs in config order.
func (c *Config) Slugs() []string {
	slugs := make([]string, 0, len(c.Properties))
	for _, prop := range c.Properties {
		slugs = append(slugs, Slugify(prop.Name))
	}
	return slugs
}

// Slugify converts a human-readable property name (BLUE_DREAM, "Blue
// Dream") into a lowercase hyphenated slug. "studio9" is an irregular
// legacy name that maps to "studio-9" rather than the generic rule.
func Slugify(name string) string {
	raw := strings.ToLower(strings.TrimSpace(name))
	if raw == "studio9" || raw == "studio-9" {
		return "studio-9"
	}
	raw = strings.ReplaceAll(raw, "_", "-")
	return strings.ReplaceAll(raw, " ", "-")
}
