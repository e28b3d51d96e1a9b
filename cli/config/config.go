package config

import (
	"fmt"
	"time"
)

// Config represents an mpimg.yaml configuration file.
// All values are optional and act as defaults for command flags.
// Flags and environment variables always override config values.
type Config struct {
	Host        string        `yaml:"host"`
	Port        uint          `yaml:"port"`
	Password    string        `yaml:"password"`
	Output      string        `yaml:"output"`
	Song        string        `yaml:"song"`
	Picture     bool          `yaml:"picture"`
	MaxSize     int64         `yaml:"max_size"`
	DialTimeout Duration      `yaml:"dial_timeout"`
	Verbose     bool          `yaml:"verbose"`
	Policy      PolicyConfig  `yaml:"policy"`
	Archive     ArchiveConfig `yaml:"archive"`
	Adapter     AdapterConfig `yaml:"adapter"`
}

// PolicyConfig holds emit policy defaults.
type PolicyConfig struct {
	Name      string `yaml:"name"`
	StateFile string `yaml:"state_file"`
}

// ArchiveConfig holds archive storage defaults.
type ArchiveConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: negative", s)
	}
	d.Duration = parsed
	return nil
}
