package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/skims/pkg/shared/files"
)

// Config is the engine configuration loaded from YAML.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	Scan       Scan       `yaml:"scan"`
	Cache      Cache      `yaml:"cache"`
	Policy     Policy     `yaml:"policy"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Upload     Upload     `yaml:"upload"`
	S3         S3         `yaml:"s3"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Scan holds the orchestrator settings.
type Scan struct {
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	Include      []string      `yaml:"include"`
	Exclude      []string      `yaml:"exclude"`
	Findings     []string      `yaml:"findings"`
	ContextLines int           `yaml:"context_lines"`
	MaxColumns   int           `yaml:"max_columns"`
	Wrap         bool          `yaml:"wrap"`
}

// Cache holds the on-disk cache settings. A zero TTL never expires.
type Cache struct {
	Root          string        `yaml:"root"`
	Namespace     string        `yaml:"namespace"`
	TTL           time.Duration `yaml:"ttl"`
	MemoryEntries int           `yaml:"memory_entries"`
	Disabled      bool          `yaml:"disabled"`
}

// Policy holds the word-lists detectors match against. Empty lists fall
// back to the built-in defaults.
type Policy struct {
	SecretWords       []string `yaml:"secret_words"`
	GenericExceptions []string `yaml:"generic_exceptions"`
	WeakHashes        []string `yaml:"weak_hashes"`
	WriteActions      []string `yaml:"write_actions"`
}

type HTTPClient struct {
	Debug            bool            `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Upload configures the HTTP persistence sink.
type Upload struct {
	Endpoint  string `yaml:"endpoint"`
	Token     string `yaml:"token"`
	BatchSize int    `yaml:"batch_size"`
}

// S3 configures the S3 persistence sink.
type S3 struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := files.ValidatePath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig loads the configuration at configPath. An empty path yields the
// defaults. SKIMS_CONFIG is used when configPath is empty.
func NewConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("SKIMS_CONFIG")
	}
	cfg := &Config{}
	if configPath != "" {
		path, err := files.ExpandPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path %q: %w", configPath, err)
		}
		if err := LoadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %q: %w", path, err)
		}
	}
	ApplyDefaults(cfg)
	return cfg, nil
}
