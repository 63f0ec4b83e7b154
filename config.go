package audiostash

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Port     int            `yaml:"port"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     *AuthConfig    `yaml:"auth"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// StorageConfig locates the storage project and bucket
type StorageConfig struct {
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	Bucket string `yaml:"bucket"`
	Public *bool  `yaml:"public"`
}

// AuthConfig protects the upload endpoints of the server
type AuthConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	APIKeys  []string `yaml:"api_keys"`
	ReadKeys []string `yaml:"read_keys"`
}

// PipelineConfig tunes the mock processing stages
type PipelineConfig struct {
	SegmentSeconds float64 `yaml:"segment_seconds"`
	WorkDir        string  `yaml:"work_dir"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults sets default values for unspecified configuration options.
// Storage credentials missing from the file are taken from the environment.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Storage.URL == "" {
		c.Storage.URL = os.Getenv(EnvStorageURL)
	}
	if c.Storage.Key == "" {
		c.Storage.Key = os.Getenv(EnvStorageKey)
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = DefaultBucket
	}
	if c.Storage.Public == nil {
		public := true
		c.Storage.Public = &public
	}
	if c.Pipeline.SegmentSeconds == 0 {
		c.Pipeline.SegmentSeconds = DefaultSegmentSeconds
	}
	if c.Pipeline.WorkDir == "" {
		c.Pipeline.WorkDir = os.TempDir()
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if c.Pipeline.SegmentSeconds < 0 {
		return fmt.Errorf("invalid segment_seconds: %v (must be positive)", c.Pipeline.SegmentSeconds)
	}
	if c.Storage.Bucket != SanitizeKey(c.Storage.Bucket) || strings.Contains(c.Storage.Bucket, "/") {
		return fmt.Errorf("invalid bucket name: %q", c.Storage.Bucket)
	}
	if c.Auth != nil && c.Auth.Enabled && c.Auth.Username == "" && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth is enabled but neither username nor api_keys are set")
	}
	return nil
}

// Credentials returns the storage credentials of the configuration
func (c *Config) Credentials() Credentials {
	return Credentials{URL: c.Storage.URL, Key: c.Storage.Key}
}

// NewUploader builds an uploader for the configured bucket, or returns nil
// when no credentials are available.
func (c *Config) NewUploader() *Uploader {
	creds := c.Credentials()
	if !creds.Valid() {
		return nil
	}
	uploader := NewUploader(NewStorageClient(creds.URL, creds.Key), c.Storage.Bucket)
	if c.Storage.Public != nil {
		uploader.public = *c.Storage.Public
	}
	return uploader
}
