package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Default values
const (
	DefaultOutputDir   = "moodle_downloads"
	DefaultWorkers     = 5
	DefaultCourseLimit = 10
	DefaultS3Region    = "us-east-1"
	EnvPrefix          = "moodle"
)

// Config holds everything a run needs. Values come from the config file,
// then MOODLE_* environment variables, then command-line flags.
type Config struct {
	BaseURL string `json:"base_url" yaml:"base_url" envconfig:"BASE_URL"`
	SessKey string `json:"sesskey" yaml:"sesskey" envconfig:"SESSKEY"`
	Cookie  string `json:"cookie" yaml:"cookie" envconfig:"COOKIE"`
	UserID  int    `json:"user_id" yaml:"user_id" envconfig:"USER_ID"`

	CourseLimit        int    `json:"course_limit" yaml:"course_limit" envconfig:"COURSE_LIMIT"`
	OutputDir          string `json:"output_dir" yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Workers            int    `json:"workers" yaml:"workers" envconfig:"WORKERS"`
	TimeoutSeconds     int    `json:"timeout_seconds" yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`
	Calendar           bool   `json:"calendar" yaml:"calendar" envconfig:"CALENDAR"`
	Progress           bool   `json:"progress" yaml:"progress" envconfig:"PROGRESS"`
	MetricsAddr        string `json:"metrics_addr" yaml:"metrics_addr" envconfig:"METRICS_ADDR"`

	// MinIO / S3 mirror, disabled while S3Bucket is empty
	S3Endpoint string `json:"s3_endpoint" yaml:"s3_endpoint" envconfig:"S3_ENDPOINT"`
	S3Bucket   string `json:"s3_bucket" yaml:"s3_bucket" envconfig:"S3_BUCKET"`
	S3Region   string `json:"s3_region" yaml:"s3_region" envconfig:"S3_REGION"`
	S3User     string `json:"s3_user" yaml:"s3_user" envconfig:"S3_USER"`
	S3Password string `json:"s3_password" yaml:"s3_password" envconfig:"S3_PASSWORD"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		CourseLimit: DefaultCourseLimit,
		OutputDir:   DefaultOutputDir,
		Workers:     DefaultWorkers,
		S3Region:    DefaultS3Region,
	}
}

// LoadConfig reads a JSON or YAML config file on top of the defaults.
// The format is picked from the file extension.
func LoadConfig(filename string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", filename)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", filename)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from MOODLE_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Wrap(err, "processing environment")
	}
	return nil
}

// Validate checks that the session inputs are present and fills in
// defaults for zero values.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.SessKey == "" {
		return errors.New("sesskey is required")
	}
	if c.Cookie == "" {
		return errors.New("cookie is required")
	}
	if c.UserID <= 0 {
		return errors.New("user_id must be a positive number")
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.CourseLimit < 1 {
		c.CourseLimit = DefaultCourseLimit
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.S3Region == "" {
		c.S3Region = DefaultS3Region
	}
	return nil
}

// MirrorEnabled reports whether downloads should also be uploaded to S3.
func (c *Config) MirrorEnabled() bool {
	return c.S3Bucket != ""
}
