// Package config loads harness configuration from environment variables.
// Every default reproduces the fixed values the verification scripts were
// written against, so running a command with an empty environment targets a
// local dev server on port 5173 with headless Chromium.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/dealer-verify/internal/urlutil"
)

const (
	DefaultBaseURL        = "http://localhost:5173"
	DefaultBrowser        = "chromium"
	DefaultOutputDir      = "verification"
	DefaultActionTimeout  = 30 * time.Second
	DefaultAssertTimeout  = 5 * time.Second
	defaultArtifactRegion = "auto"
)

// Config holds all harness configuration.
type Config struct {
	// Target application
	BaseURL string

	// Browser
	Browser       string // chromium, firefox or webkit
	Headless      bool
	ActionTimeout time.Duration // navigation and actionability waits
	AssertTimeout time.Duration // visibility expectation polling

	// Local artifacts (fixtures, screenshots, report)
	OutputDir string

	// Optional remote artifact publication (S3 compatible)
	ArtifactBucket     string // VERIFY_ARTIFACT_BUCKET
	ArtifactPublicURL  string // VERIFY_ARTIFACT_PUBLIC_URL
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.BaseURL = urlutil.NormalizeBaseURL(getEnvOrDefault("VERIFY_BASE_URL", DefaultBaseURL))

	cfg.Browser = strings.ToLower(strings.TrimSpace(getEnvOrDefault("VERIFY_BROWSER", DefaultBrowser)))
	cfg.Headless = parseBoolOrDefault("VERIFY_HEADLESS", true)
	cfg.ActionTimeout = parseDurationOrDefault("VERIFY_ACTION_TIMEOUT", DefaultActionTimeout)
	cfg.AssertTimeout = parseDurationOrDefault("VERIFY_ASSERT_TIMEOUT", DefaultAssertTimeout)

	cfg.OutputDir = getEnvOrDefault("VERIFY_OUTPUT_DIR", DefaultOutputDir)

	cfg.ArtifactBucket = strings.TrimSpace(os.Getenv("VERIFY_ARTIFACT_BUCKET"))
	cfg.ArtifactPublicURL = strings.TrimSpace(os.Getenv("VERIFY_ARTIFACT_PUBLIC_URL"))
	cfg.AWSEndpointS3 = strings.TrimSpace(os.Getenv("AWS_ENDPOINT_URL_S3"))
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", defaultArtifactRegion)
	cfg.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.AWSSecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	if cfg.ArtifactPublicURL == "" && cfg.AWSEndpointS3 != "" && cfg.ArtifactBucket != "" {
		cfg.ArtifactPublicURL = strings.TrimRight(cfg.AWSEndpointS3, "/") + "/" + cfg.ArtifactBucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Browser:       DefaultBrowser,
		Headless:      true,
		ActionTimeout: DefaultActionTimeout,
		AssertTimeout: DefaultAssertTimeout,
		OutputDir:     DefaultOutputDir,
		AWSRegion:     defaultArtifactRegion,
	}
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	var errs []string

	if err := urlutil.ValidateBaseURL(c.BaseURL); err != nil {
		errs = append(errs, "VERIFY_BASE_URL: "+err.Error())
	}

	switch c.Browser {
	case "chromium", "firefox", "webkit":
	default:
		errs = append(errs, fmt.Sprintf("VERIFY_BROWSER must be chromium, firefox or webkit (got %q)", c.Browser))
	}

	// Playwright takes whole milliseconds and reads 0 as no timeout at all.
	if c.ActionTimeout < time.Millisecond {
		errs = append(errs, "VERIFY_ACTION_TIMEOUT must be at least 1ms")
	}
	if c.AssertTimeout < time.Millisecond {
		errs = append(errs, "VERIFY_ASSERT_TIMEOUT must be at least 1ms")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, "VERIFY_OUTPUT_DIR must not be empty")
	}

	// Remote publication is optional, but a bucket without credentials is a mistake.
	if c.ArtifactBucket != "" {
		if c.AWSAccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required when VERIFY_ARTIFACT_BUCKET is set")
		}
		if c.AWSSecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required when VERIFY_ARTIFACT_BUCKET is set")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PublishesArtifacts reports whether screenshots should be uploaded after a run.
func (c *Config) PublishesArtifacts() bool {
	return c.ArtifactBucket != ""
}

// ActionTimeoutMS returns the action timeout in the float milliseconds playwright expects.
func (c *Config) ActionTimeoutMS() float64 {
	return float64(c.ActionTimeout.Milliseconds())
}

// AssertTimeoutMS returns the assertion timeout in milliseconds.
func (c *Config) AssertTimeoutMS() float64 {
	return float64(c.AssertTimeout.Milliseconds())
}

// Flags holds the command-line options accepted by cmd/verify.
type Flags struct {
	Scenarios []string
	Parallel  bool
	List      bool
	Report    string // HTML report path
	Metrics   string // Prometheus textfile path
}

// Summary returns a short human-readable description of the configuration.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target=%s browser=%s headless=%t", c.BaseURL, c.Browser, c.Headless)
	fmt.Fprintf(&b, " action_timeout=%s assert_timeout=%s out=%s", c.ActionTimeout, c.AssertTimeout, c.OutputDir)
	if c.PublishesArtifacts() {
		fmt.Fprintf(&b, " bucket=%s", c.ArtifactBucket)
	}
	return b.String()
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
