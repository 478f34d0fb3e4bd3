// Package config loads the suite configuration from env.<name> files and the
// process environment, validates it, and exposes it as an immutable Config.
//
// The environment file is selected by NODE_ENV and defaults to env.local.
// Values already present in the process environment take precedence over the file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/internet-e2e/internal/errs"
	"github.com/kuitang/internet-e2e/internal/logutil"
	"github.com/kuitang/internet-e2e/internal/obs"
	"github.com/kuitang/internet-e2e/internal/urlutil"
)

const (
	DefaultBaseURL  = "http://localhost:3000"
	DefaultAPIURL   = "http://localhost:8000"
	DefaultUsername = "tomsmith"
	DefaultPassword = "SuperSecretPassword!"

	defaultRetries        = 0
	ciRetries             = 2
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultTimeoutMS      = 30000
	defaultArtifactsDir   = "test-results"
	defaultAWSRegion      = "us-east-1"
	defaultListenAddr     = ":3000"
)

// Browser engine names.
const (
	Chromium = "chromium"
	Firefox  = "firefox"
	WebKit   = "webkit"
)

// AllBrowsers lists the engines targeted by default.
var AllBrowsers = []string{Chromium, Firefox, WebKit}

// TraceMode controls when playwright traces are recorded.
type TraceMode string

const (
	TraceOff             TraceMode = "off"
	TraceOn              TraceMode = "on"
	TraceOnFirstRetry    TraceMode = "on-first-retry"
	TraceRetainOnFailure TraceMode = "retain-on-failure"
)

// Viewport is the browser window size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Artifacts configures where screenshots and traces are stored.
// When Bucket is empty, artifacts stay under Dir.
type Artifacts struct {
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// Config holds the resolved suite configuration.
type Config struct {
	Environment string `yaml:"environment"`
	EnvFile     string `yaml:"env_file"`
	EnvLoaded   bool   `yaml:"env_file_loaded"`

	// Target application
	BaseURL  string `yaml:"base_url"`
	APIURL   string `yaml:"api_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	APIKey   string `yaml:"api_key,omitempty"`

	// Runner policy
	CI       bool      `yaml:"ci"`
	Retries  int       `yaml:"retries"`
	Workers  int       `yaml:"workers"` // 0 means unbounded
	Browsers []string  `yaml:"browsers"`
	Trace    TraceMode `yaml:"trace"`

	// Browser settings
	Headless bool          `yaml:"headless"`
	Viewport Viewport      `yaml:"viewport"`
	SlowMo   time.Duration `yaml:"slow_mo"`
	Timeout  time.Duration `yaml:"timeout"`

	Artifacts  Artifacts `yaml:"artifacts"`
	LogLevel   string    `yaml:"log_level"`
	ListenAddr string    `yaml:"listen_addr"`

	env *Env
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// FromEnv resolves a Config from an environment snapshot and validates it.
// Malformed numbers fall back to their defaults; out-of-range values are
// reported as an InvalidConfiguration error wrapping a *ValidationError.
func FromEnv(env *Env) (*Config, error) {
	if env == nil {
		env = NewEnv(nil)
	}
	cfg := &Config{
		Environment: env.Name(),
		EnvFile:     env.Path(),
		EnvLoaded:   env.FileLoaded(),
		env:         env,
	}

	cfg.BaseURL = strings.TrimSpace(env.Get("BASE_URL", DefaultBaseURL))
	cfg.APIURL = strings.TrimSpace(env.Get("API_URL", DefaultAPIURL))
	cfg.Username = env.Get("USERNAME", DefaultUsername)
	cfg.Password = env.Get("PASSWORD", DefaultPassword)
	cfg.APIKey = env.Get("API_KEY", "")

	cfg.CI = env.Get("CI", "") != ""
	if cfg.CI {
		cfg.Retries = ciRetries
		cfg.Workers = 1
	} else {
		cfg.Retries = parseIntOrDefault(env, "RETRIES", defaultRetries)
	}
	cfg.Browsers = parseBrowsers(env)
	cfg.Trace = TraceMode(strings.ToLower(env.Get("TRACE", string(TraceOnFirstRetry))))

	cfg.Headless = strings.EqualFold(strings.TrimSpace(env.Get("HEADLESS", "true")), "true")
	cfg.Viewport = Viewport{
		Width:  parseIntOrDefault(env, "VIEWPORT_WIDTH", defaultViewportWidth),
		Height: parseIntOrDefault(env, "VIEWPORT_HEIGHT", defaultViewportHeight),
	}
	cfg.SlowMo = time.Duration(parseIntOrDefault(env, "SLOW_MO", 0)) * time.Millisecond
	cfg.Timeout = time.Duration(parseIntOrDefault(env, "TIMEOUT", defaultTimeoutMS)) * time.Millisecond

	cfg.Artifacts = Artifacts{
		Dir:             env.Get("ARTIFACTS_DIR", defaultArtifactsDir),
		Bucket:          strings.TrimSpace(env.Get("ARTIFACTS_BUCKET", "")),
		Endpoint:        strings.TrimSpace(env.Get("ARTIFACTS_S3_ENDPOINT", "")),
		Region:          env.Get("AWS_REGION", defaultAWSRegion),
		AccessKeyID:     strings.TrimSpace(env.Get("AWS_ACCESS_KEY_ID", "")),
		SecretAccessKey: strings.TrimSpace(env.Get("AWS_SECRET_ACCESS_KEY", "")),
	}
	cfg.LogLevel = env.Get("LOG_LEVEL", "info")
	cfg.ListenAddr = env.Get("LISTEN_ADDR", defaultListenAddr)

	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "invalid suite configuration", err)
	}
	return cfg, nil
}

// Validate checks that every value is usable by the harness.
func (c *Config) Validate() error {
	var problems []string

	if err := urlutil.ValidateBase(c.BaseURL); err != nil {
		problems = append(problems, "BASE_URL: "+err.Error())
	}
	if c.Retries < 0 {
		problems = append(problems, "RETRIES must not be negative")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		problems = append(problems, "VIEWPORT_WIDTH and VIEWPORT_HEIGHT must be positive")
	}
	if c.SlowMo < 0 {
		problems = append(problems, "SLOW_MO must not be negative")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "TIMEOUT must be positive")
	}
	if len(c.Browsers) == 0 {
		problems = append(problems, "BROWSERS must name at least one engine")
	}
	for _, b := range c.Browsers {
		if !isKnownBrowser(b) {
			problems = append(problems, fmt.Sprintf("BROWSERS: unknown engine %q (want chromium, firefox or webkit)", b))
		}
	}
	switch c.Trace {
	case TraceOff, TraceOn, TraceOnFirstRetry, TraceRetainOnFailure:
	default:
		problems = append(problems, fmt.Sprintf("TRACE: unknown mode %q", c.Trace))
	}

	if len(problems) > 0 {
		return &ValidationError{Errors: problems}
	}
	return nil
}

// Env returns the snapshot the configuration was resolved from, for
// variables the typed view does not cover (e.g. GetRequired("API_KEY")).
func (c *Config) Env() *Env {
	if c.env == nil {
		return NewEnv(nil)
	}
	return c.env
}

// MaxAttempts is the number of times a scenario may run: the first attempt plus retries.
func (c *Config) MaxAttempts() int {
	return c.Retries + 1
}

// Parallel reports whether scenarios may run concurrently.
func (c *Config) Parallel() bool {
	return c.Workers != 1
}

// Redacted returns a copy with secrets masked, safe to print.
func (c *Config) Redacted() Config {
	out := *c
	out.Browsers = append([]string(nil), c.Browsers...)
	out.Password = logutil.RedactValue("PASSWORD", c.Password)
	out.APIKey = logutil.RedactValue("API_KEY", c.APIKey)
	out.Artifacts.AccessKeyID = logutil.RedactValue("AWS_ACCESS_KEY_ID", c.Artifacts.AccessKeyID)
	out.Artifacts.SecretAccessKey = logutil.RedactValue("AWS_SECRET_ACCESS_KEY", c.Artifacts.SecretAccessKey)
	return out
}

// LogSummary writes the resolved configuration to the config logger.
func (c *Config) LogSummary() {
	obs.Pkg("config").Info("config_resolved",
		"environment", c.Environment,
		"env_file_loaded", c.EnvLoaded,
		"settings", logutil.FormatSettingsForLog(map[string]string{
			"BASE_URL": c.BaseURL,
			"API_URL":  c.APIURL,
			"USERNAME": c.Username,
			"PASSWORD": c.Password,
			"API_KEY":  c.APIKey,
			"RETRIES":  strconv.Itoa(c.Retries),
			"BROWSERS": strings.Join(c.Browsers, ","),
			"TRACE":    string(c.Trace),
			"HEADLESS": strconv.FormatBool(c.Headless),
			"TIMEOUT":  c.Timeout.String(),
		}),
		"api_key_preview", logutil.Preview(c.APIKey, 4),
	)
}

// Helper functions for parsing environment values

func parseIntOrDefault(env *Env, key string, defaultValue int) int {
	value := strings.TrimSpace(env.Get(key, ""))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBrowsers(env *Env) []string {
	raw := env.Get("BROWSERS", "")
	if raw == "" {
		raw = env.Get("BROWSER", "")
	}
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), AllBrowsers...)
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func isKnownBrowser(name string) bool {
	for _, b := range AllBrowsers {
		if b == name {
			return true
		}
	}
	return false
}
