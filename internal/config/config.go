package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Mode           string   `yaml:"mode"`            // gin mode: debug, release, test
		TrustedProxies []string `yaml:"trusted_proxies"` // IPs/CIDRs allowed to set X-Forwarded-For
	} `yaml:"server"`
	Logging  LoggingConfig `yaml:"logging"`
	Database struct {
		Driver       string `yaml:"driver"` // "postgres" or "sqlite"
		URL          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`
	Sentiment  HTTPLookupConfig `yaml:"sentiment"`
	Spam       SpamConfig       `yaml:"spam"`
	GeoIP      HTTPLookupConfig `yaml:"geoip"`
	Category   CategoryConfig   `yaml:"category"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Auth       struct {
		Enabled   bool   `yaml:"enabled"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// HTTPLookupConfig is shared by the plain HTTP lookup providers.
type HTTPLookupConfig struct {
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SpamConfig adds the on/off switch and sensitivity to the spam lookup.
type SpamConfig struct {
	HTTPLookupConfig `yaml:",inline"`
	Enabled          bool    `yaml:"enabled"`
	Threshold        float64 `yaml:"threshold"` // 1-10, lower is more aggressive
}

// CategoryConfig selects and configures the LLM used for classification.
type CategoryConfig struct {
	Provider       string        `yaml:"provider"` // "openai" or "gemini"
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"` // openai: https://host/v1, gemini: host:port
	Model          string        `yaml:"model"`
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ReconcilerConfig controls the background sweep that classifies leftover drafts.
type ReconcilerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	GracePeriod time.Duration `yaml:"grace_period"`
	BatchSize   int           `yaml:"batch_size"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.expandEnv()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Secrets and the DSN may reference environment variables, e.g. ${OPENAI_API_KEY}.
func (c *Config) expandEnv() {
	c.Database.URL = os.ExpandEnv(c.Database.URL)
	c.Sentiment.APIKey = os.ExpandEnv(c.Sentiment.APIKey)
	c.Spam.APIKey = os.ExpandEnv(c.Spam.APIKey)
	c.Category.APIKey = os.ExpandEnv(c.Category.APIKey)
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}

	if c.Sentiment.URL == "" {
		c.Sentiment.URL = "https://api.apilayer.com/sentiment/analysis"
	}
	setLookupTimeouts(&c.Sentiment, 8*time.Second)

	if c.Spam.URL == "" {
		c.Spam.URL = "https://api.apilayer.com/spamchecker"
	}
	if c.Spam.Threshold == 0 {
		c.Spam.Threshold = 5
	}
	setLookupTimeouts(&c.Spam.HTTPLookupConfig, 8*time.Second)

	if c.GeoIP.URL == "" {
		c.GeoIP.URL = "http://ip-api.com/json"
	}
	setLookupTimeouts(&c.GeoIP, 5*time.Second)

	if c.Category.Provider == "" {
		c.Category.Provider = "openai"
	}
	if c.Category.Model == "" {
		switch c.Category.Provider {
		case "gemini":
			c.Category.Model = "gemini-2.0-flash"
		default:
			c.Category.Model = "gpt-3.5-turbo"
		}
	}
	if c.Category.Timeout == 0 {
		c.Category.Timeout = 10 * time.Second
	}
	if c.Category.ConnectTimeout == 0 {
		c.Category.ConnectTimeout = 2 * time.Second
	}

	if c.Reconciler.Interval == 0 {
		c.Reconciler.Interval = time.Minute
	}
	if c.Reconciler.GracePeriod == 0 {
		c.Reconciler.GracePeriod = 2 * time.Minute
	}
	if c.Reconciler.BatchSize == 0 {
		c.Reconciler.BatchSize = 50
	}
}

func setLookupTimeouts(l *HTTPLookupConfig, total time.Duration) {
	if l.Timeout == 0 {
		l.Timeout = total
	}
	if l.ConnectTimeout == 0 {
		l.ConnectTimeout = 2 * time.Second
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	switch c.Category.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("category.provider must be openai or gemini, got %q", c.Category.Provider))
	}
	if c.Spam.Threshold < 1 || c.Spam.Threshold > 10 {
		errs = append(errs, fmt.Errorf("spam.threshold must be within 1-10, got %v", c.Spam.Threshold))
	}
	if c.Category.Provider == "gemini" && strings.Contains(c.Category.BaseURL, "://") {
		errs = append(errs, fmt.Errorf("category.base_url must be host:port for gemini, got %q", c.Category.BaseURL))
	}

	for name, d := range map[string]time.Duration{
		"sentiment.timeout":         c.Sentiment.Timeout,
		"sentiment.connect_timeout": c.Sentiment.ConnectTimeout,
		"spam.timeout":              c.Spam.Timeout,
		"spam.connect_timeout":      c.Spam.ConnectTimeout,
		"geoip.timeout":             c.GeoIP.Timeout,
		"geoip.connect_timeout":     c.GeoIP.ConnectTimeout,
		"category.timeout":          c.Category.Timeout,
		"category.connect_timeout":  c.Category.ConnectTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}

	if c.Reconciler.Enabled {
		if c.Reconciler.Interval <= 0 {
			errs = append(errs, fmt.Errorf("reconciler.interval must be positive, got %s", c.Reconciler.Interval))
		}
		if c.Reconciler.GracePeriod < 0 {
			errs = append(errs, fmt.Errorf("reconciler.grace_period must not be negative, got %s", c.Reconciler.GracePeriod))
		}
		if c.Reconciler.BatchSize <= 0 {
			errs = append(errs, fmt.Errorf("reconciler.batch_size must be positive, got %d", c.Reconciler.BatchSize))
		}
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}

	return errors.Join(errs...)
}
