// Package config holds the explicit server configuration: a YAML file with
// environment overrides, validated once at startup so credential problems
// fail fast instead of per request.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var errNoServiceAccount = errors.New("service account key is required (google.service_account_key, google.service_account_key_file, or GOOGLE_SERVICE_ACCOUNT_KEY)")

// GoogleConfig holds the credential material for both identity modes.
type GoogleConfig struct {
	// ClientID/ClientSecret enable the delegated-user OAuth flow. Both empty
	// means the server runs service-identity only.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`

	// ServiceAccountKey is the inline JSON key; ServiceAccountKeyFile is a
	// path to one. Inline wins when both are set.
	ServiceAccountKey     string `yaml:"service_account_key"`
	ServiceAccountKeyFile string `yaml:"service_account_key_file"`
}

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Timezone is the IANA zone room schedules are anchored to.
	Timezone string `yaml:"timezone"`

	// BusinessOpen/BusinessClose bound the bookable window, "15:04" form.
	BusinessOpen  string `yaml:"business_open"`
	BusinessClose string `yaml:"business_close"`

	// SlotMinutes is the booking slot granularity.
	SlotMinutes int `yaml:"slot_minutes"`

	// SessionTTL bounds how long a delegated sign-in lasts.
	SessionTTL time.Duration `yaml:"session_ttl"`

	LogLevel string `yaml:"log_level"`

	Google GoogleConfig `yaml:"google"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		Timezone:      "America/New_York",
		BusinessOpen:  "09:00",
		BusinessClose: "18:00",
		SlotMinutes:   30,
		SessionTTL:    12 * time.Hour,
		LogLevel:      "info",
	}
}

// Load reads the configuration: defaults, then the YAML file at path (if
// any), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // user-provided path
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setIfPresent(&c.Listen, "ROOMBOOK_LISTEN")
	setIfPresent(&c.Timezone, "CALENDAR_TIMEZONE")
	setIfPresent(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setIfPresent(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setIfPresent(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setIfPresent(&c.Google.ServiceAccountKey, "GOOGLE_SERVICE_ACCOUNT_KEY")
	setIfPresent(&c.Google.ServiceAccountKeyFile, "GOOGLE_SERVICE_ACCOUNT_KEY_FILE")
}

// Validate checks the configuration. Called once at startup; any error here
// is fatal.
func (c *Config) Validate() error {
	key, err := c.ServiceAccountJSON()
	if err != nil {
		return err
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(key, &probe); err != nil {
		return fmt.Errorf("service account key is not valid JSON: %w", err)
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		return errors.New("google client_id and client_secret must be set together")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	open, err := minuteOfDay(c.BusinessOpen)
	if err != nil {
		return fmt.Errorf("invalid business_open: %w", err)
	}
	closeAt, err := minuteOfDay(c.BusinessClose)
	if err != nil {
		return fmt.Errorf("invalid business_close: %w", err)
	}
	if open >= closeAt {
		return fmt.Errorf("business_open %s must be before business_close %s", c.BusinessOpen, c.BusinessClose)
	}

	if c.SlotMinutes <= 0 {
		return errors.New("slot_minutes must be positive")
	}
	if (closeAt-open)%c.SlotMinutes != 0 {
		return fmt.Errorf("slot_minutes %d does not evenly divide the business window", c.SlotMinutes)
	}

	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}

	return nil
}

// ServiceAccountJSON returns the service account key bytes.
func (c *Config) ServiceAccountJSON() ([]byte, error) {
	if c.Google.ServiceAccountKey != "" {
		return []byte(c.Google.ServiceAccountKey), nil
	}
	if c.Google.ServiceAccountKeyFile != "" {
		b, err := os.ReadFile(c.Google.ServiceAccountKeyFile) //nolint:gosec // user-provided path
		if err != nil {
			return nil, fmt.Errorf("read service account key file: %w", err)
		}
		return b, nil
	}
	return nil, errNoServiceAccount
}

// OAuthEnabled reports whether the delegated-user flow is configured.
func (c *Config) OAuthEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// Location returns the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OpenMinute returns the business window opening as minutes from midnight.
func (c *Config) OpenMinute() int {
	m, _ := minuteOfDay(c.BusinessOpen)
	return m
}

// CloseMinute returns the business window closing as minutes from midnight.
func (c *Config) CloseMinute() int {
	m, _ := minuteOfDay(c.BusinessClose)
	return m
}

func minuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
