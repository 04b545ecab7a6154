package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Environment selects one of the hosted platform deployments.
type Environment string

const (
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// Default base URLs per environment.
const (
	StagingBaseURL    = "https://staging-api.loyalty.lt"
	ProductionBaseURL = "https://api.loyalty.lt"

	StagingRealtimeURL    = "wss://staging-realtime.loyalty.lt/v1"
	ProductionRealtimeURL = "wss://realtime.loyalty.lt/v1"
)

const (
	DefaultLocale         = "lt"
	DefaultTimeoutSeconds = 30
	DefaultRetries        = 3
)

// Config contains all SDK and sandbox settings.
type Config struct {
	APIKey      string      `mapstructure:"API_KEY" yaml:"api_key"`
	APISecret   string      `mapstructure:"API_SECRET" yaml:"api_secret"`
	BaseURL     string      `mapstructure:"API_URL" yaml:"api_url"`
	RealtimeURL string      `mapstructure:"REALTIME_URL" yaml:"realtime_url"`
	Environment Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Locale      string      `mapstructure:"LOCALE" yaml:"locale"`
	Timeout     int         `mapstructure:"TIMEOUT" yaml:"timeout"`
	Retries     int         `mapstructure:"RETRIES" yaml:"retries"`
	Debug       bool        `mapstructure:"DEBUG" yaml:"debug"`

	// QR flow behaviour
	AutoRegenerate bool `mapstructure:"AUTO_REGENERATE" yaml:"auto_regenerate"`
	ShowSendLink   bool `mapstructure:"SHOW_SEND_LINK" yaml:"show_send_link"`

	// Sandbox server settings
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}

// ApplyDefaults fills the zero values with the environment presets. The
// explicit BaseURL/RealtimeURL settings always win over the presets.
func (c *Config) ApplyDefaults() {
	if c.Environment != EnvironmentStaging && c.Environment != EnvironmentProduction {
		c.Environment = EnvironmentProduction
	}

	if c.BaseURL == "" {
		if c.Environment == EnvironmentStaging {
			c.BaseURL = StagingBaseURL
		} else {
			c.BaseURL = ProductionBaseURL
		}
	}

	if c.RealtimeURL == "" {
		if c.Environment == EnvironmentStaging {
			c.RealtimeURL = StagingRealtimeURL
		} else {
			c.RealtimeURL = ProductionRealtimeURL
		}
	}

	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeoutSeconds
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
}

// Validate checks the settings that the SDK cannot run without.
func (c *Config) Validate() error {
	missing := make([]string, 0)
	if c.APIKey == "" {
		missing = append(missing, "API key")
	}
	if c.APISecret == "" {
		missing = append(missing, "API secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid SDK configuration: %s required", strings.Join(missing, ", "))
	}

	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("invalid SDK configuration: base URL is not valid: %s", c.BaseURL)
		}
	}

	return nil
}

// APIURL returns the locale-prefixed base URL all REST endpoints live under.
func (c *Config) APIURL() string {
	locale := c.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(c.BaseURL, "/"), locale)
}
