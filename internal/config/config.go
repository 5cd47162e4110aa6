package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Mail providers
const (
	MailProviderGraph    = "graph"
	MailProviderSendGrid = "sendgrid"
	MailProviderSES      = "ses"
	MailProviderStub     = "stub"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`

	// Request gate
	Origin         string `env:"ORIGIN"`
	RedirectionURL string `env:"REDIRECTION_URL"`

	// Bot verification
	TurnstileSecret    string `env:"TURNSTILE_SECRET"`
	TurnstileVerifyURL string `env:"TURNSTILE_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`

	// Outbound calls
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"10s"`

	// Mail relay
	MailProvider string         `env:"MAIL_PROVIDER" envDefault:"graph"`
	Graph        GraphConfig    `envPrefix:"MICROSOFT_GRAPH_"`
	SendGrid     SendGridConfig `envPrefix:"SENDGRID_"`
	SES          SESConfig      `envPrefix:"SES_"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"formrelay"`
	MetricsAddr  string `env:"METRICS_ADDR"`
}

// GraphConfig configures the Microsoft Graph relay
type GraphConfig struct {
	TenantID     string `env:"TENANT_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	SenderEmail  string `env:"SENDER_EMAIL"`
	ToEmail      string `env:"TO_EMAIL"`
	BaseURL      string `env:"BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
	AuthorityURL string `env:"AUTHORITY_URL" envDefault:"https://login.microsoftonline.com"`
}

// SendGridConfig configures the SendGrid relay
type SendGridConfig struct {
	APIKey    string `env:"API_KEY"`
	FromEmail string `env:"FROM_EMAIL"`
	FromName  string `env:"FROM_NAME"`
	ToEmail   string `env:"TO_EMAIL"`
}

// SESConfig configures the AWS SES relay
type SESConfig struct {
	Region    string `env:"REGION"`
	FromEmail string `env:"FROM_EMAIL"`
	ToEmail   string `env:"TO_EMAIL"`

	// Static keys are optional, the default AWS credential chain is used without them
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	envLocations := []string{".env"}

	// If ENV is set, try to load that specific file first
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the process environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))
	switch cfg.MailProvider {
	case MailProviderGraph, MailProviderSendGrid, MailProviderSES, MailProviderStub:
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}

	return cfg, nil
}

// RedirectTarget is where non-POST requests are sent
func (c *Config) RedirectTarget() string {
	if c.RedirectionURL != "" {
		return c.RedirectionURL
	}
	if c.Origin != "" {
		return c.Origin
	}
	return "/"
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
