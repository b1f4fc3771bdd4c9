package catalog

import (
	"net/http"
	"strings"
	"time"
)

// Config carries the settings shared by the HTTP-backed service
// implementations.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
	Timeout    time.Duration
	UserAgent  string
}

// Option customises a Config.
type Option func(*Config)

// NewConfig builds a Config from defaults plus any overrides.
func NewConfig(options ...Option) Config {
	cfg := Config{
		HTTPClient: http.DefaultClient,
		UserAgent:  "go-formflow",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return cfg
}

// WithBaseURL sets the backend root, e.g. "https://forms.example.com/api".
func WithBaseURL(raw string) Option {
	return func(cfg *Config) {
		cfg.BaseURL = raw
	}
}

// WithHTTPClient overrides the http.Client used for every call.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *Config) {
		cfg.HTTPClient = client
	}
}

// WithToken attaches a bearer token to every request. The token comes from
// the caller's session layer; the runtime never reads ambient storage.
func WithToken(token string) Option {
	return func(cfg *Config) {
		cfg.Token = strings.TrimSpace(token)
	}
}

// WithTimeout bounds each request. Zero leaves requests governed only by the
// caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(cfg *Config) {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			cfg.UserAgent = trimmed
		}
	}
}
