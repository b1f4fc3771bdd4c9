// Package formflow is the top-level entry point for filling and submitting
// dynamic forms. It wires the REST-backed catalog, option provider, and
// submission dispatcher into a session so most callers need only this
// package plus pkg/session for the types they interact with.
package formflow

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goliatone/go-formflow/internal/restapi"
	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/notify"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
)

// Session aliases the form session so quick-start callers avoid the extra
// import.
type Session = session.Session

// FormValues aliases the session value map.
type FormValues = schema.FormValues

// Receipt aliases the backend's submission acknowledgement.
type Receipt = submit.Receipt

// PaymentAuthorizer completes payment orders for fee-bearing forms.
type PaymentAuthorizer = session.PaymentAuthorizer

// Config collects everything needed to open sessions against one
// form-builder backend.
type Config struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string

	hook       submit.Hook
	payments   catalog.PaymentService
	authorizer PaymentAuthorizer
}

// Option customizes a Config.
type Option func(*Config)

// WithBaseURL sets the backend base URL. Required.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.baseURL = url
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets a per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.userAgent = ua
	}
}

// WithPostCommitHook runs after every committed submission. A hook failure
// never fails the submission itself.
func WithPostCommitHook(hook submit.Hook) Option {
	return func(c *Config) {
		c.hook = hook
	}
}

// WithPaymentAuthorizer enables the fee sub-flow using the backend's payment
// endpoints and the given authorizer.
func WithPaymentAuthorizer(authorizer PaymentAuthorizer) Option {
	return func(c *Config) {
		c.authorizer = authorizer
	}
}

// WithPaymentService overrides the payment service; by default the REST
// client's payment endpoints are used.
func WithPaymentService(svc catalog.PaymentService) Option {
	return func(c *Config) {
		c.payments = svc
	}
}

// Client opens form sessions against one backend. Sessions share the option
// cache, so several forms drawing from the same catalogs reuse fetched
// labels.
type Client struct {
	api      *restapi.Client
	provider *catalog.Provider
	cfg      Config
}

// New constructs a Client.
func New(opts ...Option) (*Client, error) {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.baseURL == "" {
		return nil, errors.New("formflow: base url is required")
	}

	api, err := restapi.New(catalog.NewConfig(
		catalog.WithBaseURL(cfg.baseURL),
		catalog.WithToken(cfg.token),
		catalog.WithHTTPClient(cfg.httpClient),
		catalog.WithTimeout(cfg.timeout),
		catalog.WithUserAgent(cfg.userAgent),
	))
	if err != nil {
		return nil, err
	}

	return &Client{
		api:      api,
		provider: catalog.NewProvider(api),
		cfg:      cfg,
	}, nil
}

// Open builds a session for one form version. The session still needs Load
// before editing.
func (c *Client) Open(formID string, formNo int, opts ...session.Option) *Session {
	base := []session.Option{}
	if c.cfg.authorizer != nil {
		payments := c.cfg.payments
		if payments == nil {
			payments = c.api
		}
		base = append(base, session.WithPayments(payments, c.cfg.authorizer))
	}
	base = append(base, opts...)

	return session.New(formID, formNo,
		c.api,
		c.provider,
		submit.NewDispatcher(c.api, c.cfg.hook),
		base...,
	)
}

// OpenEdit builds a session that updates an existing submission.
func (c *Client) OpenEdit(formID string, formNo int, submissionID string, prefilled FormValues, opts ...session.Option) *Session {
	opts = append([]session.Option{session.WithEditTarget(submissionID, prefilled)}, opts...)
	return c.Open(formID, formNo, opts...)
}

// Watch subscribes a session to options-changed signals: every signal for
// the session's form triggers a Reload. It blocks until the context ends or
// the broadcaster subscription is cancelled. Reload failures are reported
// through onError when set and never stop the watch.
func Watch(ctx context.Context, b *notify.Broadcaster, formID string, sess *Session, onError func(error)) error {
	signals, cancel := b.Subscribe(formID)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if err := sess.Reload(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
