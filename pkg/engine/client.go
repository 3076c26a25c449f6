package engine

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout is the per-call timeout for data calls.
	DefaultTimeout = 30 * time.Second

	// DefaultHealthTimeout is the per-call timeout for Health.
	DefaultHealthTimeout = 10 * time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "enginectl/engine"

	tracerName = "github.com/haivivi/enginectl/pkg/engine"
)

// API is the set of engine calls. *Client implements it.
type API interface {
	UpdateDoc(ctx context.Context, docID int, ocrPages []string, searchablePDF string) (bool, error)
	UpdateDocSuggestions(ctx context.Context, updates *ClassifierUpdates) (map[string]any, error)
	GetCaseDataAll(ctx context.Context, requestID int, withSummary, withWWM bool) (map[string]any, error)
	GetCaseData(ctx context.Context, requestID int, withSummary, withWWM bool) (*CaseRawData, error)
	Health(ctx context.Context) (bool, error)
	ActionTrigger(ctx context.Context, trigger *EngineTrigger) (*EngineTrigger, error)
	ActionTriggers(ctx context.Context, requestID int, triggers []map[string]string) ([]*EngineTrigger, error)
	CreateRequest(ctx context.Context, req *EngineRequest) (any, error)
	UpdateRequest(ctx context.Context, requestID int, req *EngineRequest) (any, error)
	UpdateInsights(ctx context.Context, docs *DocsResponse) (map[string]any, error)
	ScheduledCallResponse(ctx context.Context, event *TelliWebhook) (map[string]any, error)
	UpdateCaseSummary(ctx context.Context, requestID int, summary []SummaryResponseOutput) (map[string]any, error)

	io.Closer
}

var _ API = (*Client)(nil)

// Client is the engine API client.
type Client struct {
	config *clientConfig
	http   *httpClient

	mu     sync.RWMutex
	token  string
	closed atomic.Bool
}

// clientConfig holds the client configuration.
type clientConfig struct {
	endpoint      string
	tokens        map[TokenName]string
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
	maxRetries    int
	insecure      bool
	userAgent     string
	tracer        trace.Tracer
	logger        *slog.Logger
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithTokens sets the named tokens consulted by each endpoint's preference
// order. Empty values are ignored.
func WithTokens(tokens map[TokenName]string) Option {
	return func(c *clientConfig) {
		c.tokens = make(map[TokenName]string, len(tokens))
		for k, v := range tokens {
			if v != "" {
				c.tokens[k] = v
			}
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-call timeout for data calls.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithHealthTimeout sets the per-call timeout for Health.
func WithHealthTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.healthTimeout = timeout
	}
}

// WithRetry sets the maximum number of retries for idempotent GET calls
// that fail with a network error, 429 or 5xx.
func WithRetry(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithInsecureSkipVerify disables TLS certificate verification on the
// default transport. It has no effect with WithHTTPClient.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *clientConfig) {
		c.insecure = skip
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithTracerProvider sets the provider used for per-request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the logger for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// NewClient creates a new engine API client for the given endpoint. token is
// the default credential, used when no preferred named token is configured.
//
// Example:
//
//	client := engine.NewClient("https://engine.example.com", "token")
//	defer client.Close()
//	ok, err := client.Health(ctx)
func NewClient(endpoint, token string, opts ...Option) *Client {
	cfg := &clientConfig{
		endpoint:      endpoint,
		timeout:       DefaultTimeout,
		healthTimeout: DefaultHealthTimeout,
		userAgent:     DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		cfg.httpClient = &http.Client{Transport: transport}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	c := &Client{config: cfg, token: token}
	c.http = newHTTPClient(c)
	return c
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.config.endpoint
}

// Token returns the default token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the default token used by subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Close releases idle connections. Calls made after Close fail with
// ErrClientClosed.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.config.httpClient.CloseIdleConnections()
	return nil
}

// resolveToken returns the first configured token from prefs, falling back
// to the default token.
func (c *Client) resolveToken(prefs []TokenName) (string, error) {
	for _, name := range prefs {
		if v := c.config.tokens[name]; v != "" {
			return v, nil
		}
	}
	if t := c.Token(); t != "" {
		return t, nil
	}
	return "", ErrNoToken
}
