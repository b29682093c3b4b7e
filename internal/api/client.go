package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/wfm-tracker/internal/ratelimit"
)

// Default request settings.
const (
	DefaultBaseURL  = "https://api.warframe.market/v2"
	DefaultPlatform = "pc"
	DefaultLanguage = "en"

	DefaultTimeout      = 30 * time.Second
	DefaultRetryBackoff = time.Second
)

// Client provides access to the market REST API. Every request, including
// retries, passes through the client's rate limiter.
type Client struct {
	baseURL    string
	platform   string
	language   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. Retries are off by default: the
// next scheduled poll cycle is the retry.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  baseURL,
		platform: DefaultPlatform,
		language: DefaultLanguage,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:      ratelimit.New(ratelimit.DefaultInterval),
		logger:       slog.Default(),
		maxRetries:   0,
		retryBackoff: DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter shares a limiter between clients talking to the same API.
func WithRateLimiter(l *ratelimit.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithPlatform sets the Platform header sent with every request.
func WithPlatform(platform string) ClientOption {
	return func(c *Client) {
		c.platform = platform
	}
}

// WithLanguage sets the Language header sent with every request.
func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}
