package sendspace

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAPIURL = "http://api.sendspace.com/rest/"
	APIVersion    = "1.0"
	AppVersion    = "0.1"
	// FileURLTemplate builds the public download page of an uploaded file.
	FileURLTemplate = "http://www.sendspace.com/file/%s"
	// DefaultUserAgent is sent with the upload POST unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/32.0.1700.14 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

// Client is a Sendspace REST API client. It holds at most one session key.
type Client struct {
	apiKey         string
	baseURL        string
	userAgent      string
	speedLimit     int
	strictFileSize bool
	timeout        time.Duration
	httpClient     *http.Client
	uploadClient   *http.Client
	logger         *logrus.Logger

	mu         sync.RWMutex
	sessionKey string
}

var _ ClientAPI = (*Client)(nil)

// Option customizes a Client during construction.
type Option func(*Client)

// WithBaseURL overrides the REST endpoint (useful in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the client used for API method calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUploadHTTPClient sets the client used for the file POST. The default
// has no timeout since uploads of large files take arbitrarily long, and it
// does not follow redirects: the upload result is read from the POST response.
func WithUploadHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.uploadClient = httpClient
	}
}

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the default User-Agent for uploads.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithSpeedLimit sets the speed_limit sent to upload.getinfo. Zero means unlimited.
func WithSpeedLimit(limit int) Option {
	return func(c *Client) {
		c.speedLimit = limit
	}
}

// WithStrictFileSize makes UploadFile fail with ErrFileTooLarge instead of
// only warning when the file exceeds the server's max file size.
func WithStrictFileSize(strict bool) Option {
	return func(c *Client) {
		c.strictFileSize = strict
	}
}

// WithTimeout bounds each API method call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a new Sendspace client for the given API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: cannot use empty API key", ErrConfiguration)
	}

	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultAPIURL,
		userAgent:    DefaultUserAgent,
		timeout:      DefaultTimeout,
		httpClient:   &http.Client{},
		uploadClient: &http.Client{CheckRedirect: noRedirect},
		logger:       logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil || c.uploadClient == nil {
		return nil, fmt.Errorf("%w: http client cannot be nil", ErrConfiguration)
	}
	if c.logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrConfiguration)
	}
	if c.speedLimit < 0 {
		return nil, fmt.Errorf("%w: speed limit cannot be negative", ErrConfiguration)
	}

	return c, nil
}

// SessionKey returns the active session key, or "" when not logged in.
func (c *Client) SessionKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionKey
}

func (c *Client) setSessionKey(key string) {
	c.mu.Lock()
	c.sessionKey = key
	c.mu.Unlock()
}

// clearSessionKey drops the session only if it is still the given key.
func (c *Client) clearSessionKey(key string) {
	c.mu.Lock()
	if c.sessionKey == key {
		c.sessionKey = ""
	}
	c.mu.Unlock()
}

// noRedirect stops the client at the first response so a redirect_url
// configured for the upload is never fetched.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}
