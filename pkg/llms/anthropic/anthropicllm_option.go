package anthropic

import (
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// TokenEnvVarName is read when no token is configured.
	TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec

	defaultBaseURL = "https://api.anthropic.com"
	maxRetries     = 2
	requestTimeout = 5 * time.Minute
)

// Option configures the Anthropic client.
type Option func(*config)

type config struct {
	token   string
	model   string
	baseURL string
	client  option.HTTPClient
}

func newConfig(opts ...Option) *config {
	c := &config{
		token:   os.Getenv(TokenEnvVarName),
		baseURL: defaultBaseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestOptions converts the config to SDK request options.
func (c *config) requestOptions() []option.RequestOption {
	ro := []option.RequestOption{
		option.WithAPIKey(c.token),
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(requestTimeout),
	}
	if c.baseURL != "" {
		ro = append(ro, option.WithBaseURL(c.baseURL))
	}
	if c.client != nil {
		ro = append(ro, option.WithHTTPClient(c.client))
	}
	return ro
}

// WithToken overrides the API key from ANTHROPIC_API_KEY.
func WithToken(token string) Option {
	return func(c *config) { c.token = token }
}

// WithModel sets the default model name.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL points the client at a proxy or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(c *config) { c.client = client }
}
