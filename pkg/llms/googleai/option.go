package googleai

import (
	"net/http"
	"os"

	"github.com/effective-security/academix/pkg/llms"
	"google.golang.org/genai"
)

// EnvAPIKey is consulted when WithAPIKey is not given.
const EnvAPIKey = "GOOGLE_API_KEY" //nolint:gosec

// Option configures the Gemini client.
type Option func(*config)

type config struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	embeddingModel string
	harm           genai.HarmBlockThreshold
	// defaults are applied before the per-call options.
	defaults llms.CallOptions
}

func newConfig(opts []Option) *config {
	c := &config{
		embeddingModel: "text-embedding-004",
		harm:           genai.HarmBlockThresholdBlockOnlyHigh,
		defaults: llms.CallOptions{
			Model:       "gemini-2.5-flash",
			MaxTokens:   8192,
			Temperature: 0.5,
			TopP:        0.95,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv(EnvAPIKey)
	}
	return c
}

func (c *config) clientConfig() *genai.ClientConfig {
	cc := &genai.ClientConfig{
		APIKey:     c.apiKey,
		HTTPClient: c.httpClient,
		Backend:    genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	return cc
}

// callOptions merges the per-call options over the client defaults.
func (c *config) callOptions(options []llms.CallOption) *llms.CallOptions {
	opts := c.defaults
	for _, opt := range options {
		opt(&opts)
	}
	return &opts
}

// WithAPIKey sets the Gemini API key.
func WithAPIKey(apiKey string) Option {
	return func(c *config) { c.apiKey = apiKey }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) { c.httpClient = httpClient }
}

// WithDefaultModel sets the model used when a call does not name one.
func WithDefaultModel(model string) Option {
	return func(c *config) { c.defaults.Model = model }
}

// WithDefaultEmbeddingModel sets the embedding model.
func WithDefaultEmbeddingModel(model string) Option {
	return func(c *config) { c.embeddingModel = model }
}

// WithDefaultMaxTokens sets the default output limit.
func WithDefaultMaxTokens(maxTokens int) Option {
	return func(c *config) { c.defaults.MaxTokens = maxTokens }
}

// WithDefaultTemperature sets the default temperature.
func WithDefaultTemperature(temperature float64) Option {
	return func(c *config) { c.defaults.Temperature = temperature }
}

// WithDefaultTopP sets the default TopP.
func WithDefaultTopP(topP float64) Option {
	return func(c *config) { c.defaults.TopP = topP }
}

// WithHarmThreshold sets the block threshold for every harm category.
func WithHarmThreshold(ht genai.HarmBlockThreshold) Option {
	return func(c *config) { c.harm = ht }
}
