// Package vectorsearch implements the academic library tool over the vector store service.
package vectorsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/schema"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/effective-security/x/values"
)

const (
	// ToolName is the name of the tool
	ToolName = "Academic library"
	// ToolDescription is the description of the tool
	ToolDescription = "Useful for querying data from academic books and syllabi"
	// DefaultK is the number of chunks to return
	DefaultK = 3
	// DefaultTimeout is the request timeout
	DefaultTimeout = 180 * time.Second
)

// Request is the search request of the vector service
type Request struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// Result is a chunk found by the vector service
type Result struct {
	ID       int            `json:"id"`
	Data     string         `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// Response is the search response of the vector service
type Response struct {
	Results []Result `json:"results"`
}

// ResultsSchema validates the search response
var ResultsSchema = schema.MustFromAny(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"results": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"data":     map[string]any{"type": "string"},
					"id":       map[string]any{"type": "integer"},
					"metadata": map[string]any{},
				},
				"required": []string{"data", "id", "metadata"},
			},
		},
	},
	"required": []string{"results"},
})

// Client calls the vector service
type Client struct {
	baseURL string
	client  httpx.Doer
	timeout time.Duration
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client httpx.Doer) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient returns the client, baseURL defaults to VS_API_URL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = values.StringsCoalesce(baseURL, os.Getenv("VS_API_URL"))
	if baseURL == "" {
		return nil, errors.New("VS_API_URL is not set")
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpx.New(nil)
	}
	return c, nil
}

// Search returns k chunks most similar to the query
func (c *Client) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = DefaultK
	}
	body, err := json.Marshal(&Request{Query: query, K: k})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw []byte
	err = httpx.PostJSON(ctx, c.client, c.baseURL+"/vector/search", http.Header{}, body, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}
	if err = ResultsSchema.Validate(raw); err != nil {
		return nil, errors.Wrap(err, "invalid vector search response")
	}

	var res Response
	if err = json.Unmarshal(raw, &res); err != nil {
		return nil, errors.Wrap(err, "invalid vector search response")
	}
	return res.Results, nil
}

// Tool searches the academic library
type Tool struct {
	client *Client
	k      int
}

var _ tools.Tool = (*Tool)(nil)

// New returns the tool
func New(client *Client) *Tool {
	return &Tool{client: client, k: DefaultK}
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return ToolDescription
}

// Call returns the found chunks joined by blank lines
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	results, err := t.client.Search(ctx, strings.TrimSpace(input), t.k)
	if err != nil {
		return "", err
	}
	list := make([]string, len(results))
	for i, r := range results {
		list[i] = r.Data
	}
	return strings.Join(list, "\n\n"), nil
}
