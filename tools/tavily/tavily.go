// Package tavily implements the web search tool over the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/effective-security/academix/tools"
)

const (
	// ToolName is the name of the tool
	ToolName = "WebSearch"
	// ToolDescription is the description of the tool
	ToolDescription = "A tool that provides a web search functionality. Input should be a search query."
	// NoResult is returned when the search found nothing
	NoResult = "No good Web Search Result was found"
)

// SearchRequest is the JSON form of the tool input.
type SearchRequest struct {
	Query string `json:"Query" yaml:"Query"`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"Results"`
	Answer  string                      `json:"answer,omitempty" yaml:"Answer"`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool = (*Tool)(nil)

// New returns the tool, apiKey defaults to TAVILY_API_KEY
func New(apiKey string) (*Tool, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.Errorf("TAVILY_API_KEY is not set")
	}

	tool := &Tool{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return ToolDescription
}

// Run performs the search
func (t *Tool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	client := tavilygo.NewClient(t.apiKey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	}

	searchResp, err := tavilygo.Search(client, searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	res := &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}
	return res, nil
}

// Call accepts a plain query, or {"Query": "..."}, and returns the results as text.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	req := &SearchRequest{Query: strings.TrimSpace(input)}
	if strings.HasPrefix(req.Query, "{") {
		var js SearchRequest
		if err := ljson.Unmarshal(llmutils.ExtractJSON(req.Query), &js); err == nil && js.Query != "" {
			req = &js
		}
	}

	out, err := t.Run(ctx, req)
	if err != nil {
		return "", err
	}
	if out.Answer == "" && len(out.Results) == 0 {
		return NoResult, nil
	}
	return out.String(), nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
