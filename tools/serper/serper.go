// Package serper implements Google search through serper.dev.
package serper

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// ToolName is the name of the tool
	ToolName = "google_serper"
	// ToolDescription is the description of the tool
	ToolDescription = "A low-cost Google Search API. Useful for when you need to answer questions about current events. Input should be a search query."
	// DefaultBaseURL is the search endpoint
	DefaultBaseURL = "https://google.serper.dev/search"
	// NoResult is returned when the search found nothing
	NoResult = "No good Google Search Result was found"
	// DefaultK is the number of organic results
	DefaultK = 10
)

// Tool searches Google through serper.dev
type Tool struct {
	apiKey  string
	baseURL string
	k       int
	gl      string
	hl      string
	client  httpx.Doer
}

var _ tools.Tool = (*Tool)(nil)

// Option configures the tool
type Option func(*Tool)

// WithBaseURL overrides the API URL
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) {
		t.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client httpx.Doer) Option {
	return func(t *Tool) {
		t.client = client
	}
}

// WithK sets the number of organic results
func WithK(k int) Option {
	return func(t *Tool) {
		if k > 0 {
			t.k = k
		}
	}
}

// New returns the tool, apiKey defaults to SERPER_API_KEY
func New(apiKey string, opts ...Option) (*Tool, error) {
	if apiKey == "" {
		apiKey = os.Getenv("SERPER_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("SERPER_API_KEY is not set")
	}
	t := &Tool{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		k:       DefaultK,
		gl:      "us",
		hl:      "en",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = httpx.New(nil)
	}
	return t, nil
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return ToolDescription
}

// Call runs the search and returns the best snippets joined by spaces.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	body, _ := sjson.SetBytes(nil, "q", strings.TrimSpace(input))
	body, _ = sjson.SetBytes(body, "gl", t.gl)
	body, _ = sjson.SetBytes(body, "hl", t.hl)
	body, _ = sjson.SetBytes(body, "num", t.k)

	var res []byte
	err := httpx.PostJSON(ctx, t.client, t.baseURL, http.Header{"X-API-KEY": {t.apiKey}}, body, &res)
	if err != nil {
		return "", errors.Wrap(err, "serper search failed")
	}

	snippets := Snippets(res, t.k)
	if len(snippets) == 0 {
		return NoResult, nil
	}
	return strings.Join(snippets, " "), nil
}

// Snippets extracts the result snippets from the search response,
// preferring the answer box.
func Snippets(res []byte, k int) []string {
	box := gjson.GetBytes(res, "answerBox")
	if box.Exists() {
		if answer := box.Get("answer").String(); answer != "" {
			return []string{answer}
		}
		if snippet := box.Get("snippet").String(); snippet != "" {
			return []string{strings.ReplaceAll(snippet, "\n", " ")}
		}
		if hl := box.Get("snippetHighlighted").Array(); len(hl) > 0 {
			var list []string
			for _, h := range hl {
				list = append(list, h.String())
			}
			return list
		}
	}

	var snippets []string

	kg := gjson.GetBytes(res, "knowledgeGraph")
	if kg.Exists() {
		title := kg.Get("title").String()
		if entityType := kg.Get("type").String(); entityType != "" {
			snippets = append(snippets, title+": "+entityType+".")
		}
		if desc := kg.Get("description").String(); desc != "" {
			snippets = append(snippets, desc)
		}
		kg.Get("attributes").ForEach(func(key, value gjson.Result) bool {
			snippets = append(snippets, title+" "+key.String()+": "+value.String()+".")
			return true
		})
	}

	for i, item := range gjson.GetBytes(res, "organic").Array() {
		if i >= k {
			break
		}
		if snippet := item.Get("snippet").String(); snippet != "" {
			snippets = append(snippets, snippet)
		}
		item.Get("attributes").ForEach(func(key, value gjson.Result) bool {
			snippets = append(snippets, key.String()+": "+value.String()+".")
			return true
		})
	}
	return snippets
}
