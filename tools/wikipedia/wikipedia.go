// Package wikipedia implements the Wikipedia search tool over the MediaWiki API.
package wikipedia

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "tools/wikipedia")

const (
	// ToolName is the name of the tool
	ToolName = "Wikipedia"
	// ToolDescription is the description of the tool
	ToolDescription = "Useful for when you need to query wikipedia"
	// DefaultBaseURL is the MediaWiki API endpoint
	DefaultBaseURL = "https://en.wikipedia.org/w/api.php"
	// NoResult is returned when the search found nothing
	NoResult = "No good Wikipedia Search Result was found"

	// DefaultTopK is the number of pages to summarize
	DefaultTopK = 3
	// MaxContentChars limits the output
	MaxContentChars = 4000
	maxQueryChars   = 300
)

// Tool searches Wikipedia and returns the page summaries
type Tool struct {
	baseURL   string
	topK      int
	client    httpx.Doer
	converter *md.Converter
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

// WithTopK sets the number of pages
func WithTopK(k int) Option {
	return func(t *Tool) {
		if k > 0 {
			t.topK = k
		}
	}
}

// New returns the tool
func New(opts ...Option) *Tool {
	t := &Tool{
		baseURL: DefaultBaseURL,
		topK:    DefaultTopK,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = httpx.New(nil)
	}

	t.converter = md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
		EmDelimiter:      "*",
	})
	t.converter.Remove("script", "style", "sup")
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return ToolDescription
}

// Call returns "Page: <title>\nSummary: <extract>" for the top pages.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	titles, err := t.Search(ctx, llmutils.Truncate(strings.TrimSpace(input), maxQueryChars))
	if err != nil {
		return "", err
	}

	var summaries []string
	for _, title := range titles {
		summary, err := t.Summary(ctx, title)
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"title", title,
				"err", err.Error(),
			)
			continue
		}
		if summary == "" {
			continue
		}
		summaries = append(summaries, "Page: "+title+"\nSummary: "+summary)
	}

	if len(summaries) == 0 {
		return NoResult, nil
	}
	return llmutils.Truncate(strings.Join(summaries, "\n\n"), MaxContentChars), nil
}

// Search returns the titles of the top pages
func (t *Tool) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", strconv.Itoa(t.topK))
	q.Set("format", "json")

	var body []byte
	if err := httpx.GetJSON(ctx, t.client, t.baseURL+"?"+q.Encode(), nil, &body); err != nil {
		return nil, errors.Wrap(err, "wikipedia search failed")
	}

	var titles []string
	for _, r := range gjson.GetBytes(body, "query.search.#.title").Array() {
		titles = append(titles, r.String())
	}
	return titles, nil
}

// Summary returns the intro of the page converted to markdown
func (t *Tool) Summary(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("exintro", "1")
	q.Set("redirects", "1")
	q.Set("titles", title)
	q.Set("format", "json")

	var body []byte
	if err := httpx.GetJSON(ctx, t.client, t.baseURL+"?"+q.Encode(), nil, &body); err != nil {
		return "", errors.Wrapf(err, "failed to load page: %s", title)
	}

	extract := gjson.GetBytes(body, "query.pages.*.extract").String()
	if extract == "" {
		return "", nil
	}
	text, err := t.converter.ConvertString(extract)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert page: %s", title)
	}
	return strings.TrimSpace(text), nil
}
