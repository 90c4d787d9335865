// Package wolfram implements the Wolfram Alpha tool.
package wolfram

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "tools/wolfram")

const (
	// ToolName is the name of the tool
	ToolName = "Wolfram Alpha"
	// ToolDescription is the description of the tool
	ToolDescription = "Useful only for numerical calculation. Not useful for proof work."
	// DefaultBaseURL is the v2 query API
	DefaultBaseURL = "https://api.wolframalpha.com/v2/query"
	// NoAnswer is returned when no result was found
	NoAnswer = "Wolfram Alpha wasn't able to answer it"
)

// Tool queries Wolfram Alpha.
type Tool struct {
	appID   string
	baseURL string
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

// New returns the tool, appID defaults to WOLFRAM_ALPHA_APPID
func New(appID string, opts ...Option) (*Tool, error) {
	if appID == "" {
		appID = os.Getenv("WOLFRAM_ALPHA_APPID")
	}
	if appID == "" {
		return nil, errors.New("WOLFRAM_ALPHA_APPID is not set")
	}

	t := &Tool{
		appID:   appID,
		baseURL: DefaultBaseURL,
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

// Call returns the input interpretation and the primary result.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	q := url.Values{}
	q.Set("input", strings.TrimSpace(input))
	q.Set("appid", t.appID)
	q.Set("output", "json")
	q.Set("format", "plaintext")

	var body []byte
	err := httpx.GetJSON(ctx, t.client, t.baseURL+"?"+q.Encode(), nil, &body)
	if err != nil {
		return "", errors.Wrap(err, "wolfram alpha query failed")
	}

	res := gjson.GetBytes(body, "queryresult")
	if !res.Get("success").Bool() {
		logger.ContextKV(ctx, xlog.DEBUG, "status", "no_success", "input", input)
		return NoAnswer, nil
	}

	pods := res.Get("pods").Array()
	if len(pods) == 0 {
		return NoAnswer, nil
	}

	assumption := podText(pods[0])
	answer := ""
	for _, pod := range pods {
		if pod.Get("primary").Bool() || pod.Get("title").String() == "Result" {
			answer = podText(pod)
			break
		}
	}
	if answer == "" {
		return NoAnswer, nil
	}

	return "Assumption: " + assumption + " \nAnswer: " + answer, nil
}

func podText(pod gjson.Result) string {
	var lines []string
	for _, sub := range pod.Get("subpods").Array() {
		if txt := sub.Get("plaintext").String(); txt != "" {
			lines = append(lines, txt)
		}
	}
	return strings.Join(lines, "\n")
}

