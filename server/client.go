package server

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// ClientTimeout is the timeout of a non streaming request
const ClientTimeout = 180 * time.Second

// chunkSize is the read buffer of a streaming response
const chunkSize = 1024

// Client calls the AI API
type Client struct {
	baseURL string
	hc      httpx.Doer
	timeout time.Duration
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithClientHTTP sets the HTTP client
func WithClientHTTP(hc httpx.Doer) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithClientTimeout sets the timeout of a non streaming request
func WithClientTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient returns the Client, baseURL defaults to AI_API_URL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = values.StringsCoalesce(baseURL, os.Getenv("AI_API_URL"))
	if baseURL == "" {
		return nil, errors.New("AI_API_URL is not set")
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		hc:      http.DefaultClient,
		timeout: ClientTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) newRequest(ctx context.Context, path, text string) (*http.Request, error) {
	form := url.Values{"text": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// Math returns the answer of the main agent
func (c *Client) Math(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, MathPath, text)
	if err != nil {
		return "", err
	}
	logger.ContextKV(ctx, xlog.DEBUG, "url", req.URL.String())

	body, err := httpx.ReadAll(c.hc, req)
	if err != nil {
		return "", errors.WithMessage(err, "math request failed")
	}
	return string(body), nil
}

// MathStream returns the chunks of the main agent workflow.
// The channel is closed at the end of the response, or when ctx is done.
func (c *Client) MathStream(ctx context.Context, text string) (<-chan string, error) {
	req, err := c.newRequest(ctx, MathStreamPath, text)
	if err != nil {
		return nil, err
	}
	logger.ContextKV(ctx, xlog.DEBUG, "url", req.URL.String())

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "math stream request failed")
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return nil, errors.WithMessage(&httpx.StatusError{StatusCode: res.StatusCode, Body: string(body)}, "math stream request failed")
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer res.Body.Close()

		buf := make([]byte, chunkSize)
		var pending []byte
		for {
			n, err := res.Body.Read(buf)
			if n > 0 {
				var chunk []byte
				chunk, pending = splitUTF8(append(pending, buf[:n]...))
				if len(chunk) > 0 {
					select {
					case ch <- string(chunk):
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.ContextKV(ctx, xlog.ERROR, "reason", "read_stream", "err", err.Error())
				}
				return
			}
		}
	}()
	return ch, nil
}

// splitUTF8 returns the complete runes of b, and the bytes of a trailing incomplete rune
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i], append([]byte(nil), b[i:]...)
			}
			break
		}
	}
	return b, nil
}
