// Package httpx provides the HTTP client shared by the remote tools.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "tools/httpx")

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3
	// DefaultInitialInterval is the first delay between the attempts
	DefaultInitialInterval = 500 * time.Millisecond
	// DefaultMaxInterval is the maximum delay between the attempts
	DefaultMaxInterval = 5 * time.Second
)

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Doer that retries transport errors and 5xx responses.
type Client struct {
	HTTPClient      Doer
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var _ Doer = (*Client)(nil)

// StatusError is returned when the server responds with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return http.StatusText(e.StatusCode) + ": " + e.Body
}

// New returns a retrying client over hc, http.DefaultClient when nil.
func New(hc Doer) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		HTTPClient:      hc,
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, c.MaxRetries), ctx)
}

// Do sends the request, retrying on transport errors and 5xx responses.
// The request body must be replayable, as set by http.NewRequestWithContext.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attempt := 0

	var resp *http.Response
	op := func() error {
		r := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(errors.WithStack(err))
			}
			r = req.Clone(ctx)
			r.Body = body
		}
		attempt++

		res, err := c.HTTPClient.Do(r)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(errors.WithStack(ctx.Err()))
			}
			logger.ContextKV(ctx, xlog.DEBUG,
				"url", req.URL.Redacted(),
				"attempt", attempt,
				"err", err.Error(),
			)
			return errors.WithStack(err)
		}
		if res.StatusCode >= http.StatusInternalServerError {
			body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
			_ = res.Body.Close()
			logger.ContextKV(ctx, xlog.DEBUG,
				"url", req.URL.Redacted(),
				"attempt", attempt,
				"status", res.StatusCode,
			)
			return &StatusError{StatusCode: res.StatusCode, Body: string(body)}
		}
		resp = res
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON sends GET request and decodes the JSON response into v.
func GetJSON(ctx context.Context, client Doer, url string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	return doJSON(client, req, header, v)
}

// PostJSON sends body as JSON and decodes the JSON response into v.
func PostJSON(ctx context.Context, client Doer, url string, header http.Header, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req, header, v)
}

// ReadAll sends the request and returns the response body of a 2xx response.
func ReadAll(client Doer, req *http.Request) ([]byte, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: res.StatusCode, Body: string(body)}
	}
	return body, nil
}

func doJSON(client Doer, req *http.Request, header http.Header, v any) error {
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	req.Header.Set("Accept", "application/json")

	body, err := ReadAll(client, req)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if raw, ok := v.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err = json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
