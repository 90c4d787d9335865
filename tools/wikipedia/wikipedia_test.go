package wikipedia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/academix/tools/wikipedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, pages map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		if q.Get("list") == "search" {
			if q.Get("srsearch") == "nothing" {
				_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
				return
			}
			assert.Equal(t, "3", q.Get("srlimit"))
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Momentum"},{"title":"Missing"},{"title":"Impulse"}]}}`))
			return
		}

		title := q.Get("titles")
		extract, ok := pages[title]
		if !ok {
			_, _ = w.Write([]byte(`{"query":{"pages":{"-1":{"title":"` + title + `","missing":""}}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"12":{"title":"` + title + `","extract":"` + extract + `"}}}}`))
	}))
}

func TestCall(t *testing.T) {
	srv := newServer(t, map[string]string{
		"Momentum": "<p>In <b>physics</b>, momentum is mass times velocity.</p>",
		"Impulse":  "<p>Impulse is the change of momentum.</p>",
	})
	defer srv.Close()

	tool := wikipedia.New(wikipedia.WithBaseURL(srv.URL))
	assert.Equal(t, "Wikipedia", tool.Name())
	assert.Equal(t, wikipedia.ToolDescription, tool.Description())

	out, err := tool.Call(context.Background(), "momentum")
	require.NoError(t, err)
	assert.Equal(t, "Page: Momentum\nSummary: In **physics**, momentum is mass times velocity.\n\n"+
		"Page: Impulse\nSummary: Impulse is the change of momentum.", out)

	out, err = tool.Call(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, wikipedia.NoResult, out)
}

func TestTruncated(t *testing.T) {
	long := strings.Repeat("word ", 1000)
	srv := newServer(t, map[string]string{
		"Momentum": long,
		"Impulse":  long,
	})
	defer srv.Close()

	tool := wikipedia.New(wikipedia.WithBaseURL(srv.URL))
	out, err := tool.Call(context.Background(), "momentum")
	require.NoError(t, err)
	assert.Len(t, out, wikipedia.MaxContentChars)
	assert.True(t, strings.HasPrefix(out, "Page: Momentum\nSummary: word word"))
}
