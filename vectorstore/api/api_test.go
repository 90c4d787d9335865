package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/tools/vectorsearch"
	"github.com/effective-security/academix/vectorstore"
	"github.com/effective-security/academix/vectorstore/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	query string
	k     int
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, query string, k int) ([]vectorstore.Match, error) {
	f.query = query
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	var res []vectorstore.Match
	for i := range k {
		if i == 2 {
			break
		}
		res = append(res, vectorstore.Match{
			Document: vectorstore.Document{
				ID:       "doc",
				Content:  query + " chunk",
				Metadata: map[string]any{"page": i},
			},
		})
	}
	if len(res) > 1 {
		res[1].Metadata = nil
	}
	return res, nil
}

func TestSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	r := api.New(searcher).Router()

	tcs := []struct {
		name   string
		body   string
		status int
		exp    string
		k      int
	}{
		{
			name:   "default k",
			body:   `{"query":"momentum"}`,
			status: http.StatusOK,
			exp:    `{"results":[{"id":1,"data":"momentum chunk","metadata":{"page":0}},{"id":2,"data":"momentum chunk","metadata":{}}]}`,
			k:      3,
		},
		{
			name:   "k",
			body:   `{"query":"momentum","k":1}`,
			status: http.StatusOK,
			exp:    `{"results":[{"id":1,"data":"momentum chunk","metadata":{"page":0}}]}`,
			k:      1,
		},
		{
			name:   "empty",
			body:   ``,
			status: http.StatusBadRequest,
			exp:    `{"error":"Empty JSON"}`,
		},
		{
			name:   "null",
			body:   `null`,
			status: http.StatusBadRequest,
			exp:    `{"error":"Empty JSON"}`,
		},
		{
			name:   "empty object",
			body:   " { \n } ",
			status: http.StatusBadRequest,
			exp:    `{"error":"Empty JSON"}`,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, api.SearchPath, strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.exp, w.Body.String())
			if tc.k > 0 {
				assert.Equal(t, tc.k, searcher.k)
				assert.Equal(t, "momentum", searcher.query)
			}
		})
	}

	invalid := []struct {
		body string
		err  string
	}{
		{body: `{"k":3}`, err: "query is required"},
		{body: `{"query":5}`, err: "Invalid type. Expected: string"},
		{body: `{"query":"q","k":0}`, err: "Must be greater than or equal to 1"},
		{body: `{"query":"q","k":11}`, err: "Must be less than or equal to 10"},
		{body: `{"query":"q","k":"3"}`, err: "Invalid type. Expected: integer"},
		{body: `not json`, err: "invalid character"},
	}
	for _, tc := range invalid {
		t.Run(tc.body, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, api.SearchPath, strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.err)
		})
	}
}

func TestSearchError(t *testing.T) {
	r := api.New(&fakeSearcher{err: vectorstore.ErrEmptyIndex}).Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, api.SearchPath, strings.NewReader(`{"query":"q"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"vector index is empty"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, api.HealthPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, api.SearchPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestVectorSearchClient(t *testing.T) {
	searcher := &fakeSearcher{}
	srv := httptest.NewServer(api.New(searcher).Router())
	defer srv.Close()

	client, err := vectorsearch.NewClient(srv.URL)
	require.NoError(t, err)

	res, err := client.Search(context.Background(), "torque", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].ID)
	assert.Equal(t, "torque chunk", res[0].Data)
	assert.Equal(t, 2, searcher.k)

	out, err := vectorsearch.New(client).Call(context.Background(), " torque ")
	require.NoError(t, err)
	assert.Equal(t, "torque chunk\n\ntorque chunk", out)

	searcher.err = errors.New("embedding failed")
	_, err = client.Search(context.Background(), "torque", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding failed")
}
