// Package api exposes the vector store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/effective-security/academix/pkg/schema"
	"github.com/effective-security/academix/pkg/webutil"
	"github.com/effective-security/academix/vectorstore"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "vectorstore/api")

// Routes
const (
	SearchPath = "/vector/search"
	HealthPath = "/health"
)

// DefaultK is the number of results when k is omitted
const DefaultK = 3

// MaxBodySize is the limit of the request body
const MaxBodySize = 1 << 20

// SearchRequest is the body of the search request
type SearchRequest struct {
	Query string `json:"query" jsonschema:"title=Query,description=Query to search for relevant content"`
	K     int    `json:"k,omitempty" jsonschema:"minimum=1,maximum=10,default=3"`
}

// Result is a single search result, ids start from 1
type Result struct {
	ID       int            `json:"id"`
	Data     string         `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResponse is the body of the search response
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Searcher is implemented by vectorstore.Store
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vectorstore.Match, error)
}

var requestSchema = schema.MustNew(reflect.TypeOf(SearchRequest{}))

// Handler serves the vector store API
type Handler struct {
	searcher Searcher
}

// New returns the API handler
func New(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// Router returns the chi router with the API routes
func (h *Handler) Router() *chi.Mux {
	r := webutil.NewRouter(false)
	h.Register(r)
	return r
}

// Register adds the API routes to the router
func (h *Handler) Register(r chi.Router) {
	r.Post(SearchPath, h.search)
	r.Get(HealthPath, h.health)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	webutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err != nil {
		webutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch strings.Join(strings.Fields(string(body)), "") {
	case "", "null", "{}":
		webutil.WriteError(w, http.StatusBadRequest, "Empty JSON")
		return
	}

	if err = requestSchema.Validate(body); err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "validate", "err", err.Error())
		webutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SearchRequest
	if err = json.Unmarshal(body, &req); err != nil {
		webutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.K == 0 {
		req.K = DefaultK
	}

	matches, err := h.searcher.Search(ctx, req.Query, req.K)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "search", "err", err.Error())
		webutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := SearchResponse{Results: make([]Result, len(matches))}
	for i, m := range matches {
		md := m.Metadata
		if md == nil {
			md = map[string]any{}
		}
		res.Results[i] = Result{
			ID:       i + 1,
			Data:     m.Content,
			Metadata: md,
		}
	}
	webutil.WriteJSON(w, http.StatusOK, res)
}
