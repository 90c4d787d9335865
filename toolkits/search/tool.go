package search

import (
	"context"
	"strings"

	"github.com/effective-security/academix/tools"
	"github.com/effective-security/xlog"
)

const (
	// RetrievalToolName is the name of the summarizing tool
	RetrievalToolName = "Retrieval tool"
	// QueryToolName is the name of the tool that returns the raw results
	QueryToolName = "Query tool"

	// EmptyQuery is returned for an empty query
	EmptyQuery = "Could not continue with an empty query"
	// RetrievalFailed is returned when any step of the retrieval failed
	RetrievalFailed = "Failed to preform retrieval, might be caused by an error in one of the sub queries. " +
		"Try again, but if you get another failed retrieval it might need some time for the problem to be fixed."
	// QueryFailed is returned when any step of the query failed
	QueryFailed = "Failed to preform query"
)

// RetrievalTool answers with the summary of the sub query results
type RetrievalTool struct {
	r *Retriever
}

var _ tools.Tool = (*RetrievalTool)(nil)

// NewRetrievalTool returns the Retrieval tool
func NewRetrievalTool(r *Retriever) *RetrievalTool {
	return &RetrievalTool{r: r}
}

func (t *RetrievalTool) Name() string {
	return RetrievalToolName
}

func (t *RetrievalTool) Description() string {
	return "Useful for information retrieval from the web using natural language querying."
}

func (t *RetrievalTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return EmptyQuery, nil
	}

	results, err := t.r.Query(ctx, query)
	if err == nil {
		var summary string
		summary, err = t.r.Summarize(ctx, query, results)
		if err == nil {
			return summary, nil
		}
	}

	logger.ContextKV(ctx, xlog.ERROR,
		"tool", RetrievalToolName,
		"err", err.Error(),
	)
	return RetrievalFailed, nil
}

// QueryTool answers with the sub query results
type QueryTool struct {
	r *Retriever
}

var _ tools.Tool = (*QueryTool)(nil)

// NewQueryTool returns the Query tool
func NewQueryTool(r *Retriever) *QueryTool {
	return &QueryTool{r: r}
}

func (t *QueryTool) Name() string {
	return QueryToolName
}

func (t *QueryTool) Description() string {
	return "Useful for natural language querying and fact retrieval."
}

func (t *QueryTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return EmptyQuery, nil
	}

	results, err := t.r.Query(ctx, query)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"tool", QueryToolName,
			"err", err.Error(),
		)
		return QueryFailed, nil
	}

	list := make([]string, len(results))
	for i, res := range results {
		list[i] = "QUERY: " + res.Query + "\nSOURCE: " + res.Source + "\nRESULT: " + res.Result
	}
	return strings.Join(list, "\n\n"), nil
}
