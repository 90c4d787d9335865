// Package search provides the retrieval toolkit: the request is broken into
// sub queries, each sub query is routed to the best search engine,
// and the results are summarized.
package search

import (
	"context"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "toolkits/search")

const (
	// MaxSummaryLength is the word count limit of the summary
	MaxSummaryLength = 200
	// MaxParallel is the number of the engines queried at once
	MaxParallel = 4
)

// Engine is a search engine used for the sub queries
type Engine struct {
	Name        string
	Description string
	Tool        tools.Tool
}

// Engines is the ordered set of engines, the first one is the fallback
type Engines = orderedmap.OrderedMap[string, *Engine]

// NewEngines returns the ordered engines
func NewEngines(list ...*Engine) *Engines {
	m := orderedmap.New[string, *Engine]()
	for _, e := range list {
		m.Set(e.Name, e)
	}
	return m
}

// Result is the result of a sub query
type Result struct {
	Query  string
	Source string
	Result string
}

var subQueryPrompt = prompts.MustPromptTemplate(`You are given a query:

QUERY: 
{{.query}}

Break it down to sub queries which are optimized for vector similarity search. Break it down with as few sub queries 
as possible. When writing the sub queries follow the format of the JSON scheme below:

JSON:
{{.json_scheme}}

Pay attention - Write only the JSON scheme and nothing more.

Begin!

JSON:
`, "query", "json_scheme")

const subQueryScheme = `{
    "queries": [
        "1-st sub query",
        "2-nd sub query",
        ...
        "n-th sub query"
    ]
}`

var enginePrompt = prompts.MustPromptTemplate(`You are given a query and a list of query engine names with their description:

QUERY: 
{{.query}}

ENGINES:
{{.engines}}

Decide which engine is best for the query you were given. 
Write the name of the engine you chose in the format of the JSON scheme below:

JSON:
{{.json_scheme}}

Pay attention - Write only the JSON scheme and nothing more.

Begin!

JSON:
`, "query", "engines", "json_scheme")

const engineScheme = `{"engine": "engine name"}`

var summaryPrompt = prompts.MustPromptTemplate(`You are given a main query and the results of several sub queries which were 
derived from the main one. 

MAIN QUERY: 
{{.query}}

RESULTS:
{{.results}}

Summarize the results with the aim of answering the main query. Write only the summary and nothing more. 
Summarize based only on the results you were given. Keep the summary under {{.summary_length}} words.

Begin!

SUMMARY:
`, "query", "results", "summary_length")

// Retriever runs the sub query pipeline
type Retriever struct {
	engines   *Engines
	subQuery  *chains.LLMChain
	chooser   *chains.LLMChain
	summarize *chains.LLMChain
}

// NewRetriever returns the retriever, at least one engine is required
func NewRetriever(model llms.Model, engines *Engines) (*Retriever, error) {
	if model == nil {
		return nil, errors.New("search toolkit: model is required")
	}
	if engines == nil || engines.Len() == 0 {
		return nil, errors.New("search toolkit: at least one engine is required")
	}
	return &Retriever{
		engines:   engines,
		subQuery:  chains.NewLLMChain("sub query writer", model, subQueryPrompt),
		chooser:   chains.NewLLMChain("engine chooser", model, enginePrompt),
		summarize: chains.NewLLMChain("retrieval summary", model, summaryPrompt),
	}, nil
}

// SubQueries breaks the query to sub queries
func (r *Retriever) SubQueries(ctx context.Context, query string) ([]string, error) {
	out, err := r.subQuery.Call(ctx, map[string]any{
		"query":       query,
		"json_scheme": subQueryScheme,
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Queries []string `json:"queries"`
	}
	if err = ljson.Unmarshal(llmutils.ExtractJSON(out), &res); err != nil {
		return nil, errors.Wrapf(err, "invalid sub queries: %s", slices.StringUpto(out, 64))
	}

	// the duplicates are queried once
	var list []string
	seen := map[string]bool{}
	for _, q := range res.Queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		list = append(list, q)
	}
	if len(list) == 0 {
		return nil, errors.New("no sub queries")
	}
	return list, nil
}

// EngineDescriptions renders the engines for the chooser prompt
func (r *Retriever) EngineDescriptions() string {
	var list []string
	for pair := r.engines.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, `"`+pair.Key+`": "`+pair.Value.Description+`"`)
	}
	return "{\n\t" + strings.Join(list, ",\n\t") + "\n}"
}

// ChooseEngine returns the engine for the sub query.
// An unknown engine falls back to the first one.
func (r *Retriever) ChooseEngine(ctx context.Context, query string) (*Engine, error) {
	out, err := r.chooser.Call(ctx, map[string]any{
		"query":       query,
		"engines":     r.EngineDescriptions(),
		"json_scheme": engineScheme,
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Engine string `json:"engine"`
	}
	if err = ljson.Unmarshal(llmutils.ExtractJSON(out), &res); err != nil {
		return nil, errors.Wrapf(err, "invalid engine choice: %s", slices.StringUpto(out, 64))
	}

	name := strings.ToLower(strings.TrimSpace(res.Engine))
	if e, ok := r.engines.Get(name); ok {
		return e, nil
	}

	first := r.engines.Oldest().Value
	logger.ContextKV(ctx, xlog.DEBUG,
		"reason", "unknown_engine",
		"engine", res.Engine,
		"fallback", first.Name,
	)
	return first, nil
}

// Query runs the sub queries on the chosen engines, keeping the order of the sub queries
func (r *Retriever) Query(ctx context.Context, query string) ([]Result, error) {
	subQueries, err := r.SubQueries(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(subQueries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallel)
	for i, sq := range subQueries {
		g.Go(func() error {
			engine, err := r.ChooseEngine(gctx, sq)
			if err != nil {
				return err
			}
			out, err := tools.Invoke(gctx, engine.Tool, sq)
			if err != nil {
				return err
			}
			results[i] = Result{Query: sq, Source: engine.Name, Result: out}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize returns the summary of the results for the main query
func (r *Retriever) Summarize(ctx context.Context, query string, results []Result) (string, error) {
	lines := make([]string, len(results))
	for i, res := range results {
		lines[i] = "SUB QUERY: " + res.Query + "\nSOURCE: " + res.Source + "\nRESULT: " + res.Result
	}
	return r.summarize.Call(ctx, map[string]any{
		"query":          query,
		"results":        strings.Join(lines, "\n"),
		"summary_length": MaxSummaryLength,
	})
}

// DefaultEngines returns wikipedia, google and web engines, skipping nil tools
func DefaultEngines(wikipedia, google, web tools.Tool) *Engines {
	var list []*Engine
	if wikipedia != nil {
		list = append(list, &Engine{Name: "wikipedia", Description: "Largest online collaborative encyclopedia", Tool: wikipedia})
	}
	if google != nil {
		list = append(list, &Engine{Name: "google", Description: "The leading web search engine these days.", Tool: google})
	}
	if web != nil {
		list = append(list, &Engine{Name: "tavily", Description: "Web search engine which answers questions with aggregated results.", Tool: web})
	}
	return NewEngines(list...)
}
