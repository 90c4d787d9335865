package server

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/callbacks"
	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/pkg/llmfactory"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/toolkits/documents"
	"github.com/effective-security/academix/toolkits/mathkit"
	"github.com/effective-security/academix/toolkits/search"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/httpx"
	"github.com/effective-security/academix/tools/serper"
	"github.com/effective-security/academix/tools/tavily"
	"github.com/effective-security/academix/tools/vectorsearch"
	"github.com/effective-security/academix/tools/wikipedia"
	"github.com/effective-security/academix/tools/wolfram"
	"github.com/effective-security/xlog"
)

// Agent names, used to map the models in the llm config
const (
	MainAgentName     = "main agent"
	ResearchAgentName = "research agent"
	DocumentAgentName = "document agent"
	// LatexModelName is the tool_models key of the LaTeX chains
	LatexModelName = "latex"
	// WrapperModelName is the tool_models key of the tool variables chains
	WrapperModelName = "wrapper"
)

// MaxIterations of the agents served by the API
const MaxIterations = 10

// LibraryEngine is the search engine over the vector service
const LibraryEngine = "library"

// Agents builds the agents of a request
type Agents interface {
	MainAgent() (agent.Invoker, error)
	ResearchAgent() (agent.Invoker, error)
	DocumentTool() (*documents.Tool, error)
}

// Toolset holds the remote tools, a tool is nil when it is not configured
type Toolset struct {
	Calculator tools.Tool
	Wikipedia  tools.Tool
	Google     tools.Tool
	Web        tools.Tool
	Library    tools.Tool
}

// Builder creates the agents from the llm factory and the config
type Builder struct {
	factory    llmfactory.Factory
	cfg        *config.Config
	callback   agent.Callback
	structures []*documents.Structure
	httpClient httpx.Doer
	toolset    *Toolset
}

var _ Agents = (*Builder)(nil)

// BuilderOption configures the Builder
type BuilderOption func(*Builder)

// WithCallback sets the callback of all agents
func WithCallback(cb agent.Callback) BuilderOption {
	return func(b *Builder) {
		b.callback = cb
	}
}

// WithStructures sets the document structures
func WithStructures(list []*documents.Structure) BuilderOption {
	return func(b *Builder) {
		b.structures = list
	}
}

// WithHTTPClient sets the client of the remote tools
func WithHTTPClient(client httpx.Doer) BuilderOption {
	return func(b *Builder) {
		b.httpClient = client
	}
}

// WithToolset replaces the remote tools
func WithToolset(ts *Toolset) BuilderOption {
	return func(b *Builder) {
		b.toolset = ts
	}
}

// NewBuilder returns the Builder
func NewBuilder(factory llmfactory.Factory, cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		factory:    factory,
		cfg:        cfg,
		structures: documents.Structures(),
		callback:   callbacks.NewNoop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.toolset == nil {
		b.toolset = b.remoteTools()
	}
	return b
}

// Toolset returns the remote tools
func (b *Builder) Toolset() *Toolset {
	return b.toolset
}

func (b *Builder) remoteTools() *Toolset {
	ts := &Toolset{}

	var wolframOpts []wolfram.Option
	var serperOpts []serper.Option
	var wikiOpts []wikipedia.Option
	var vsOpts []vectorsearch.Option
	if b.httpClient != nil {
		wolframOpts = append(wolframOpts, wolfram.WithHTTPClient(b.httpClient))
		serperOpts = append(serperOpts, serper.WithHTTPClient(b.httpClient))
		wikiOpts = append(wikiOpts, wikipedia.WithHTTPClient(b.httpClient))
		vsOpts = append(vsOpts, vectorsearch.WithHTTPClient(b.httpClient))
	}

	if t, err := wolfram.New(b.cfg.Tools.WolframAppID, wolframOpts...); err != nil {
		logger.KV(xlog.WARNING, "tool", wolfram.ToolName, "reason", err.Error())
	} else {
		ts.Calculator = t
	}
	if t, err := serper.New(b.cfg.Tools.SerperAPIKey, serperOpts...); err != nil {
		logger.KV(xlog.WARNING, "tool", serper.ToolName, "reason", err.Error())
	} else {
		ts.Google = t
	}
	if t, err := tavily.New(b.cfg.Tools.TavilyAPIKey); err != nil {
		logger.KV(xlog.WARNING, "tool", tavily.ToolName, "reason", err.Error())
	} else {
		ts.Web = t
	}
	if c, err := vectorsearch.NewClient(b.cfg.Server.VectorSearchURL, vsOpts...); err != nil {
		logger.KV(xlog.WARNING, "tool", vectorsearch.ToolName, "reason", err.Error())
	} else {
		ts.Library = vectorsearch.New(c)
	}
	ts.Wikipedia = wikipedia.New(wikiOpts...)
	return ts
}

func (b *Builder) agentOptions(name string) []agent.Option {
	opts := []agent.Option{
		agent.WithName(name),
		agent.WithMaxIterations(MaxIterations),
	}
	if b.callback != nil {
		opts = append(opts, agent.WithCallback(b.callback))
	}
	return opts
}

func (b *Builder) toolModel(name string) (llms.Model, error) {
	m, err := b.factory.ToolModel(name)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get model for %s", name)
	}
	return m, nil
}

func (b *Builder) agentModel(name string) (llms.Model, error) {
	m, err := b.factory.AgentModel(name)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get model for %s", name)
	}
	return m, nil
}

// Engines returns the search engines of the retriever
func (b *Builder) Engines() *search.Engines {
	engines := search.DefaultEngines(b.toolset.Wikipedia, b.toolset.Google, b.toolset.Web)
	if b.toolset.Library != nil {
		engines.Set(LibraryEngine, &search.Engine{
			Name:        LibraryEngine,
			Description: vectorsearch.ToolDescription,
			Tool:        b.toolset.Library,
		})
	}
	return engines
}

// Retriever returns the sub query retriever over the engines
func (b *Builder) Retriever() (*search.Retriever, error) {
	model, err := b.toolModel(search.RetrievalToolName)
	if err != nil {
		return nil, err
	}
	return search.NewRetriever(model, b.Engines())
}

// MathTool returns the Mathematical toolkit
func (b *Builder) MathTool() (tools.Tool, error) {
	model, err := b.agentModel(mathkit.AgentName)
	if err != nil {
		return nil, err
	}
	latex, err := b.toolModel(LatexModelName)
	if err != nil {
		return nil, err
	}
	wrapper, err := b.toolModel(WrapperModelName)
	if err != nil {
		return nil, err
	}
	return mathkit.New(&mathkit.Config{
		Model:        model,
		LatexModel:   latex,
		WrapperModel: wrapper,
		Calculator:   b.toolset.Calculator,
		Callback:     b.callback,
	})
}

// MainAgent returns the agent with the retrieval tool and the math toolkit
func (b *Builder) MainAgent() (agent.Invoker, error) {
	model, err := b.agentModel(MainAgentName)
	if err != nil {
		return nil, err
	}
	r, err := b.Retriever()
	if err != nil {
		return nil, err
	}
	math, err := b.MathTool()
	if err != nil {
		return nil, err
	}
	list := []tools.Tool{search.NewRetrievalTool(r), math}
	return agent.NewAgent(model, list, b.agentOptions(MainAgentName)...), nil
}

// ResearchAgent returns the research agent with the query tool and the math toolkit
func (b *Builder) ResearchAgent() (agent.Invoker, error) {
	model, err := b.agentModel(ResearchAgentName)
	if err != nil {
		return nil, err
	}
	r, err := b.Retriever()
	if err != nil {
		return nil, err
	}
	math, err := b.MathTool()
	if err != nil {
		return nil, err
	}
	list := []tools.Tool{search.NewQueryTool(r), math}
	return agent.NewResearchAgent(model, list, b.agentOptions(ResearchAgentName)...), nil
}

// DocumentTool returns the document writer over the document agent
func (b *Builder) DocumentTool() (*documents.Tool, error) {
	model, err := b.agentModel(DocumentAgentName)
	if err != nil {
		return nil, err
	}
	r, err := b.Retriever()
	if err != nil {
		return nil, err
	}
	math, err := b.MathTool()
	if err != nil {
		return nil, err
	}
	list := []tools.Tool{search.NewRetrievalTool(r), math}
	a := agent.NewDocumentAgent(model, list, b.agentOptions(DocumentAgentName)...)
	return documents.NewTool(a, b.structures), nil
}
