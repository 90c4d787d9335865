// Package agent implements the step loop of a text based tool using agent.
//
// On every step the agent renders its prompt with the workflow so far,
// calls the model, and parses the output into a tool call, a note or the final answer.
// The workflow is streamed line by line to the consumer of the run.
package agent

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/academix/stream"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "agent")

// DefaultMaxIterations is the number of steps of a run, unless configured.
const DefaultMaxIterations = 10

// ErrMaxIterations describes a run that ended without an answer.
// Invoke does not return it, the answer is empty in that case.
var ErrMaxIterations = errors.New("agent reached max iterations without an answer")

// Agent runs the step loop of a Format with a model and tools.
// The Agent is immutable after creation, every Invoke owns its run state,
// so one Agent can serve concurrent invocations.
type Agent struct {
	name           string
	format         *Format
	model          llms.Model
	tools          []tools.Tool
	toolMap        map[string]tools.Tool
	toolNames      map[string]bool
	toolDesc       string
	toolList       string
	maxIterations  int
	clarifications string
	callback       Callback
	callOptions    []llms.CallOption
	verbose        io.Writer
}

// Option configures the Agent
type Option func(*Agent)

// WithName sets the name of the agent used in logs, metrics and error messages
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithMaxIterations sets the max number of steps
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		a.maxIterations = n
	}
}

// WithClarifications adds instructions to the prompt
func WithClarifications(text string) Option {
	return func(a *Agent) {
		a.clarifications = text
	}
}

// WithCallback sets the callback for the run events
func WithCallback(cb Callback) Option {
	return func(a *Agent) {
		a.callback = cb
	}
}

// WithCallOptions sets the options of the step model call
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(a *Agent) {
		a.callOptions = opts
	}
}

// WithVerbose prints the workflow to w when Invoke is called without a stream
func WithVerbose(w io.Writer) Option {
	return func(a *Agent) {
		a.verbose = w
	}
}

// New returns an Agent for the format
func New(format *Format, model llms.Model, toolset []tools.Tool, opts ...Option) *Agent {
	a := &Agent{
		name:          format.Name,
		format:        format,
		model:         model,
		tools:         toolset,
		toolMap:       tools.Map(toolset),
		toolNames:     make(map[string]bool, len(toolset)),
		toolDesc:      tools.Describe(toolset),
		toolList:      tools.Names(toolset),
		maxIterations: DefaultMaxIterations,
	}
	for _, t := range toolset {
		a.toolNames[t.Name()] = true
	}
	for _, opt := range opts {
		opt(a)
	}
	a.maxIterations = values.NumbersCoalesce(a.maxIterations, DefaultMaxIterations)
	return a
}

// NewAgent returns the decision maker agent
func NewAgent(model llms.Model, toolset []tools.Tool, opts ...Option) *Agent {
	return New(AgentFormat, model, toolset, opts...)
}

// NewCustomAgent returns the question answering agent
func NewCustomAgent(model llms.Model, toolset []tools.Tool, opts ...Option) *Agent {
	return New(CustomFormat, model, toolset, opts...)
}

// NewResearchAgent returns the research agent
func NewResearchAgent(model llms.Model, toolset []tools.Tool, opts ...Option) *Agent {
	return New(ResearchFormat, model, toolset, opts...)
}

// NewDocumentAgent returns the document writing agent
func NewDocumentAgent(model llms.Model, toolset []tools.Tool, opts ...Option) *Agent {
	return New(DocumentFormat, model, toolset, opts...)
}

// Name returns the name of the agent
func (a *Agent) Name() string {
	return a.name
}

// Format returns the workflow format of the agent
func (a *Agent) Format() *Format {
	return a.format
}

// Tools returns the tools of the agent
func (a *Agent) Tools() []tools.Tool {
	return a.tools
}

// InvokeOption configures a single run
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	stream   *stream.Stream
	handlers []stream.Handler
}

// WithStream sets the stream of the run. The stream is closed when the run ends.
func WithStream(s *stream.Stream) InvokeOption {
	return func(c *invokeConfig) {
		c.stream = s
	}
}

// WithStepHandlers streams the tokens of every step model call to the handlers
func WithStepHandlers(handlers ...stream.Handler) InvokeOption {
	return func(c *invokeConfig) {
		c.handlers = handlers
	}
}

// run is the state of one invocation
type run struct {
	subject  string
	workflow strings.Builder
	progress strings.Builder
	answer   string
	stream   *stream.Stream
}

// emit appends text to the workflow and writes it to the stream without the leading new lines
func (r *run) emit(text string) {
	r.workflow.WriteString(text)
	r.stream.Write(strings.TrimLeft(text, "\n"))
}

// Invoke runs the step loop for the subject and returns the answer.
// The answer is empty when the agent did not finish in max iterations.
func (a *Agent) Invoke(ctx context.Context, subject string, opts ...InvokeOption) (string, error) {
	cfg := &invokeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.stream == nil {
		sopts := []stream.Option{stream.WithDiscard()}
		if a.verbose != nil {
			sopts = append(sopts, stream.WithVerbose(a.verbose, a.format.Keywords()...))
		}
		cfg.stream = stream.New(sopts...)
	}

	started := time.Now()
	defer metricskey.PerfAgentRun.MeasureSince(started, a.name)

	r := &run{
		subject: subject,
		stream:  cfg.stream,
	}
	defer r.stream.Close()

	if a.callback != nil {
		a.callback.OnAgentStart(ctx, a.name, subject)
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", a.name,
		"status", "started",
		"subject", slices.StringUpto(subject, 64),
	)

	if a.format.SubjectOnNewLine {
		r.stream.Write(a.format.Subject + ":\n" + subject)
	} else {
		r.stream.Write(a.format.Subject + ": " + subject)
	}

	err := a.loop(ctx, r, cfg)
	if err != nil {
		metricskey.StatsAgentRunsFailed.IncrCounter(1, a.name)
		if a.callback != nil {
			a.callback.OnAgentError(ctx, a.name, err)
		}
		logger.ContextKV(ctx, xlog.ERROR,
			"agent", a.name,
			"status", "failed",
			"err", err.Error(),
		)
		return "", err
	}

	if r.answer == "" {
		metricskey.StatsAgentRunsExhausted.IncrCounter(1, a.name)
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.name,
			"status", "exhausted",
			"reason", ErrMaxIterations.Error(),
			"max_iterations", a.maxIterations,
		)
	} else {
		metricskey.StatsAgentRunsSucceeded.IncrCounter(1, a.name)
	}

	if a.callback != nil {
		a.callback.OnAgentFinish(ctx, a.name, r.answer)
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", a.name,
		"status", "finished",
		"elapsed", time.Since(started).String(),
	)
	return r.answer, nil
}

func (a *Agent) loop(ctx context.Context, r *run, cfg *invokeConfig) error {
	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "agent %s", a.name)
		}

		raw, err := a.step(ctx, r, cfg)
		if err != nil {
			return err
		}
		if a.callback != nil {
			a.callback.OnStep(ctx, a.name, raw)
		}

		step := Parse(a.format, raw, a.toolNames)
		if step == nil {
			metricskey.StatsAgentParseErrors.IncrCounter(1, a.name)
			if a.callback != nil {
				a.callback.OnParseFailure(ctx, a.name, raw)
			}
			logger.ContextKV(ctx, xlog.DEBUG,
				"agent", a.name,
				"status", "parse_failure",
				"iteration", i,
				"output", slices.StringUpto(raw, 64),
			)
			r.emit(a.format.RetryNotice)
			continue
		}
		metricskey.StatsAgentSteps.IncrCounter(1, a.name, step.Kind.String())

		done, err := a.process(ctx, r, step)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

func (a *Agent) step(ctx context.Context, r *run, cfg *invokeConfig) (string, error) {
	workflow := r.workflow.String()
	if a.format.Progress != "" {
		workflow = strings.TrimSpace(workflow)
	}
	prompt, err := a.format.Template.Format(map[string]any{
		"tool_desc":      a.toolDesc,
		"tool_names":     a.toolList,
		"clarifications": a.clarifications,
		"subject":        r.subject,
		"progress":       strings.TrimSpace(r.progress.String()),
		"workflow":       workflow,
	})
	if err != nil {
		return "", errors.WithMessagef(err, "agent %s: failed to render prompt", a.name)
	}

	out, err := chains.Generate(ctx, a.name, a.model, []llms.Message{llms.HumanMessage(prompt)}, cfg.handlers, a.callOptions...)
	if err != nil {
		return "", errors.WithMessagef(err, "agent %s", a.name)
	}
	return out, nil
}

func (a *Agent) process(ctx context.Context, r *run, step *Step) (bool, error) {
	f := a.format
	switch step.Kind {
	case StepAnswer:
		r.answer = step.Answer
		r.emit("\n\n" + KeywordThought + ": " + f.FinalThought)
		r.emit("\n" + f.Answer + ": " + step.Answer)
		return true, nil

	case StepNote:
		if f.NoteThought {
			r.emit("\n\n" + KeywordThought + ": " + step.Thought)
		}
		r.progress.WriteString("\n\n" + step.Note)
		r.emit("\n" + f.Note + ": " + step.Note)
		r.emit("\n" + KeywordReflection + ": " + step.Reflection)
		return false, nil
	}

	r.emit("\n\n" + KeywordThought + ": " + step.Thought)
	r.emit("\n" + f.Action + ": " + step.Tool)
	r.emit("\n" + f.Input + ": " + step.Input)

	if a.callback != nil {
		a.callback.OnToolStart(ctx, a.name, step.Tool, step.Input)
	}
	observation, err := tools.Invoke(ctx, a.toolMap[step.Tool], step.Input)
	if err != nil {
		if a.callback != nil {
			a.callback.OnToolError(ctx, a.name, step.Tool, err)
		}
		return false, errors.WithMessagef(err, "agent %s", a.name)
	}
	if a.callback != nil {
		a.callback.OnToolEnd(ctx, a.name, step.Tool, observation)
	}

	r.emit("\n" + KeywordObservation + ": " + observation)
	return false, nil
}
