package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "tools")

// ErrToolNotFound is returned when the agent asks for a tool it does not have.
var ErrToolNotFound = errors.New("tool not found")

// Tool is a tool for the llm agent to interact with different applications.
type Tool interface {
	// Name returns the name of the Tool, as the agent writes it in the workflow.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Call executes the tool with the given text input and returns the observation.
	Call(ctx context.Context, input string) (string, error)
}

// Func is a Tool built from a function.
type Func struct {
	ToolName        string
	ToolDescription string
	Fn              func(ctx context.Context, input string) (string, error)
}

var _ Tool = (*Func)(nil)

// NewFunc returns a new Tool that calls fn
func NewFunc(name, description string, fn func(ctx context.Context, input string) (string, error)) *Func {
	return &Func{
		ToolName:        name,
		ToolDescription: description,
		Fn:              fn,
	}
}

func (f *Func) Name() string {
	return f.ToolName
}

func (f *Func) Description() string {
	return f.ToolDescription
}

func (f *Func) Call(ctx context.Context, input string) (string, error) {
	return f.Fn(ctx, input)
}

// Describe returns "name: description" lines for the prompt
func Describe(list []Tool) string {
	lines := make([]string, 0, len(list))
	for _, t := range list {
		lines = append(lines, t.Name()+": "+t.Description())
	}
	return strings.Join(lines, "\n")
}

// Names returns the comma separated tool names
func Names(list []Tool) string {
	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, t.Name())
	}
	return strings.Join(names, ",")
}

// Map returns the tools by name
func Map(list []Tool) map[string]Tool {
	m := make(map[string]Tool, len(list))
	for _, t := range list {
		m[t.Name()] = t
	}
	return m
}

// Invoke calls the tool, recording the metrics of the call.
func Invoke(ctx context.Context, tool Tool, input string) (string, error) {
	if tool == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, "unknown")
		return "", errors.WithStack(ErrToolNotFound)
	}

	name := tool.Name()
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, name)

	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", name,
		"input", slices.StringUpto(input, 64),
	)

	out, err := tool.Call(ctx, input)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		return "", errors.WithMessagef(err, "tool %s", name)
	}
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	return out, nil
}
