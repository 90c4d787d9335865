package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/pkg/console"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agent.Callback = (*Noop)(nil)
	_ agent.Callback = (*Printer)(nil)
	_ agent.Callback = (*PackageLogger)(nil)
	_ agent.Callback = (*Fanout)(nil)
	_ agent.Callback = (*Scratchpad)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agent.Callback
}

func NewFanout(callbacks ...agent.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agent.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnAgentStart(ctx context.Context, agentName, subject string) {
	for _, callback := range l.callbacks {
		callback.OnAgentStart(ctx, agentName, subject)
	}
}

func (l *Fanout) OnStep(ctx context.Context, agentName, raw string) {
	for _, callback := range l.callbacks {
		callback.OnStep(ctx, agentName, raw)
	}
}

func (l *Fanout) OnParseFailure(ctx context.Context, agentName, raw string) {
	for _, callback := range l.callbacks {
		callback.OnParseFailure(ctx, agentName, raw)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, agentName, tool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, agentName, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, agentName, tool, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, agentName, tool, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, agentName, tool string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, agentName, tool, err)
	}
}

func (l *Fanout) OnAgentFinish(ctx context.Context, agentName, answer string) {
	for _, callback := range l.callbacks {
		callback.OnAgentFinish(ctx, agentName, answer)
	}
}

func (l *Fanout) OnAgentError(ctx context.Context, agentName string, err error) {
	for _, callback := range l.callbacks {
		callback.OnAgentError(ctx, agentName, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnAgentStart(context.Context, string, string)        {}
func (l *Noop) OnStep(context.Context, string, string)              {}
func (l *Noop) OnParseFailure(context.Context, string, string)      {}
func (l *Noop) OnToolStart(context.Context, string, string, string) {}
func (l *Noop) OnToolEnd(context.Context, string, string, string)   {}
func (l *Noop) OnToolError(context.Context, string, string, error)  {}
func (l *Noop) OnAgentFinish(context.Context, string, string)       {}
func (l *Noop) OnAgentError(context.Context, string, error)         {}

// Printer is a callback handler that prints the run banners to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnAgentStart(ctx context.Context, agentName, subject string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	console.Bold(l.Out, fmt.Sprintf("\n> %s is running\n", agentName))
}

func (l *Printer) OnStep(ctx context.Context, agentName, raw string) {
	if l.Mode != ModeVerbose {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Step: %s\n%s\n", agentName, raw)
}

func (l *Printer) OnParseFailure(ctx context.Context, agentName, raw string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Parse Failure: %s\n", agentName)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", raw)
	}
}

func (l *Printer) OnToolStart(ctx context.Context, agentName, tool, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s (%s)\n", tool, agentName)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Input: %s\n", input)
	}
}

func (l *Printer) OnToolEnd(ctx context.Context, agentName, tool, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s (%s)\n", tool, agentName)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, agentName, tool string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s (%s): %s\n", tool, agentName, err.Error())
}

func (l *Printer) OnAgentFinish(ctx context.Context, agentName, answer string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	console.Bold(l.Out, fmt.Sprintf("\n> %s is finished\n", agentName))
}

func (l *Printer) OnAgentError(ctx context.Context, agentName string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	console.Bold(l.Out, fmt.Sprintf("\n> %s is exiting due to exception...\n", agentName))
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Error: %s\n", err.Error())
	}
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnAgentStart(ctx context.Context, agentName, subject string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_start",
		"agent", agentName,
		"subject", slices.StringUpto(subject, 64),
	)
}

func (l *PackageLogger) OnStep(ctx context.Context, agentName, raw string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_step",
		"agent", agentName,
		"output", slices.StringUpto(raw, 64),
	)
}

func (l *PackageLogger) OnParseFailure(ctx context.Context, agentName, raw string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_parse_failure",
		"agent", agentName,
		"output", raw,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, agentName, tool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"agent", agentName,
		"tool", tool,
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, agentName, tool, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"agent", agentName,
		"tool", tool,
		"output", slices.StringUpto(output, 64),
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, agentName, tool string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"agent", agentName,
		"tool", tool,
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnAgentFinish(ctx context.Context, agentName, answer string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_finish",
		"agent", agentName,
		"answer", slices.StringUpto(answer, 64),
	)
}

func (l *PackageLogger) OnAgentError(ctx context.Context, agentName string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "agent_error",
		"agent", agentName,
		"err", err.Error(),
	)
}
