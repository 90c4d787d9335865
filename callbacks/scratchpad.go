package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/x/slices"
)

var TimeNowFn = time.Now

// RunStats is the summary of the agent events of one request.
type RunStats struct {
	ChatID string
	RunID  string

	Duration            time.Duration
	AgentRuns           uint32
	AgentRunsSucceeded  uint32
	AgentRunsFailed     uint32
	Steps               uint32
	ParseFailures       uint32
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
}

// Scratchpad collects the events of the agents, and the nested sub agents,
// of a request identified by the chat and run IDs of the ChatContext.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

// StartRun starts collecting the events for the ChatContext of ctx
func (l *Scratchpad) StartRun(ctx context.Context) {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	r := &run{
		stats: RunStats{
			ChatID: chatCtx.GetChatID(),
			RunID:  chatCtx.RunID(),
		},
		chatCtx: chatCtx,
		started: TimeNowFn(),
	}
	l.runs[runKey(chatCtx)] = r
	r.print("*** Run Started ***")
}

// EndRun returns the stats and the transcript of the run
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	r := l.getRun(ctx)
	if r == nil {
		return nil, nil
	}

	stats := r.stats
	stats.Duration = TimeNowFn().Sub(r.started)

	r.print(fmt.Sprintf("Agent runs: %d, Succeeded: %d, Failed: %d",
		stats.AgentRuns,
		stats.AgentRunsSucceeded,
		stats.AgentRunsFailed,
	))
	r.print(fmt.Sprintf("Steps: %d, Parse failures: %d",
		stats.Steps,
		stats.ParseFailures,
	))
	r.print(fmt.Sprintf("Tool calls: %d, Succeeded: %d, Failed: %d",
		stats.ToolsCalls,
		stats.ToolsCallsSucceeded,
		stats.ToolsCallsFailed,
	))
	r.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, runKey(r.chatCtx))
	l.lock.Unlock()

	return &stats, r.w.Bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	chatCtx := chatmodel.GetChatContext(ctx)
	if chatCtx == nil {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[runKey(chatCtx)]
}

// runKey keeps the concurrent requests of a chat apart
func runKey(c chatmodel.ChatContext) string {
	return c.GetChatID() + "." + c.RunID()
}

func (l *Scratchpad) OnAgentStart(ctx context.Context, agentName, subject string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.AgentRuns, 1)
	r.print(agentName, "*** Agent Start ***")
	r.print(agentName, "Subject:", subject)
}

func (l *Scratchpad) OnStep(ctx context.Context, agentName, raw string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.Steps, 1)
	if l.mode == ModeVerbose {
		r.print(agentName, "Step:", raw)
	}
}

func (l *Scratchpad) OnParseFailure(ctx context.Context, agentName, raw string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ParseFailures, 1)
	r.print(agentName, "*** Parse Failure ***", slices.StringUpto(raw, 64))
}

func (l *Scratchpad) OnToolStart(ctx context.Context, agentName, tool, input string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCalls, 1)
	r.print(agentName, tool, "*** Tool Start ***")
	r.print(agentName, tool, "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, agentName, tool, output string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		r.print(agentName, tool, "Output:", output)
	}
	r.print(agentName, tool, "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, agentName, tool string, err error) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.ToolsCallsFailed, 1)
	r.print(agentName, tool, "*** Tool Error ***", err.Error())
}

func (l *Scratchpad) OnAgentFinish(ctx context.Context, agentName, answer string) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.AgentRunsSucceeded, 1)
	if l.mode == ModeVerbose {
		r.print(agentName, "Answer:", answer)
	}
	r.print(agentName, "*** Agent End ***")
}

func (l *Scratchpad) OnAgentError(ctx context.Context, agentName string, err error) {
	r := l.getRun(ctx)
	if r == nil {
		return
	}
	atomic.AddUint32(&r.stats.AgentRunsFailed, 1)
	r.print(agentName, "*** Error ***", err.Error())
}

type run struct {
	chatCtx chatmodel.ChatContext
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp chatID.runID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	ts := TimeNowFn().Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.chatCtx.GetChatID())
	_, _ = r.w.WriteString(".")
	_, _ = r.w.WriteString(r.chatCtx.RunID())
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
