package callbacks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/effective-security/academix/callbacks"
	"github.com/effective-security/xlog"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()

	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)

	cb.OnAgentStart(ctx, "Agent", "2+2")
	cb.OnStep(ctx, "Agent", "Thought: t")
	cb.OnParseFailure(ctx, "Agent", "garbage")
	cb.OnToolStart(ctx, "Agent", "Wolfram Alpha", "2+2")
	cb.OnToolEnd(ctx, "Agent", "Wolfram Alpha", "4")
	cb.OnToolError(ctx, "Agent", "Wolfram Alpha", errors.New("down"))
	cb.OnAgentFinish(ctx, "Agent", "4")
	cb.OnAgentError(ctx, "Agent", errors.New("failed"))

	res := buf.String()
	assert.Contains(t, res, "\n> Agent is running\n")
	assert.Contains(t, res, "Step: Agent\nThought: t")
	assert.Contains(t, res, "Parse Failure: Agent\nOutput: garbage")
	assert.Contains(t, res, "Tool Start: Wolfram Alpha (Agent)\nInput: 2+2")
	assert.Contains(t, res, "Tool End: Wolfram Alpha (Agent)\nOutput: 4")
	assert.Contains(t, res, "Tool Error: Wolfram Alpha (Agent): down")
	assert.Contains(t, res, "\n> Agent is finished\n")
	assert.Contains(t, res, "\n> Agent is exiting due to exception...\n")
	assert.Contains(t, res, "Error: failed")

	buf.Reset()
	quiet := callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	quiet.OnStep(ctx, "Agent", "Thought: t")
	quiet.OnToolEnd(ctx, "Agent", "Wolfram Alpha", "4")
	assert.Equal(t, "Tool End: Wolfram Alpha (Agent)\n", buf.String())
}

func TestFanout(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()

	var buf1, buf2 bytes.Buffer
	fan := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeDefault))
	fan.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))
	fan.Add(callbacks.NewNoop())
	fan.Add(callbacks.NewPackageLogger(xlog.NewPackageLogger("github.com/effective-security/academix", "callbacks_test")))

	fan.OnAgentStart(ctx, "ResearchAgent", "q")
	fan.OnStep(ctx, "ResearchAgent", "s")
	fan.OnParseFailure(ctx, "ResearchAgent", "s")
	fan.OnToolStart(ctx, "ResearchAgent", "t", "i")
	fan.OnToolEnd(ctx, "ResearchAgent", "t", "o")
	fan.OnToolError(ctx, "ResearchAgent", "t", errors.New("e"))
	fan.OnAgentFinish(ctx, "ResearchAgent", "a")
	fan.OnAgentError(ctx, "ResearchAgent", errors.New("e"))

	assert.Equal(t, buf1.String(), buf2.String())
	assert.Contains(t, buf1.String(), "> ResearchAgent is finished")
}
