package agent

import "context"

// Callback receives the events of an agent run.
type Callback interface {
	OnAgentStart(ctx context.Context, agentName, subject string)
	OnStep(ctx context.Context, agentName, raw string)
	OnParseFailure(ctx context.Context, agentName, raw string)
	OnToolStart(ctx context.Context, agentName, tool, input string)
	OnToolEnd(ctx context.Context, agentName, tool, output string)
	OnToolError(ctx context.Context, agentName, tool string, err error)
	OnAgentFinish(ctx context.Context, agentName, answer string)
	OnAgentError(ctx context.Context, agentName string, err error)
}
