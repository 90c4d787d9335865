package agent

import (
	"context"
	"strings"

	"github.com/effective-security/academix/tools"
	"github.com/effective-security/xlog"
)

// Invoker runs an agent
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, subject string, opts ...InvokeOption) (string, error)
}

// AgentTool exposes an agent as a tool of another agent.
type AgentTool struct {
	agent       Invoker
	name        string
	description string
}

var _ tools.Tool = (*AgentTool)(nil)

// AsTool returns a tool that invokes the agent with the tool input.
// Failures are returned as observations, so the calling agent can continue.
func AsTool(a Invoker, name, description string) *AgentTool {
	return &AgentTool{
		agent:       a,
		name:        name,
		description: description,
	}
}

func (t *AgentTool) Name() string {
	return t.name
}

func (t *AgentTool) Description() string {
	return t.description
}

func (t *AgentTool) Call(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "Could not continue with an empty input", nil
	}
	answer, err := t.agent.Invoke(ctx, input)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"tool", t.name,
			"agent", t.agent.Name(),
			"err", err.Error(),
		)
		return "Failed to invoke " + t.agent.Name(), nil
	}
	return answer, nil
}
