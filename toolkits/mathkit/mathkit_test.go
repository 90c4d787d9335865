package mathkit_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/mocks/mockllms"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/toolkits/mathkit"
	"github.com/effective-security/academix/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// router answers by the kind of the prompt
func router(t *testing.T, agentOutputs ...string) (*mockllms.MockModel, *[]string) {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("router").AnyTimes()

	var lock sync.Mutex
	var seen []string
	step := 0
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			lock.Lock()
			defer lock.Unlock()

			prompt := messages[0].Content
			var out string
			switch {
			case strings.Contains(prompt, "This workflow integrates"):
				seen = append(seen, "agent")
				if step >= len(agentOutputs) {
					return nil, errors.New("no more outputs")
				}
				out = agentOutputs[step]
				step++
			case strings.Contains(prompt, "Here is a documentation of a specific JSON scheme"):
				seen = append(seen, "wrapper")
				out = "```json\n{\"what_is_given\": \"x = 1\", \"math_question\": \"find x+1\"}\n```"
			case strings.Contains(prompt, "Use your abilities to solve"):
				seen = append(seen, "solver")
				assert.Contains(t, prompt, "Given: x = 1\nTask: find x+1")
				out = "x+1 = 2. Question is solved"
			case strings.Contains(prompt, "Rewrite it in LaTeX code"):
				seen = append(seen, "latex")
				assert.Contains(t, prompt, "TEXT: \nx+1 = 2. Question is solved")
				out = "$x+1 = 2$. Question is solved"
			default:
				t.Errorf("unexpected prompt: %s", prompt)
			}
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
		}).AnyTimes()
	return m, &seen
}

func TestTools(t *testing.T) {
	model, _ := router(t)

	_, err := mathkit.Tools(&mathkit.Config{})
	assert.EqualError(t, err, "math toolkit: model is required")

	list, err := mathkit.Tools(&mathkit.Config{Model: model})
	require.NoError(t, err)
	assert.Equal(t, "Math question writer,Math question solver,Math proofreader,LaTeX typer", tools.Names(list))

	calc := tools.NewFunc("Wolfram Alpha", "calc", func(context.Context, string) (string, error) { return "4", nil })
	list, err = mathkit.Tools(&mathkit.Config{Model: model, Calculator: calc})
	require.NoError(t, err)
	assert.Len(t, list, 5)
	assert.Equal(t, "Wolfram Alpha", list[0].Name())
}

func TestToolkit(t *testing.T) {
	model, seen := router(t,
		"Thought: I should solve it\nTool: Math question solver\nTool Input: given x = 1 find x+1\nObservation:",
		"Thought: I now know the final answer\nFinal Answer: $x+1 = 2$",
	)

	tool, err := mathkit.New(&mathkit.Config{Model: model})
	require.NoError(t, err)
	assert.Equal(t, mathkit.ToolName, tool.Name())
	assert.Equal(t, mathkit.ToolDescription, tool.Description())

	out, err := tool.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Could not continue with an empty input", out)

	out, err = tool.Call(context.Background(), "given x = 1 find x+1")
	require.NoError(t, err)
	assert.Equal(t, "$x+1 = 2$", out)
	assert.Equal(t, []string{"agent", "wrapper", "solver", "latex", "agent"}, *seen)
}

func TestToolkit_AgentError(t *testing.T) {
	// the scripted outputs are exhausted on the first step
	model, _ := router(t)

	tool, err := mathkit.New(&mathkit.Config{Model: model, MaxIterations: 2})
	require.NoError(t, err)

	out, err := tool.Call(context.Background(), "2+2")
	require.NoError(t, err)
	assert.Equal(t, "Failed to invoke math agent", out)
}
