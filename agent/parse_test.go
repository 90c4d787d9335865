package agent_test

import (
	"testing"

	"github.com/effective-security/academix/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toolNames = map[string]bool{"Wolfram Alpha": true, "Retrieval tool": true}

func TestParse_Agent(t *testing.T) {
	tcs := []struct {
		name string
		text string
		exp  *agent.Step
	}{
		{
			name: "action",
			text: "Thought: compute it\nTool: Wolfram Alpha\nTool Input: 2+2\nObservation: 4",
			exp:  &agent.Step{Kind: agent.StepAction, Thought: "compute it", Tool: "Wolfram Alpha", Input: "2+2"},
		},
		{
			name: "action wins over answer",
			text: "Thought: t\nTool: Wolfram Alpha\nTool Input: x\nObservation:\nFinal Answer: 1",
			exp:  &agent.Step{Kind: agent.StepAction, Thought: "t", Tool: "Wolfram Alpha", Input: "x"},
		},
		{
			name: "answer",
			text: "Thought: I now know the final answer\nFinal Answer:  4 \n",
			exp:  &agent.Step{Kind: agent.StepAnswer, Answer: "4"},
		},
		{
			name: "multiline answer",
			text: "Thought: done\nFinal Answer: line 1\nline 2",
			exp:  &agent.Step{Kind: agent.StepAnswer, Answer: "line 1\nline 2"},
		},
		{
			name: "unknown tool",
			text: "Thought: t\nTool: Calculator\nTool Input: 2+2\nObservation:",
		},
		{
			name: "missing thought",
			text: "Tool: Wolfram Alpha\nTool Input: 2+2\nObservation:",
		},
		{
			name: "out of order",
			text: "Thought: t\nTool Input: 2+2\nTool: Wolfram Alpha\nObservation:",
		},
		{
			name: "answer without new line",
			text: "Final Answer: 4",
		},
		{
			name: "free text",
			text: "I think the answer is 4",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, agent.Parse(agent.AgentFormat, tc.text, toolNames))
		})
	}
}

func TestParse_Custom(t *testing.T) {
	step := agent.Parse(agent.CustomFormat, "Thought: t\nAction: Retrieval tool\nAction Input: who\nObservation:", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, "Retrieval tool", step.Tool)
	assert.Equal(t, "who", step.Input)

	// the Tool keyword is not the action of this format
	assert.Nil(t, agent.Parse(agent.CustomFormat, "Thought: t\nTool: Retrieval tool\nTool Input: who\nObservation:", toolNames))
}

func TestParse_Research(t *testing.T) {
	f := agent.ResearchFormat

	step := agent.Parse(f, "Insight: limits are unique\nReflection: cite the proof\nmore text", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, &agent.Step{Kind: agent.StepNote, Note: "limits are unique", Reflection: "cite the proof"}, step)

	// the earlier of Observation and Reflection wins
	step = agent.Parse(f, "Thought: t\nTool: Wolfram Alpha\nTool Input: x\nObservation: y\nInsight: i\nReflection: r", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, agent.StepAction, step.Kind)

	step = agent.Parse(f, "Insight: i\nReflection: r\nThought: t\nTool: Wolfram Alpha\nTool Input: x\nObservation: y", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, agent.StepNote, step.Kind)

	step = agent.Parse(f, "Thought: I know the final answer\nFinal Answer: all insights", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, "all insights", step.Answer)

	assert.Nil(t, agent.Parse(f, "Thought: x\nReflection: r", toolNames))
}

func TestParse_Document(t *testing.T) {
	f := agent.DocumentFormat

	step := agent.Parse(f, "Thought: intro first\nParagraph: Let f be a function.\nReflection: add examples\nignored", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, &agent.Step{Kind: agent.StepNote, Thought: "intro first", Note: "Let f be a function.", Reflection: "add examples"}, step)

	step = agent.Parse(f, "Thought: done\nDocument: # Title\nbody", toolNames)
	require.NotNil(t, step)
	assert.Equal(t, &agent.Step{Kind: agent.StepAnswer, Answer: "# Title\nbody"}, step)

	// Final Answer is not the answer keyword of documents
	assert.Nil(t, agent.Parse(f, "Thought: done\nFinal Answer: x", toolNames))
	// paragraph without reflection
	assert.Nil(t, agent.Parse(f, "Thought: t\nParagraph: p", toolNames))
}

func TestFormat_Keywords(t *testing.T) {
	assert.Equal(t, []string{"Request", "Thought", "Tool", "Tool Input", "Observation", "Final Answer"}, agent.AgentFormat.Keywords())
	assert.Equal(t, []string{"Requirements", "Progress", "Thought", "Tool", "Tool Input", "Observation", "Paragraph", "Reflection", "Document"}, agent.DocumentFormat.Keywords())
	assert.Equal(t, "action", agent.StepAction.String())
	assert.Equal(t, "unknown", agent.StepKind(0).String())
}
