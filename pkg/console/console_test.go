package console_test

import (
	"bytes"
	"testing"

	"github.com/effective-security/academix/pkg/console"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	console.Highlight(&buf, "\nThought: think\n\nTool: Wolfram Alpha\nplain", []string{"Thought", "Tool"})
	assert.Equal(t, "Thought: think\nTool: Wolfram Alpha\nplain\n", buf.String())

	buf.Reset()
	console.Highlight(&buf, "\n\n", nil)
	assert.Empty(t, buf.String())

	buf.Reset()
	console.Bold(&buf, "> Agent is running")
	assert.Equal(t, "> Agent is running\n", buf.String())

	assert.Equal(t, "x Observation: 1", console.HighlightLine("x Observation: 1", []string{"Observation"}))
}
