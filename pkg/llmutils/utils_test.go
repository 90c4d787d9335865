package llmutils_test

import (
	"strings"
	"testing"

	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_CleanJSON(t *testing.T) {
	llmOutput := "\n```json\n\n{\"queries\": [\"a\", \"b\"]}\n\n```\n\n"
	clean := llmutils.CleanJSON([]byte(llmOutput))
	assert.Equal(t, "{\"queries\": [\"a\", \"b\"]}", string(clean))

	llmOutput = "Here you go:\n```json\n\n[{\"engine\": \"google\"}]\n```\n\n"
	clean = llmutils.CleanJSON([]byte(llmOutput))
	assert.Equal(t, "[{\"engine\": \"google\"}]", string(clean))

	assert.Equal(t, "no json", string(llmutils.CleanJSON([]byte("no json"))))
	assert.Equal(t, "{ unterminated", string(llmutils.CleanJSON([]byte("x { unterminated"))))
}

func Test_ExtractJSON(t *testing.T) {
	out := "Sure!\n```json\n{\"queries\": [\"x^2\"]}\n```\nHope it helps."
	assert.Equal(t, `{"queries": ["x^2"]}`, string(llmutils.ExtractJSON(out)))
}

func Test_StripFences(t *testing.T) {
	assert.Equal(t, `{"a": "b"}`, llmutils.StripFences("```json\n{\"a\": \"b\"}\n```"))
	assert.Equal(t, `{"a": "b"}`, llmutils.StripFences("```\n{\"a\": \"b\"}```\n"))
	assert.Equal(t, "plain", llmutils.StripFences(" plain "))
}

func Test_Truncate(t *testing.T) {
	assert.Equal(t, "abc", llmutils.Truncate("abc", 10))
	assert.Equal(t, "ab", llmutils.Truncate("abc", 2))
	// "é" is two bytes, the cut must not split it
	assert.Equal(t, "a", llmutils.Truncate("aé", 2))
}

func Test_Counts(t *testing.T) {
	msgs := []llms.Message{llms.HumanMessage("Hello"), llms.AIMessage("Hi there")}
	assert.Equal(t, uint64(len("human")+5+len("ai")+8), llmutils.CountMessagesContentSize(msgs))

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: "Hello world",
				GenerationInfo: map[string]any{
					"InputTokens":  int64(3),
					"OutputTokens": int64(2),
					"TotalTokens":  int64(5),
				},
			},
		},
	}
	assert.Equal(t, uint64(11), llmutils.CountResponseContentSize(resp))
	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(3), in)
	assert.Equal(t, int64(2), out)
	assert.Equal(t, int64(5), total)
}

func Test_PrintMessages(t *testing.T) {
	var b strings.Builder
	llmutils.PrintMessages(&b, []llms.Message{
		llms.SystemMessage("You are a tutor."),
		llms.HumanMessage("2+2?"),
	})
	assert.Equal(t, "SYSTEM: You are a tutor.\nHUMAN: 2+2?\n", b.String())
}
