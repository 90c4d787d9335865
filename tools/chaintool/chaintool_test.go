package chaintool_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/mocks/mockllms"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/tools/chaintool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func wrapperModel(t *testing.T, replies ...string) *mockllms.MockModel {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("mock").AnyTimes()

	i := 0
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			require.Len(t, messages, 1)
			prompt := messages[0].Content
			assert.Contains(t, prompt, "JSON: \n{\n\t\"math_text\": \"The math text\",\n\t\"additional_details\": \"Optional details\"\n}")
			assert.Contains(t, prompt, "REQUEST: \nproofread")
			require.Less(t, i, len(replies))
			reply := replies[i]
			i++
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
		}).AnyTimes()
	return m
}

var vars = chaintool.NewVariables(
	"math_text", "The math text",
	"additional_details", "Optional details",
)

func TestScheme(t *testing.T) {
	assert.Equal(t, "{\n\t\"math_text\": \"The math text\",\n\t\"additional_details\": \"Optional details\"\n}", chaintool.Scheme(vars))
	assert.Equal(t, "{\n\t\n}", chaintool.Scheme(chaintool.NewVariables()))
}

func TestCall(t *testing.T) {
	var got map[string]any
	chain := chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
		got = inputs
		return "proofread: " + inputs["math_text"].(string), nil
	})

	model := wrapperModel(t,
		"```json\n{\"math_text\": \"1+1=2\", \"additional_details\": \"\"}\n```",
		"Sure: {\"math_text\": \"line1\nline2\"}",
		"I need the math text to continue",
	)
	tool := chaintool.New("Math proofreader", "proofreads", model, chain, vars)
	assert.Equal(t, "Math proofreader", tool.Name())
	assert.Equal(t, "proofreads", tool.Description())

	ctx := context.Background()
	out, err := tool.Call(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, chaintool.EmptyRequest, out)

	out, err = tool.Call(ctx, "proofread")
	require.NoError(t, err)
	assert.Equal(t, "proofread: 1+1=2", out)
	assert.Equal(t, map[string]any{"math_text": "1+1=2", "additional_details": ""}, got)

	out, err = tool.Call(ctx, "proofread")
	require.NoError(t, err)
	assert.Equal(t, "proofread: line1\nline2", out)

	out, err = tool.Call(ctx, "proofread")
	require.NoError(t, err)
	assert.Equal(t, chaintool.ParseFailure, out)
}

func TestCall_LenientJSON(t *testing.T) {
	tcases := []struct {
		name  string
		reply string
		exp   string
	}{
		{"trailing_comma", "{\"math_text\": \"x+1=2\", \"additional_details\": \"algebra\",}", "x+1=2"},
		{"single_quotes", "{'math_text': 'x+1=2'}", "x+1=2"},
		{"raw_newline", "```json\n{\"math_text\": \"a\nb\",}\n```", "a\nb"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			chain := chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
				return inputs["math_text"].(string), nil
			})
			tool := chaintool.New("Math proofreader", "proofreads", wrapperModel(t, tc.reply), chain, vars)
			out, err := tool.Call(context.Background(), "proofread")
			require.NoError(t, err)
			assert.Equal(t, tc.exp, out)
		})
	}
}

func TestCall_MissingVariable(t *testing.T) {
	model := wrapperModel(t, `{"additional_details": "x"}`)
	chain := chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
		return "", errors.WithStack(prompts.ErrMissingVariable)
	})
	tool := chaintool.New("Math proofreader", "proofreads", model, chain, vars)
	out, err := tool.Call(context.Background(), "proofread")
	require.NoError(t, err)
	assert.Equal(t, chaintool.ParseFailure, out)
}

func TestCall_ChainError(t *testing.T) {
	model := wrapperModel(t, `{"math_text": "x"}`)
	chain := chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
		return "", errors.New("model is down")
	})
	tool := chaintool.New("Math proofreader", "proofreads", model, chain, vars)
	_, err := tool.Call(context.Background(), "proofread")
	assert.EqualError(t, err, "model is down")
}

func TestCodeTool(t *testing.T) {
	model := wrapperModel(t, `{"math_text": "x^2"}`)
	chain := chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
		return "```latex\n$" + inputs["math_text"].(string) + "$\n```", nil
	})
	tool := chaintool.NewCode("LaTeX typer", "types latex", model, chain, vars, "latex")
	out, err := tool.Call(context.Background(), "proofread")
	require.NoError(t, err)
	assert.Equal(t, "\n```latex\n\n$x^2$\n\n```\n", out)
	assert.Equal(t, 2, strings.Count(out, "```"))
}
