package chains_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/mocks/mockllms"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLLMChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("mock").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			require.Len(t, messages, 1)
			assert.Equal(t, llms.RoleHuman, messages[0].Role)
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "echo: " + messages[0].Content}},
			}, nil
		}).Times(2)

	ch := chains.NewLLMChain("echo", mockLLM, prompts.MustPromptTemplate("say {{.text}}", "text"))
	out, err := ch.Call(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: say hi", out)

	_, err = ch.Call(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, prompts.ErrMissingVariable)

	seq := chains.Sequence(ch, chains.Func(func(_ context.Context, inputs map[string]any) (string, error) {
		return "latex(" + inputs["math_text"].(string) + ")", nil
	}), "math_text")
	out, err = seq.Call(context.Background(), map[string]any{"text": "x"})
	require.NoError(t, err)
	assert.Equal(t, "latex(echo: say x)", out)
}

func TestLLMChain_Streaming(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("mock").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			opts := llms.NewCallOptions(options...)
			require.NotNil(t, opts.StreamingFunc)
			for _, tok := range []string{"```latex", "x^2", "```"} {
				require.NoError(t, opts.StreamingFunc(ctx, []byte(tok)))
			}
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "```latex\nx^2\n```"}},
			}, nil
		})

	s := stream.New()
	ch := chains.NewLLMChain("latex", mockLLM, prompts.MustPromptTemplate("{{.math_text}}")).
		WithCallbacks(stream.NewCodeBlockHandler(s, "latex"))
	out, err := ch.Call(context.Background(), map[string]any{"math_text": "x squared"})
	require.NoError(t, err)
	assert.Equal(t, "```latex\nx^2\n```", out)
	s.Close()

	lines, err := s.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"\n**Tool:**\n", "\n```latex\n", "x^2", "\n```\n"}, lines)
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := chains.Generate(ctx, "nil", nil, nil, nil)
	assert.EqualError(t, err, "chain nil: model is not set")

	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("mock").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(&llms.ContentResponse{}, nil)
	_, err = chains.Generate(ctx, "", mockLLM, []llms.Message{llms.HumanMessage("x")}, nil)
	assert.True(t, errors.Is(err, llms.ErrEmptyResponse))

	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	_, err = chains.Generate(ctx, "x", mockLLM, []llms.Message{llms.HumanMessage("x")}, nil)
	assert.EqualError(t, err, "chain x: failed to generate content: boom")
}

func TestLLMChain_PhaseHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLLM := mockllms.NewMockModel(ctrl)
	mockLLM.EXPECT().GetName().Return("mock").AnyTimes()
	mockLLM.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			opts := llms.NewCallOptions(options...)
			require.True(t, opts.Streaming())
			require.NoError(t, opts.StreamingFunc(ctx, []byte("x^2")))
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "x^2"}}}, nil
		}).Times(2)

	s := stream.New()
	ctx := stream.NewContext(context.Background(), s)
	assert.Same(t, s, stream.FromContext(ctx))
	assert.Nil(t, stream.FromContext(context.Background()))

	ch := chains.NewLLMChain("sub query writer", mockLLM, prompts.MustPromptTemplate("{{.text}}"))
	_, err := ch.Call(ctx, map[string]any{"text": "x"})
	require.NoError(t, err)

	_, err = ch.WithCodeBlock("latex").Call(ctx, map[string]any{"text": "x"})
	require.NoError(t, err)
	s.Close()

	lines, err := s.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"\n**Starting:** sub query writer\n", "\n**Parsing:** sub query writer\n",
		"\n**Tool:**\n", "\n```latex\n", "x^2", "\n```\n",
	}, lines)
}
