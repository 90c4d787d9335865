package bedrock_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llms/bedrock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "hello"}},
			},
		},
		StopReason: types.StopReasonEndTurn,
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(3),
			OutputTokens: aws.Int32(1),
			TotalTokens:  aws.Int32(4),
		},
	}, nil
}

func TestGenerateContent(t *testing.T) {
	fake := &fakeConverse{}
	llm, err := bedrock.New(context.Background(), bedrock.WithClient(fake), bedrock.WithModel("test-model"))
	require.NoError(t, err)
	assert.Equal(t, "test-model", llm.GetName())
	assert.Equal(t, llms.ProviderBedrock, llm.GetProviderType())

	var streamed string
	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.SystemMessage("be brief"),
		llms.HumanMessage("hi"),
	},
		llms.WithStopWords([]string{"\nObservation:"}),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			streamed += string(chunk)
			return nil
		}),
	)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Content)
	assert.Equal(t, "hello", streamed)
	assert.Equal(t, "end_turn", resp.Choices[0].StopReason)
	assert.EqualValues(t, 4, resp.Choices[0].GenerationInfo["TotalTokens"])

	require.NotNil(t, fake.input)
	assert.Equal(t, "test-model", aws.ToString(fake.input.ModelId))
	assert.Equal(t, []string{"\nObservation:"}, fake.input.InferenceConfig.StopSequences)
	require.Len(t, fake.input.System, 1)
	require.Len(t, fake.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, fake.input.Messages[0].Role)
}
