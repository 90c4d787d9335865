package bedrock

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/x/values"
)

const (
	defaultModel     = "anthropic.claude-3-5-haiku-20241022-v1:0"
	defaultMaxTokens = 4096
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("bedrock: no response")

// ConverseAPI is the subset of the Bedrock runtime client used by the LLM.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type options struct {
	modelID string
	client  ConverseAPI
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel allows setting a custom modelId.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithClient allows setting a custom bedrockruntime.Client.
func WithClient(client ConverseAPI) Option {
	return func(o *options) {
		o.client = client
	}
}

// LLM is a Bedrock LLM implementation based on the Converse API.
type LLM struct {
	modelID string
	client  ConverseAPI
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Bedrock LLM implementation.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := &options{
		modelID: defaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "bedrock: failed to load AWS config")
		}
		o.client = bedrockruntime.NewFromConfig(cfg)
	}

	return &LLM{
		client:  o.client,
		modelID: o.modelID,
	}, nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
// Streaming callers receive the whole completion as a single chunk.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)

	system, rest := llms.SplitSystem(messages)
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(values.StringsCoalesce(opts.Model, l.modelID)),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(values.NumbersCoalesce(opts.MaxTokens, defaultMaxTokens))),
		},
	}
	if opts.Temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(float32(opts.Temperature))
	}
	if opts.TopP > 0 {
		input.InferenceConfig.TopP = aws.Float32(float32(opts.TopP))
	}
	if len(opts.StopWords) > 0 {
		input.InferenceConfig.StopSequences = opts.StopWords
	}
	for _, s := range system {
		input.System = append(input.System, &types.SystemContentBlockMemberText{Value: s})
	}
	for _, m := range rest {
		role := types.ConversationRoleUser
		switch m.Role {
		case llms.RoleHuman:
		case llms.RoleAI:
			role = types.ConversationRoleAssistant
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "bedrock: role %v", m.Role)
		}
		input.Messages = append(input.Messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	out, err := l.client.Converse(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: converse failed")
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.WithStack(ErrEmptyResponse)
	}
	var text strings.Builder
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(tb.Value)
		}
	}
	if text.Len() == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	info := map[string]any{}
	if out.Usage != nil {
		info["InputTokens"] = aws.ToInt32(out.Usage.InputTokens)
		info["OutputTokens"] = aws.ToInt32(out.Usage.OutputTokens)
		info["TotalTokens"] = aws.ToInt32(out.Usage.TotalTokens)
	}

	if opts.Streaming() {
		if err := opts.StreamingFunc(ctx, []byte(text.String())); err != nil {
			return nil, errors.Wrap(err, "bedrock: streaming function error")
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        text.String(),
				StopReason:     string(out.StopReason),
				GenerationInfo: info,
			},
		},
	}, nil
}
