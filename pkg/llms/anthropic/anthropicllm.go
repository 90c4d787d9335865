package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/x/values"
)

var (
	ErrEmptyResponse = errors.New("anthropic: no response")
	ErrMissingToken  = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
)

const (
	DefaultMaxTokens = 4096
)

// LLM is a chat model served by the Anthropic Messages API.
type LLM struct {
	client *anthropic.Client
	model  string
}

var _ llms.Model = (*LLM)(nil)

// New returns a client for the given model; the API key defaults to
// ANTHROPIC_API_KEY.
func New(opts ...Option) (*LLM, error) {
	cfg := newConfig(opts...)
	if cfg.token == "" {
		return nil, ErrMissingToken
	}
	if cfg.model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	client := anthropic.NewClient(cfg.requestOptions()...)
	return &LLM{
		client: &client,
		model:  cfg.model,
	}, nil
}

// GetName returns the model name.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)

	system, rest := llms.SplitSystem(messages)
	sdkMessages := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		switch m.Role {
		case llms.RoleHuman:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llms.RoleAI:
			sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "anthropic: role %v", m.Role)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(values.StringsCoalesce(opts.Model, o.model)),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{
				Text: strings.Join(system, "\n"),
			},
		}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}

	if opts.Streaming() {
		return o.generateStreaming(ctx, params, opts.StreamingFunc)
	}

	result, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}

	var text strings.Builder
	for _, block := range result.Content {
		if content, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    text.String(),
				StopReason: string(result.StopReason),
				GenerationInfo: map[string]any{
					"InputTokens":  result.Usage.InputTokens,
					"OutputTokens": result.Usage.OutputTokens,
					"TotalTokens":  result.Usage.InputTokens + result.Usage.OutputTokens,
					"ID":           result.ID,
				},
			},
		},
	}, nil
}

func (o *LLM) generateStreaming(ctx context.Context, params anthropic.MessageNewParams, streamingFunc func(context.Context, []byte) error) (*llms.ContentResponse, error) {
	stream := o.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var content strings.Builder
	var stopReason string
	var inputTokens, outputTokens int64

	for stream.Next() {
		event := stream.Current()

		switch evt := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			inputTokens = evt.Message.Usage.InputTokens
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
				content.WriteString(delta.Text)
				if err := streamingFunc(ctx, []byte(delta.Text)); err != nil {
					return nil, errors.Wrap(err, "anthropic: streaming function error")
				}
			}
		case anthropic.MessageDeltaEvent:
			stopReason = string(evt.Delta.StopReason)
			outputTokens = evt.Usage.OutputTokens
		}
	}

	if err := stream.Err(); err != nil {
		return nil, errors.Wrap(err, "anthropic: streaming error")
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    content.String(),
				StopReason: stopReason,
				GenerationInfo: map[string]any{
					"InputTokens":  inputTokens,
					"OutputTokens": outputTokens,
					"TotalTokens":  inputTokens + outputTokens,
				},
			},
		},
	}, nil
}
