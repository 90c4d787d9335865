package openai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/x/values"
)

var (
	// ErrEmptyResponse is returned when the API returns no choices.
	ErrEmptyResponse = errors.New("no response")
	// ErrMissingToken is returned when no API token was configured.
	ErrMissingToken = errors.New("missing the OpenAI API key, set it in the OPENAI_API_KEY environment variable")
	// ErrUnexpectedResponseLength is returned when the number of embeddings
	// does not match the number of inputs.
	ErrUnexpectedResponseLength = errors.New("unexpected length of response")
)

// LLM is an OpenAI compatible chat model and embedder.
type LLM struct {
	client *openaiclient.Client
}

var (
	_ llms.Model    = (*LLM)(nil)
	_ llms.Embedder = (*LLM)(nil)
)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client: c,
	}, nil
}

func newClient(opts ...Option) (*openaiclient.Client, error) {
	s := loadSettings(opts)
	if s.token == "" {
		return nil, ErrMissingToken
	}
	return openaiclient.New(s.provider, s.model, s.token, s.baseURL, s.organization,
		s.apiVersion, s.doer, s.embeddingModel)
}

// GetName returns the default model name.
func (o *LLM) GetName() string {
	return values.StringsCoalesce(o.client.Model, openaiclient.DefaultChatModel)
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	if openaiclient.IsAzure(o.client.Provider) {
		return llms.ProviderAzure
	}
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)

	chatMsgs := make([]openaiclient.ChatMessage, 0, len(messages))
	for _, mc := range messages {
		msg := openaiclient.ChatMessage{Content: mc.Content}
		switch mc.Role {
		case llms.RoleSystem:
			msg.Role = openaiclient.RoleSystem
		case llms.RoleAI:
			msg.Role = openaiclient.RoleAssistant
		case llms.RoleHuman:
			msg.Role = openaiclient.RoleUser
		default:
			return nil, errors.Wrapf(llms.ErrUnexpectedRole, "role %v not supported", mc.Role)
		}
		chatMsgs = append(chatMsgs, msg)
	}

	req := &openaiclient.ChatRequest{
		Model:         opts.Model,
		Messages:      chatMsgs,
		StopWords:     opts.StopWords,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		MaxTokens:     opts.MaxTokens,
		StreamingFunc: opts.StreamingFunc,
	}

	result, err := o.client.CreateChat(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Content,
			StopReason: c.FinishReason,
			GenerationInfo: map[string]any{
				"CompletionTokens": result.CompletionTokens,
				"PromptTokens":     result.PromptTokens,
				"TotalTokens":      result.CompletionTokens + result.PromptTokens,
			},
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// CreateEmbedding creates embeddings for the given input texts.
func (o *LLM) CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error) {
	embeddings, err := o.client.CreateEmbedding(ctx, &openaiclient.EmbeddingRequest{
		Input: inputTexts,
		Model: o.client.EmbeddingModel,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create openai embeddings")
	}
	if len(embeddings) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}
	if len(inputTexts) != len(embeddings) {
		return embeddings, errors.WithStack(ErrUnexpectedResponseLength)
	}
	return embeddings, nil
}
