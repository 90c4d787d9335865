// Package chains renders a prompt and calls a model in one step.
// Chains are the building blocks of the tools and the agent step.
package chains

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/stream"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "chains")

// Chain produces text from named inputs.
type Chain interface {
	Call(ctx context.Context, inputs map[string]any) (string, error)
}

// LLMChain renders the prompt as a single human message and calls the model.
type LLMChain struct {
	// Name is used in metrics and logs
	Name    string
	Model   llms.Model
	Prompt  prompts.FormatPrompter
	Options []llms.CallOption
	// Callbacks receive the streamed tokens. When set, the model is called in streaming mode.
	Callbacks []stream.Handler
	// BlockType marks the output as a code block of the type, e.g. latex
	BlockType string
}

var _ Chain = (*LLMChain)(nil)

// NewLLMChain returns a new chain
func NewLLMChain(name string, model llms.Model, prompt prompts.FormatPrompter, opts ...llms.CallOption) *LLMChain {
	return &LLMChain{
		Name:    name,
		Model:   model,
		Prompt:  prompt,
		Options: opts,
	}
}

// WithCallbacks returns a copy of the chain with the stream handlers
func (c *LLMChain) WithCallbacks(handlers ...stream.Handler) *LLMChain {
	cp := *c
	cp.Callbacks = handlers
	return &cp
}

// WithCodeBlock returns a copy of the chain that streams its output as a code block
func (c *LLMChain) WithCodeBlock(blockType string) *LLMChain {
	cp := *c
	cp.BlockType = blockType
	return &cp
}

// Call renders the prompt and returns the model output.
// Without Callbacks, the phase handlers of the token stream in ctx are used.
func (c *LLMChain) Call(ctx context.Context, inputs map[string]any) (string, error) {
	text, err := c.Prompt.Format(inputs)
	if err != nil {
		return "", errors.WithMessagef(err, "chain %s", c.Name)
	}
	handlers := c.Callbacks
	if len(handlers) == 0 {
		handlers = stream.PhaseHandlers(ctx, c.Name, c.BlockType)
	}
	return Generate(ctx, c.Name, c.Model, []llms.Message{llms.HumanMessage(text)}, handlers, c.Options...)
}

// Generate calls the model with the messages and returns the first choice.
// When handlers are given, they receive the tokens as they are generated.
func Generate(ctx context.Context, name string, model llms.Model, messages []llms.Message, handlers []stream.Handler, opts ...llms.CallOption) (string, error) {
	if model == nil {
		return "", errors.Newf("chain %s: model is not set", name)
	}

	name = values.StringsCoalesce(name, "chain")
	modelName := model.GetName()

	if len(handlers) > 0 {
		for _, h := range handlers {
			h.OnStart(ctx)
		}
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			for _, h := range handlers {
				h.OnToken(ctx, string(chunk))
			}
			return nil
		}))
	}

	bytesSent := llmutils.CountMessagesContentSize(messages)
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), name, modelName)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), name, modelName)

	started := time.Now()
	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", errors.Wrapf(err, "chain %s: failed to generate content", name)
	}

	for _, h := range handlers {
		h.OnEnd(ctx)
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), name, modelName)
	tokensIn, tokensOut, _ := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), name, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), name, modelName)

	if len(resp.Choices) == 0 {
		return "", errors.WithStack(llms.ErrEmptyResponse)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"chain", name,
		"model", modelName,
		"bytes_sent", bytesSent,
		"elapsed", time.Since(started).String(),
	)
	return resp.Choices[0].Content, nil
}

// SequenceChain feeds the output of the first chain to the next one.
type SequenceChain struct {
	First Chain
	Next  Chain
	// Key is the input name of the next chain
	Key string
}

// Sequence returns a chain that calls first, then next with the output under key.
func Sequence(first, next Chain, key string) *SequenceChain {
	return &SequenceChain{First: first, Next: next, Key: key}
}

// Call runs both chains
func (s *SequenceChain) Call(ctx context.Context, inputs map[string]any) (string, error) {
	out, err := s.First.Call(ctx, inputs)
	if err != nil {
		return "", err
	}
	return s.Next.Call(ctx, map[string]any{s.Key: out})
}

// Func adapts a function to the Chain interface.
type Func func(ctx context.Context, inputs map[string]any) (string, error)

// Call calls f
func (f Func) Call(ctx context.Context, inputs map[string]any) (string, error) {
	return f(ctx, inputs)
}
