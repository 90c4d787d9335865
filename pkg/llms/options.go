package llms

import (
	"context"
)

// StreamingFunc receives generated text as it arrives.
// A non-nil error aborts the generation.
type StreamingFunc func(ctx context.Context, chunk []byte) error

// CallOptions are the per-call generation parameters. Providers ignore the
// ones they do not support; zero values mean "provider default".
type CallOptions struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	StopWords     []string
	StreamingFunc StreamingFunc
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// NewCallOptions applies options in order; later options win.
func NewCallOptions(options ...CallOption) *CallOptions {
	opts := &CallOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

// Streaming reports whether the caller asked for a streamed response.
func (o *CallOptions) Streaming() bool {
	return o.StreamingFunc != nil
}

// WithModel overrides the model the client was created with.
func WithModel(model string) CallOption {
	return func(o *CallOptions) { o.Model = model }
}

// WithMaxTokens limits the length of the completion.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = maxTokens }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) { o.Temperature = temperature }
}

// WithTopP sets nucleus sampling.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) { o.TopP = topP }
}

// WithStopWords stops generation at any of the words. The agent uses it to
// cut the model off before it invents an Observation.
func WithStopWords(stopWords []string) CallOption {
	return func(o *CallOptions) { o.StopWords = stopWords }
}

// WithStreamingFunc turns on streaming.
func WithStreamingFunc(fn StreamingFunc) CallOption {
	return func(o *CallOptions) { o.StreamingFunc = fn }
}
