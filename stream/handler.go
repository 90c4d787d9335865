package stream

import (
	"context"
	"strings"
)

// Handler receives the token events of a streaming model call.
type Handler interface {
	OnStart(ctx context.Context)
	OnToken(ctx context.Context, token string)
	OnEnd(ctx context.Context)
}

// TokenHandler forwards every token to the stream.
// The stream is closed at the end of a call that produced the final answer.
type TokenHandler struct {
	stream  *Stream
	content strings.Builder
}

// NewTokenHandler returns a handler that forwards tokens to s
func NewTokenHandler(s *Stream) *TokenHandler {
	return &TokenHandler{stream: s}
}

func (h *TokenHandler) OnStart(context.Context) {}

func (h *TokenHandler) OnToken(_ context.Context, token string) {
	h.content.WriteString(strings.ToLower(token))
	h.stream.Write(token)
}

func (h *TokenHandler) OnEnd(context.Context) {
	if strings.Contains(h.content.String(), "final answer:") {
		h.stream.Close()
		return
	}
	h.content.Reset()
	h.stream.Write("\n")
}

// CodeBlockHandler wraps the tokens of a call in a fenced code block.
type CodeBlockHandler struct {
	stream    *Stream
	blockType string
}

// NewCodeBlockHandler returns a handler for a code block of blockType, e.g. latex
func NewCodeBlockHandler(s *Stream, blockType string) *CodeBlockHandler {
	return &CodeBlockHandler{stream: s, blockType: blockType}
}

func (h *CodeBlockHandler) OnStart(context.Context) {
	h.stream.Write("\n**Tool:**\n")
	h.stream.Write("\n```" + h.blockType + "\n")
}

func (h *CodeBlockHandler) OnToken(_ context.Context, token string) {
	t := strings.TrimSpace(token)
	if t == "```"+h.blockType || t == "```" || t == h.blockType {
		return
	}
	h.stream.Write(token)
}

func (h *CodeBlockHandler) OnEnd(context.Context) {
	h.stream.Write("\n```\n")
}

// SilentPhaseHandler reports the start and the end of a call, without its tokens.
type SilentPhaseHandler struct {
	stream *Stream
	name   string
}

// NewSilentPhaseHandler returns a handler for the phase name
func NewSilentPhaseHandler(s *Stream, name string) *SilentPhaseHandler {
	return &SilentPhaseHandler{stream: s, name: name}
}

func (h *SilentPhaseHandler) OnStart(context.Context) {
	h.stream.Write("\n**Starting:** " + h.name + "\n")
}

func (h *SilentPhaseHandler) OnToken(context.Context, string) {}

func (h *SilentPhaseHandler) OnEnd(context.Context) {
	h.stream.Write("\n**Parsing:** " + h.name + "\n")
}
