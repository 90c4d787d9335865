package stream

import "context"

type contextKey struct{}

// NewContext attaches the token stream of a request to ctx.
// The chains called with the returned context report their phases to s.
func NewContext(ctx context.Context, s *Stream) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the token stream of ctx, or nil.
func FromContext(ctx context.Context) *Stream {
	s, _ := ctx.Value(contextKey{}).(*Stream)
	return s
}

// PhaseHandlers returns the handlers for a chain called with ctx:
// a code block of blockType when it is set, a silent phase otherwise.
// It returns nil when ctx has no token stream.
func PhaseHandlers(ctx context.Context, name, blockType string) []Handler {
	s := FromContext(ctx)
	if s == nil {
		return nil
	}
	if blockType != "" {
		return []Handler{NewCodeBlockHandler(s, blockType)}
	}
	return []Handler{NewSilentPhaseHandler(s, name)}
}
