package chatmodel

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// Sources of a chat.
const (
	SourceHTTP    = "http"
	SourceDiscord = "discord"
	SourceCLI     = "cli"
)

// ErrInvalidChatContext is returned when a chat ID is required but missing.
var ErrInvalidChatContext = errors.New("invalid chat context")

// ChatContext identifies the conversation a request belongs to and the
// run within it. Callbacks key their state by both IDs.
type ChatContext interface {
	// GetChatID returns the conversation ID, e.g. Discord channel ID
	GetChatID() string
	// RunID is unique per request
	RunID() string
	// Source is one of the Source constants
	Source() string
}

type chatContext struct {
	chatID string
	runID  string
	source string
}

func (c *chatContext) GetChatID() string { return c.chatID }
func (c *chatContext) RunID() string     { return c.runID }
func (c *chatContext) Source() string    { return c.source }

// NewChatContext returns a ChatContext with a fresh run ID;
// an empty chatID is generated too.
func NewChatContext(chatID, source string) ChatContext {
	return &chatContext{
		chatID: values.StringsCoalesce(chatID, NewChatID()),
		runID:  NewChatID(),
		source: source,
	}
}

type contextKey struct{}

// WithChatContext attaches chatCtx to ctx.
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, contextKey{}, chatCtx)
}

// GetChatContext returns the ChatContext of ctx, or nil.
func GetChatContext(ctx context.Context) ChatContext {
	c, _ := ctx.Value(contextKey{}).(ChatContext)
	return c
}

// EnsureChatContext returns ctx unchanged when it already carries a
// ChatContext, otherwise a child context with a new one.
func EnsureChatContext(ctx context.Context, source string) (context.Context, ChatContext) {
	if c := GetChatContext(ctx); c != nil {
		return ctx, c
	}
	c := NewChatContext("", source)
	return WithChatContext(ctx, c), c
}

// GetChatID returns the chat ID of ctx, or empty string.
func GetChatID(ctx context.Context) string {
	if c := GetChatContext(ctx); c != nil {
		return c.GetChatID()
	}
	return ""
}

// NewChatID returns a new flake ID.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
