package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "store")

// MaxMessages is the number of most recent messages kept per chat.
const MaxMessages = 50

// MessageStore keeps the conversation and the purpose of a chat.
type MessageStore interface {
	// Messages returns the conversation, oldest first
	Messages(ctx context.Context, chatID string) ([]llms.Message, error)
	// Add appends the message, trimming the history to MaxMessages
	Add(ctx context.Context, chatID string, msg llms.Message) error
	// Reset removes the conversation and the purpose
	Reset(ctx context.Context, chatID string) error
	// Purpose returns the purpose, or empty string when the chat is inactive
	Purpose(ctx context.Context, chatID string) (string, error)
	// SetPurpose sets the purpose of the chat
	SetPurpose(ctx context.Context, chatID, purpose string) error
}

func checkChatID(chatID string) error {
	if chatID == "" {
		return errors.WithStack(chatmodel.ErrInvalidChatContext)
	}
	return nil
}
