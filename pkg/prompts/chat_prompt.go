package prompts

import (
	"strings"

	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llmutils"
)

// ChatPromptValue is a prompt value that is a list of chat messages.
type ChatPromptValue []llms.Message

// String returns the chat message slice as a buffer string.
func (v ChatPromptValue) String() string {
	var buf strings.Builder
	llmutils.PrintMessages(&buf, v)
	return buf.String()
}

// Messages returns the ChatMessage slice.
func (v ChatPromptValue) Messages() []llms.Message {
	return v
}

// MessageFormatter renders one chat message.
type MessageFormatter interface {
	FormatMessage(values map[string]any) (llms.Message, error)
}

// MessagePromptTemplate renders a message of a fixed role.
type MessagePromptTemplate struct {
	Role   llms.Role
	Prompt *PromptTemplate
}

// FormatMessage renders the message.
func (m MessagePromptTemplate) FormatMessage(values map[string]any) (llms.Message, error) {
	text, err := m.Prompt.Format(values)
	if err != nil {
		return llms.Message{}, err
	}
	return llms.Message{Role: m.Role, Content: text}, nil
}

// NewSystemMessagePromptTemplate creates a system message template.
func NewSystemMessagePromptTemplate(text string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleSystem, Prompt: MustPromptTemplate(text, inputVariables...)}
}

// NewHumanMessagePromptTemplate creates a human message template.
func NewHumanMessagePromptTemplate(text string, inputVariables []string) MessagePromptTemplate {
	return MessagePromptTemplate{Role: llms.RoleHuman, Prompt: MustPromptTemplate(text, inputVariables...)}
}

// ChatPromptTemplate is a list of message templates.
type ChatPromptTemplate struct {
	Messages []MessageFormatter
}

// NewChatPromptTemplate creates a new chat prompt template.
func NewChatPromptTemplate(messages []MessageFormatter) ChatPromptTemplate {
	return ChatPromptTemplate{Messages: messages}
}

// FormatPrompt renders all messages.
func (c ChatPromptTemplate) FormatPrompt(values map[string]any) (ChatPromptValue, error) {
	res := make(ChatPromptValue, 0, len(c.Messages))
	for _, m := range c.Messages {
		msg, err := m.FormatMessage(values)
		if err != nil {
			return nil, err
		}
		res = append(res, msg)
	}
	return res, nil
}
