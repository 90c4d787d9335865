package llms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnexpectedRole is returned when a message role is of an unexpected type.
var ErrUnexpectedRole = errors.New("unexpected role")

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("no response")

// Role is the type of chat message.
type Role string

const (
	// RoleAI is a message sent by an AI.
	RoleAI Role = "ai"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "human"
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
)

// Message is the message sent to a LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns a system message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// HumanMessage returns a human message.
func HumanMessage(text string) Message {
	return Message{Role: RoleHuman, Content: text}
}

// AIMessage returns an AI message.
func AIMessage(text string) Message {
	return Message{Role: RoleAI, Content: text}
}

// MessageFromTextParts is a helper function to create a Message with a role and a
// list of text parts, joined by new lines.
func MessageFromTextParts(role Role, parts ...string) Message {
	return Message{
		Role:    role,
		Content: strings.Join(parts, "\n"),
	}
}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info"`
}

// GenerateFromSinglePrompt is a convenience function for calling an LLM with
// a single string prompt, expecting a single string response.
func GenerateFromSinglePrompt(ctx context.Context, llm Model, prompt string, options ...CallOption) (string, error) {
	msg := []Message{HumanMessage(prompt)}

	resp, err := llm.GenerateContent(ctx, msg, options...)
	if err != nil {
		return "", err
	}

	choices := resp.Choices
	if len(choices) < 1 || choices[0] == nil {
		return "", errors.WithStack(ErrEmptyResponse)
	}
	return choices[0].Content, nil
}

// SplitSystem separates system messages from the conversation, the way
// providers with a dedicated system field expect them.
func SplitSystem(messages []Message) (system []string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
