package discordbot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/store"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// Commands of the purpose chatbot, followed by the bot mention
const (
	PurposeCommand   = "!purpose"
	StopCommand      = "!stop"
	RepurposeCommand = "!repurpose"
)

// Replies of the purpose chatbot
const (
	ActivatedReply   = "I am activated, and my purpose is:\n"
	RepurposedReply  = "I am repurposed, my purpose is:\n"
	DeactivatedReply = "I am deactivated."
	InactiveReply    = "I am inactive, to activate me please state my purpose.\n***Hint:** \"!purpose @mention-me write_my_purpose\"*"
)

// ChatBot is a Discord chatbot which serves the purpose stated by the users.
// The purpose and the conversation are kept per channel.
type ChatBot struct {
	model llms.Model
	store store.MessageStore
}

var _ Bot = (*ChatBot)(nil)

// NewChatBot returns ChatBot
func NewChatBot(model llms.Model, ms store.MessageStore) *ChatBot {
	return &ChatBot{
		model: model,
		store: ms,
	}
}

// Intents returns the gateway intents of the bot
func (b *ChatBot) Intents() discordgo.Intent {
	return discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent
}

// Register adds the message handler
func (b *ChatBot) Register(ctx context.Context, s *discordgo.Session) error {
	s.AddHandler(func(s *discordgo.Session, mc *discordgo.MessageCreate) {
		if err := b.Handle(ctx, s, s.State.User.ID, mc.Message); err != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"channel", mc.ChannelID,
				"err", err.Error())
		}
	})
	return nil
}

// Handle serves the message posted in a channel visible to the bot
func (b *ChatBot) Handle(ctx context.Context, s Session, botID string, m *discordgo.Message) error {
	if m.Author == nil || m.Author.ID == botID {
		return nil
	}
	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext(m.ChannelID, chatmodel.SourceDiscord))

	logger.ContextKV(ctx, xlog.DEBUG,
		"author", m.Author.Username,
		"channel", m.ChannelID,
		"content", slices.StringUpto(m.Content, 64))

	purpose, err := b.store.Purpose(ctx, m.ChannelID)
	if err != nil {
		return err
	}

	if purpose == "" {
		if p, ok := command(m.Content, PurposeCommand, botID); ok && p != "" {
			metricskey.StatsDiscordCommands.IncrCounter(1, PurposeCommand)
			if err = b.store.SetPurpose(ctx, m.ChannelID, p); err != nil {
				return err
			}
			return send(ctx, s, m.ChannelID, ActivatedReply+p)
		}
		if mentioned(m, botID) {
			return send(ctx, s, m.ChannelID, InactiveReply)
		}
		return nil
	}

	if _, ok := command(m.Content, StopCommand, botID); ok {
		metricskey.StatsDiscordCommands.IncrCounter(1, StopCommand)
		if err = b.store.Reset(ctx, m.ChannelID); err != nil {
			return err
		}
		return send(ctx, s, m.ChannelID, DeactivatedReply)
	}
	if p, ok := command(m.Content, RepurposeCommand, botID); ok && p != "" {
		metricskey.StatsDiscordCommands.IncrCounter(1, RepurposeCommand)
		if err = b.store.SetPurpose(ctx, m.ChannelID, p); err != nil {
			return err
		}
		return send(ctx, s, m.ChannelID, RepurposedReply+p)
	}

	answer, err := b.Respond(ctx, m.ChannelID, purpose, m.Content)
	if err != nil {
		return err
	}
	return send(ctx, s, m.ChannelID, answer)
}

// turnPrompt renders the new message of the user followed by the purpose
var turnPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewHumanMessagePromptTemplate("{{.content}}", []string{"content"}),
	prompts.NewSystemMessagePromptTemplate("Your purpose: \n {{.purpose}}", []string{"purpose"}),
})

// Respond returns the model answer to the message.
// The conversation is extended only when the model answered.
func (b *ChatBot) Respond(ctx context.Context, chatID, purpose, content string) (string, error) {
	history, err := b.store.Messages(ctx, chatID)
	if err != nil {
		return "", err
	}
	turn, err := turnPrompt.FormatPrompt(map[string]any{
		"content": content,
		"purpose": purpose,
	})
	if err != nil {
		return "", err
	}
	messages := make([]llms.Message, 0, len(history)+len(turn))
	messages = append(messages, history...)
	messages = append(messages, turn.Messages()...)

	resp, err := b.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", errors.WithMessage(err, "failed to generate response")
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil || resp.Choices[0].Content == "" {
		return "", errors.WithStack(llms.ErrEmptyResponse)
	}
	answer := resp.Choices[0].Content

	for _, msg := range []llms.Message{turn[0], llms.AIMessage(answer)} {
		if err = b.store.Add(ctx, chatID, msg); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// command returns the text after "<name> <@botID>"
func command(content, name, botID string) (string, bool) {
	for _, m := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if rest, ok := strings.CutPrefix(content, name+" "+m); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func mentioned(m *discordgo.Message, botID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == botID {
			return true
		}
	}
	return false
}
