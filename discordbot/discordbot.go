// Package discordbot provides the Discord front ends of the agents:
// the task bot with the /echo and /task commands, and the purpose chatbot.
package discordbot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "discordbot")

// MaxMessageLength is the Discord limit of a message content, in runes
const MaxMessageLength = 2000

// Session is the part of the Discord session used by the bots
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Session = (*discordgo.Session)(nil)

// Bot registers its handlers on an open session
type Bot interface {
	// Intents returns the gateway intents the bot needs
	Intents() discordgo.Intent
	// Register adds the handlers, the session is open and its state is ready
	Register(ctx context.Context, s *discordgo.Session) error
}

// Run connects the bot and blocks until ctx is done
func Run(ctx context.Context, token string, bot Bot) error {
	if token == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return errors.Wrap(err, "failed to create discord session")
	}
	s.Identify.Intents = bot.Intents()
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.KV(xlog.INFO, "status", "running", "user", r.User.String())
	})

	if err = s.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord session")
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.KV(xlog.ERROR, "reason", "close", "err", err.Error())
		}
	}()

	if err = bot.Register(ctx, s); err != nil {
		return err
	}

	<-ctx.Done()
	logger.KV(xlog.INFO, "status", "stopped")
	return nil
}

// send posts the content to the channel, splitting it by MaxMessageLength
func send(ctx context.Context, s Session, channelID, content string) error {
	for _, part := range splitMessage(content, MaxMessageLength) {
		if _, err := s.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx)); err != nil {
			return errors.Wrap(err, "failed to send message")
		}
	}
	return nil
}

// splitMessage splits s into parts of at most n runes
func splitMessage(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	var parts []string
	for len(runes) > n {
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
