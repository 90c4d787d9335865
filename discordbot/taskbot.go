package discordbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// Slash commands of the task bot
const (
	EchoCommand = "echo"
	TaskCommand = "task"
)

const (
	// EchoRepeats is the number of edits of the /echo message
	EchoRepeats = 10
	// DefaultEchoDelay is the delay between the /echo edits
	DefaultEchoDelay = time.Second
)

// Streamer streams the answer of the AI API
type Streamer interface {
	MathStream(ctx context.Context, text string) (<-chan string, error)
}

// TaskBot serves the /echo and /task slash commands
type TaskBot struct {
	api     Streamer
	guildID string
	delay   time.Duration
}

var _ Bot = (*TaskBot)(nil)

// TaskOption configures TaskBot
type TaskOption func(*TaskBot)

// WithEchoDelay sets the delay between the /echo edits
func WithEchoDelay(d time.Duration) TaskOption {
	return func(b *TaskBot) {
		b.delay = d
	}
}

// NewTaskBot returns TaskBot, the commands are registered in the guild,
// or globally when guildID is empty
func NewTaskBot(api Streamer, guildID string, opts ...TaskOption) *TaskBot {
	b := &TaskBot{
		api:     api,
		guildID: guildID,
		delay:   DefaultEchoDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Commands returns the slash commands of the bot
func (b *TaskBot) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        EchoCommand,
			Description: "Echo back a message",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Echo back this message",
					Required:    true,
				},
			},
		},
		{
			Name:        TaskCommand,
			Description: "Ask the AI agent to solve a task",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Write your task here",
					Required:    true,
				},
			},
		},
	}
}

// Intents returns the gateway intents of the bot
func (b *TaskBot) Intents() discordgo.Intent {
	return discordgo.IntentGuilds
}

// Register creates the slash commands and adds the interaction handler
func (b *TaskBot) Register(ctx context.Context, s *discordgo.Session) error {
	for _, cmd := range b.Commands() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, b.guildID, cmd); err != nil {
			return errors.Wrapf(err, "failed to create command %s", cmd.Name)
		}
	}
	s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if err := b.Handle(ctx, s, ic.Interaction); err != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"interaction", ic.ID,
				"err", err.Error())
		}
	})
	return nil
}

// Handle serves the slash command interaction
func (b *TaskBot) Handle(ctx context.Context, s Session, i *discordgo.Interaction) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	data := i.ApplicationCommandData()
	message := optionString(data.Options, "message")

	logger.ContextKV(ctx, xlog.DEBUG,
		"command", data.Name,
		"channel", i.ChannelID,
		"message", slices.StringUpto(message, 64))

	switch data.Name {
	case EchoCommand:
		metricskey.StatsDiscordCommands.IncrCounter(1, data.Name)
		return b.echo(ctx, s, i, message)
	case TaskCommand:
		metricskey.StatsDiscordCommands.IncrCounter(1, data.Name)
		return b.task(ctx, s, i, message)
	}
	return errors.Errorf("unknown command: %s", data.Name)
}

func (b *TaskBot) echo(ctx context.Context, s Session, i *discordgo.Interaction, message string) error {
	if err := deferResponse(ctx, s, i); err != nil {
		return err
	}

	m := NewChannelMessenger(s, i.ChannelID)
	content := message
	id, err := m.Send(ctx, content)
	if err != nil {
		return err
	}
	for range EchoRepeats {
		if err = sleep(ctx, b.delay); err != nil {
			return err
		}
		content += " " + message
		if err = m.Edit(ctx, id, content); err != nil {
			return err
		}
	}
	return followup(ctx, s, i, "**Command:** */echo*")
}

func (b *TaskBot) task(ctx context.Context, s Session, i *discordgo.Interaction, message string) error {
	if err := deferResponse(ctx, s, i); err != nil {
		return err
	}

	// stops the stream reader when rendering fails
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := b.api.MathStream(ctx, message)
	if err != nil {
		_ = followup(ctx, s, i, "**Error:** the AI API is not available")
		return err
	}

	r := NewRenderer(NewChannelMessenger(s, i.ChannelID))
	if err = r.Start(ctx); err != nil {
		return err
	}
	for chunk := range chunks {
		if err = r.Write(ctx, chunk); err != nil {
			return err
		}
	}
	if err = r.Flush(ctx); err != nil {
		return err
	}

	return followup(ctx, s, i, fmt.Sprintf(`%s: "%s"`, mention(i), message))
}

func deferResponse(ctx context.Context, s Session, i *discordgo.Interaction) error {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to defer response")
	}
	return nil
}

func followup(ctx context.Context, s Session, i *discordgo.Interaction, content string) error {
	_, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{Content: content}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to send followup")
	}
	return nil
}

func mention(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Mention()
	}
	if i.User != nil {
		return i.User.Mention()
	}
	return ""
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(o.StringValue())
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
