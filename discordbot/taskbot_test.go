package discordbot_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/discordbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamer struct {
	chunks []string
	err    error
	text   string
}

func (f *fakeStreamer) MathStream(_ context.Context, text string) (<-chan string, error) {
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan string, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

// endlessStreamer streams until the context is cancelled
type endlessStreamer struct {
	done chan struct{}
}

func (f *endlessStreamer) MathStream(ctx context.Context, _ string) (<-chan string, error) {
	ch := make(chan string)
	go func() {
		defer close(f.done)
		defer close(ch)
		for {
			select {
			case ch <- "Thought: still thinking\n":
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func command(name, message string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "42", Username: "student"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: name,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "message", Type: discordgo.ApplicationCommandOptionString, Value: message},
			},
		},
	}
}

func TestTaskBot_Commands(t *testing.T) {
	b := discordbot.NewTaskBot(&fakeStreamer{}, "1")
	var names []string
	for _, c := range b.Commands() {
		names = append(names, c.Name)
		require.Len(t, c.Options, 1)
		assert.True(t, c.Options[0].Required)
	}
	assert.Equal(t, []string{discordbot.EchoCommand, discordbot.TaskCommand}, names)
	assert.Equal(t, discordgo.IntentGuilds, b.Intents())
}

func TestTaskBot_Echo(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	b := discordbot.NewTaskBot(&fakeStreamer{}, "", discordbot.WithEchoDelay(0))

	require.NoError(t, b.Handle(ctx, s, command(discordbot.EchoCommand, "hi")))
	require.Len(t, s.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, s.responses[0].Type)
	assert.Equal(t, []string{strings.TrimSpace(strings.Repeat("hi ", discordbot.EchoRepeats+1))}, s.contents("c1"))
	assert.Equal(t, discordbot.EchoRepeats, s.edits)
	assert.Equal(t, []string{"**Command:** */echo*"}, s.followups)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	b = discordbot.NewTaskBot(&fakeStreamer{}, "")
	err := b.Handle(ctx, newFakeSession(), command(discordbot.EchoCommand, "hi"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTaskBot_Task(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	api := &fakeStreamer{chunks: []string{"Request: 2+2\n", "Final Answer: 4\n"}}
	b := discordbot.NewTaskBot(api, "")

	require.NoError(t, b.Handle(ctx, s, command(discordbot.TaskCommand, " 2+2 ")))
	assert.Equal(t, "2+2", api.text)
	assert.Equal(t, []string{discordbot.ResponseHeader, "Request: 2+2", "Final Answer: 4"}, s.contents("c1"))
	assert.Equal(t, []string{`<@42>: "2+2"`}, s.followups)

	s = newFakeSession()
	b = discordbot.NewTaskBot(&fakeStreamer{err: errors.New("connection refused")}, "")
	err := b.Handle(ctx, s, command(discordbot.TaskCommand, "2+2"))
	assert.EqualError(t, err, "connection refused")
	assert.Empty(t, s.contents("c1"))
	assert.Len(t, s.followups, 1)
}

func TestTaskBot_Handle(t *testing.T) {
	ctx := context.Background()
	b := discordbot.NewTaskBot(&fakeStreamer{}, "")

	err := b.Handle(ctx, newFakeSession(), command("unknown", "x"))
	assert.EqualError(t, err, "unknown command: unknown")

	s := newFakeSession()
	require.NoError(t, b.Handle(ctx, s, &discordgo.Interaction{Type: discordgo.InteractionPing}))
	assert.Empty(t, s.responses)

	s = newFakeSession()
	s.sendErr = errors.New("forbidden")
	err = b.Handle(ctx, s, command(discordbot.EchoCommand, "hi"))
	assert.EqualError(t, err, "failed to send message: forbidden")
}

func TestTaskBot_TaskStopsStream(t *testing.T) {
	api := &endlessStreamer{done: make(chan struct{})}
	b := discordbot.NewTaskBot(api, "")

	s := newFakeSession()
	s.sendErr = errors.New("discord down")
	err := b.Handle(context.Background(), s, command(discordbot.TaskCommand, "2+2"))
	assert.EqualError(t, err, "failed to send message: discord down")

	select {
	case <-api.done:
	case <-time.After(5 * time.Second):
		t.Fatal("the stream is still open after the task failed")
	}
}
