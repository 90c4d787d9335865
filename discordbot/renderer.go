package discordbot

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// ResponseHeader is the first message of a rendered response
const ResponseHeader = "**Response:**"

const codeFence = "```"

// Messenger posts and updates the messages of a channel
type Messenger interface {
	// Send posts a new message and returns its ID
	Send(ctx context.Context, content string) (string, error)
	// Edit replaces the content of the message
	Edit(ctx context.Context, id, content string) error
}

type channelMessenger struct {
	s         Session
	channelID string
}

// NewChannelMessenger returns Messenger over a Discord channel
func NewChannelMessenger(s Session, channelID string) Messenger {
	return &channelMessenger{s: s, channelID: channelID}
}

func (m *channelMessenger) Send(ctx context.Context, content string) (string, error) {
	msg, err := m.s.ChannelMessageSend(m.channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "failed to send message")
	}
	return msg.ID, nil
}

func (m *channelMessenger) Edit(ctx context.Context, id, content string) error {
	_, err := m.s.ChannelMessageEdit(m.channelID, id, content, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to edit message")
	}
	return nil
}

// Renderer posts a streamed agent answer to Discord.
// Every line starts a new message, except inside a code block,
// where the lines are appended to the message of the opening fence.
// An empty line outside of a code block resets the current message.
type Renderer struct {
	m       Messenger
	id      string
	text    string
	isBlock bool
	pending string
}

// NewRenderer returns Renderer
func NewRenderer(m Messenger) *Renderer {
	return &Renderer{m: m}
}

// Start posts the response header
func (r *Renderer) Start(ctx context.Context) error {
	_, err := r.m.Send(ctx, ResponseHeader)
	return err
}

// Write renders the complete lines of the chunk,
// the incomplete tail is kept until the next Write or Flush
func (r *Renderer) Write(ctx context.Context, chunk string) error {
	r.pending += chunk
	for {
		line, rest, found := strings.Cut(r.pending, "\n")
		if !found {
			return nil
		}
		r.pending = rest
		if err := r.line(ctx, line); err != nil {
			return err
		}
	}
}

// Flush renders the incomplete tail
func (r *Renderer) Flush(ctx context.Context) error {
	if r.pending == "" {
		return nil
	}
	line := r.pending
	r.pending = ""
	return r.line(ctx, line)
}

func (r *Renderer) line(ctx context.Context, line string) error {
	switch {
	case r.isBlock:
		r.isBlock = !toggles(line)
		next := r.text + "\n" + line
		if utf8.RuneCountInString(next) > MaxMessageLength {
			return r.send(ctx, line)
		}
		r.text = next
		return r.m.Edit(ctx, r.id, r.text)
	case line == "":
		r.text = ""
		return nil
	default:
		r.isBlock = toggles(line)
		return r.send(ctx, line)
	}
}

func (r *Renderer) send(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, MaxMessageLength) {
		id, err := r.m.Send(ctx, part)
		if err != nil {
			return err
		}
		r.id = id
		r.text = part
	}
	return nil
}

// toggles returns true when the line opens or closes a code block
func toggles(line string) bool {
	return strings.Count(line, codeFence)%2 == 1
}
