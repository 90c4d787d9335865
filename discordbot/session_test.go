package discordbot_test

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// fakeSession keeps the channel messages in memory
type fakeSession struct {
	lock      sync.Mutex
	messages  []*discordgo.Message
	byID      map[string]*discordgo.Message
	edits     int
	responses []*discordgo.InteractionResponse
	followups []string
	sendErr   error
}

func newFakeSession() *fakeSession {
	return &fakeSession{byID: map[string]*discordgo.Message{}}
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	m := &discordgo.Message{
		ID:        strconv.Itoa(len(f.messages) + 1),
		ChannelID: channelID,
		Content:   content,
	}
	f.messages = append(f.messages, m)
	f.byID[m.ID] = m
	return m, nil
}

func (f *fakeSession) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	m, ok := f.byID[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, errors.Errorf("unknown message: %s", messageID)
	}
	m.Content = content
	f.edits++
	return m, nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.followups = append(f.followups, data.Content)
	return &discordgo.Message{Content: data.Content}, nil
}

// contents returns the current content of the messages in the channel
func (f *fakeSession) contents(channelID string) []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	var list []string
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			list = append(list, m.Content)
		}
	}
	return list
}
