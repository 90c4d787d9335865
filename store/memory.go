package store

import (
	"context"
	"slices"
	"sync"

	"github.com/effective-security/academix/pkg/llms"
)

type chat struct {
	purpose  string
	messages []llms.Message
}

type inMemory struct {
	mu      sync.RWMutex
	storage map[string]*chat
}

// NewMemoryStore returns a MessageStore that keeps chats in the process memory.
func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(_ context.Context, chatID string) ([]llms.Message, error) {
	if err := checkChatID(chatID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.storage[chatID]; ok {
		return slices.Clone(c.messages), nil
	}
	return nil, nil
}

func (m *inMemory) Add(_ context.Context, chatID string, msg llms.Message) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.getOrCreate(chatID)
	c.messages = append(c.messages, msg)
	if n := len(c.messages); n > MaxMessages {
		c.messages = slices.Clone(c.messages[n-MaxMessages:])
	}
	return nil
}

func (m *inMemory) Reset(_ context.Context, chatID string) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, chatID)
	return nil
}

func (m *inMemory) Purpose(_ context.Context, chatID string) (string, error) {
	if err := checkChatID(chatID); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.storage[chatID]; ok {
		return c.purpose, nil
	}
	return "", nil
}

func (m *inMemory) SetPurpose(_ context.Context, chatID, purpose string) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrCreate(chatID).purpose = purpose
	return nil
}

func (m *inMemory) getOrCreate(chatID string) *chat {
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string]*chat)
	}
	c, ok := m.storage[chatID]
	if !ok {
		c = &chat{}
		m.storage[chatID] = c
	}
	return c
}
