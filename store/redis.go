package store

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis store implements the MessageStore interface using Redis as the backend.
// The keys namespace is organized as follows:
// - `/<prefix>/chatstore/messages/<chatID>` list of JSON encoded messages
// - `/<prefix>/chatstore/purpose/<chatID>` the purpose string

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a MessageStore backed by Redis.
func NewRedisStore(client redis.UniversalClient, prefix string) MessageStore {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (m *redisStore) messagesKey(chatID string) string {
	return path.Join(m.prefix, "chatstore", "messages", chatID)
}

func (m *redisStore) purposeKey(chatID string) string {
	return path.Join(m.prefix, "chatstore", "purpose", chatID)
}

func (m *redisStore) Messages(ctx context.Context, chatID string) ([]llms.Message, error) {
	if err := checkChatID(chatID); err != nil {
		return nil, err
	}

	data, err := m.client.LRange(ctx, m.messagesKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messages from Redis")
	}

	messages := make([]llms.Message, 0, len(data))
	for _, item := range data {
		var msg llms.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal message", "chat", chatID, "err", err.Error())
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (m *redisStore) Add(ctx context.Context, chatID string, msg llms.Message) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	key := m.messagesKey(chatID)
	pipe := m.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -MaxMessages, -1)
	if _, err = pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to store message in Redis")
	}
	return nil
}

func (m *redisStore) Reset(ctx context.Context, chatID string) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}

	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.messagesKey(chatID))
	pipe.Del(ctx, m.purposeKey(chatID))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to reset chat in Redis")
	}
	return nil
}

func (m *redisStore) Purpose(ctx context.Context, chatID string) (string, error) {
	if err := checkChatID(chatID); err != nil {
		return "", err
	}

	purpose, err := m.client.Get(ctx, m.purposeKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to get purpose from Redis")
	}
	return purpose, nil
}

func (m *redisStore) SetPurpose(ctx context.Context, chatID, purpose string) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	if err := m.client.Set(ctx, m.purposeKey(chatID), purpose, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to store purpose in Redis")
	}
	return nil
}
