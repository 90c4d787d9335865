package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chatmodel"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	testStore(t, store.NewMemoryStore())
}

func Test_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := store.NewRedisStore(client, "/test")
	testStore(t, st)

	ctx := context.Background()
	require.NoError(t, st.Add(ctx, "c2", llms.HumanMessage("hi")))
	assert.True(t, mr.Exists("/test/chatstore/messages/c2"))

	// corrupted entries are skipped
	_, err := mr.Push("/test/chatstore/messages/c2", "{not json")
	require.NoError(t, err)
	msgs, err := st.Messages(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	mr.Close()
	_, err = st.Messages(ctx, "c2")
	assert.Error(t, err)
}

func testStore(t *testing.T, st store.MessageStore) {
	ctx := context.Background()

	assert.True(t, errors.Is(st.Reset(ctx, ""), chatmodel.ErrInvalidChatContext))
	assert.True(t, errors.Is(st.Add(ctx, "", llms.HumanMessage("x")), chatmodel.ErrInvalidChatContext))
	_, err := st.Messages(ctx, "")
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidChatContext))
	_, err = st.Purpose(ctx, "")
	assert.Error(t, err)
	assert.Error(t, st.SetPurpose(ctx, "", "x"))

	chatID := "chat1"
	msgs, err := st.Messages(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	purpose, err := st.Purpose(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, purpose)

	require.NoError(t, st.SetPurpose(ctx, chatID, "tutor"))
	require.NoError(t, st.Add(ctx, chatID, llms.HumanMessage("Hello")))
	require.NoError(t, st.Add(ctx, chatID, llms.AIMessage("Hi there!")))

	msgs, err = st.Messages(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, []llms.Message{llms.HumanMessage("Hello"), llms.AIMessage("Hi there!")}, msgs)
	purpose, err = st.Purpose(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, "tutor", purpose)

	for i := range store.MaxMessages + 5 {
		require.NoError(t, st.Add(ctx, chatID, llms.HumanMessage(fmt.Sprintf("m%d", i))))
	}
	msgs, err = st.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, msgs, store.MaxMessages)
	assert.Equal(t, "m5", msgs[0].Content)
	assert.Equal(t, fmt.Sprintf("m%d", store.MaxMessages+4), msgs[len(msgs)-1].Content)

	require.NoError(t, st.Reset(ctx, chatID))
	msgs, err = st.Messages(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	purpose, err = st.Purpose(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, purpose)
}
