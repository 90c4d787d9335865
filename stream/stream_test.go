package stream_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/effective-security/academix/stream"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_ReadWrite(t *testing.T) {
	s := stream.New()

	text, ok := s.Read()
	assert.True(t, ok)
	assert.Empty(t, text)

	s.Write("Request: 2+2")
	s.Write("Thought: add")
	text, ok = s.Read()
	assert.True(t, ok)
	assert.Equal(t, "Request: 2+2", text)

	assert.False(t, s.Closed())
	s.Close()
	s.Close()
	assert.True(t, s.Closed())
	s.Write("dropped")

	text, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Thought: add", text)

	_, err = s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	_, ok = s.Read()
	assert.False(t, ok)
}

func TestStream_Concurrent(t *testing.T) {
	s := stream.New(stream.WithCapacity(2))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			s.Write("line")
		}
		s.Close()
	}()

	var got []string
	for line := range s.Lines() {
		got = append(got, line)
	}
	wg.Wait()
	assert.Len(t, got, 10)
}

func TestStream_CloseUnblocksWriter(t *testing.T) {
	s := stream.New(stream.WithCapacity(1))
	s.Write("fills the buffer")

	done := make(chan struct{})
	go func() {
		s.Write("blocked")
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer was not released by Close")
	}
}

func TestStream_NextCanceled(t *testing.T) {
	s := stream.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_Verbose(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	s := stream.New(stream.WithVerbose(&buf, "Thought"))
	s.Write("Thought: think")
	s.Close()
	assert.Equal(t, "Thought: think\n", buf.String())

	lines, err := s.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Thought: think"}, lines)
}

func TestHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("token", func(t *testing.T) {
		s := stream.New()
		h := stream.NewTokenHandler(s)
		h.OnStart(ctx)
		h.OnToken(ctx, "Thought: ")
		h.OnToken(ctx, "go")
		h.OnEnd(ctx)
		assert.False(t, s.Closed())

		h.OnToken(ctx, "Final ")
		h.OnToken(ctx, "Answer: 4")
		h.OnEnd(ctx)
		assert.True(t, s.Closed())

		lines, err := s.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Thought: ", "go", "\n", "Final ", "Answer: 4"}, lines)
	})

	t.Run("code", func(t *testing.T) {
		s := stream.New()
		h := stream.NewCodeBlockHandler(s, "latex")
		h.OnStart(ctx)
		h.OnToken(ctx, "```latex")
		h.OnToken(ctx, " latex ")
		h.OnToken(ctx, `\frac{1}{2}`)
		h.OnToken(ctx, "```")
		h.OnEnd(ctx)
		s.Close()

		lines, err := s.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"\n**Tool:**\n", "\n```latex\n", `\frac{1}{2}`, "\n```\n"}, lines)
	})

	t.Run("silent", func(t *testing.T) {
		s := stream.New()
		h := stream.NewSilentPhaseHandler(s, "sub queries")
		h.OnStart(ctx)
		h.OnToken(ctx, "hidden")
		h.OnEnd(ctx)
		s.Close()

		lines, err := s.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"\n**Starting:** sub queries\n", "\n**Parsing:** sub queries\n"}, lines)
	})
}

func TestStream_Discard(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	s := stream.New(stream.WithVerbose(&buf), stream.WithDiscard(), stream.WithCapacity(1))
	s.Write("one")
	s.Write("two")
	s.SetKeywords([]string{"x"})
	text, ok := s.Read()
	assert.True(t, ok)
	assert.Empty(t, text)
	assert.Equal(t, "one\ntwo\n", buf.String())
	s.Close()
}
