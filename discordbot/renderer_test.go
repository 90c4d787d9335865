package discordbot_test

import (
	"context"
	"strings"
	"testing"

	"github.com/effective-security/academix/discordbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, chunks ...string) *fakeSession {
	t.Helper()
	ctx := context.Background()
	s := newFakeSession()
	r := discordbot.NewRenderer(discordbot.NewChannelMessenger(s, "c1"))
	require.NoError(t, r.Start(ctx))
	for _, c := range chunks {
		require.NoError(t, r.Write(ctx, c))
	}
	require.NoError(t, r.Flush(ctx))
	return s
}

func TestRenderer(t *testing.T) {
	tcases := []struct {
		name   string
		chunks []string
		exp    []string
	}{
		{
			name:   "lines",
			chunks: []string{"Request: hi\n", "Thought: x\n", "Final Answer: 4\n"},
			exp:    []string{discordbot.ResponseHeader, "Request: hi", "Thought: x", "Final Answer: 4"},
		},
		{
			name:   "partial chunks",
			chunks: []string{"Req", "uest: hi\nThou", "ght: x"},
			exp:    []string{discordbot.ResponseHeader, "Request: hi", "Thought: x"},
		},
		{
			name:   "empty lines",
			chunks: []string{"a\n\n\nb\n"},
			exp:    []string{discordbot.ResponseHeader, "a", "b"},
		},
		{
			name: "code block",
			chunks: []string{
				"Observation: code\n",
				"```python\n",
				"print(1)\n",
				"\n",
				"x = 2\n",
				"```\n",
				"Final Answer: 4\n",
			},
			exp: []string{
				discordbot.ResponseHeader,
				"Observation: code",
				"```python\nprint(1)\n\nx = 2\n```",
				"Final Answer: 4",
			},
		},
		{
			name:   "inline fences",
			chunks: []string{"use ```x``` here\nnext\n"},
			exp:    []string{discordbot.ResponseHeader, "use ```x``` here", "next"},
		},
		{
			name:   "unicode",
			chunks: []string{"Ответ: ", "π ≈ 3.14\n"},
			exp:    []string{discordbot.ResponseHeader, "Ответ: π ≈ 3.14"},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s := render(t, tc.chunks...)
			assert.Equal(t, tc.exp, s.contents("c1"))
		})
	}
}

func TestRenderer_Limit(t *testing.T) {
	long := strings.Repeat("a", discordbot.MaxMessageLength*2+500)
	s := render(t, long+"\n")
	got := s.contents("c1")
	require.Len(t, got, 4)
	assert.Len(t, got[1], discordbot.MaxMessageLength)
	assert.Len(t, got[2], discordbot.MaxMessageLength)
	assert.Len(t, got[3], 500)

	line := strings.Repeat("b", 1500)
	s = render(t, "```\n", line+"\n", line+"\n", "```\n")
	got = s.contents("c1")
	require.Len(t, got, 3)
	assert.Equal(t, "```\n"+line, got[1])
	assert.Equal(t, line+"\n```", got[2])
}
