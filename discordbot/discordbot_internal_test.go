package discordbot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{""}, splitMessage("", 3))
	assert.Equal(t, []string{"abc"}, splitMessage("abc", 3))
	assert.Equal(t, []string{"abc", "d"}, splitMessage("abcd", 3))
	assert.Equal(t, []string{"жжж", "жж"}, splitMessage(strings.Repeat("ж", 5), 3))
}

func TestCommand(t *testing.T) {
	tcases := []struct {
		content string
		name    string
		exp     string
		ok      bool
	}{
		{"!purpose <@1> tutor", PurposeCommand, "tutor", true},
		{"!purpose <@!1>   tutor  ", PurposeCommand, "tutor", true},
		{"!purpose <@2> tutor", PurposeCommand, "", false},
		{"!stop <@1>", StopCommand, "", true},
		{"please !stop <@1>", StopCommand, "", false},
	}
	for _, tc := range tcases {
		got, ok := command(tc.content, tc.name, "1")
		assert.Equal(t, tc.ok, ok, tc.content)
		assert.Equal(t, tc.exp, got, tc.content)
	}
}

func TestToggles(t *testing.T) {
	assert.True(t, toggles("```go"))
	assert.False(t, toggles("use ```x``` here"))
	assert.False(t, toggles("plain"))
}
