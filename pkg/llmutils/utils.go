// Package llmutils has helpers for model input and output.
package llmutils

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/x/values"
)

// ExtractJSON returns the JSON document in a model reply, dropping
// code fences and any chatter around it.
func ExtractJSON(text string) []byte {
	return CleanJSON([]byte(StripFences(text)))
}

// CleanJSON cuts everything before the first opening and after the
// last closing bracket, so `Here you go: {...}` becomes `{...}`.
// Input without brackets is returned as is.
func CleanJSON(bs []byte) []byte {
	start := firstIndex(bytes.IndexByte(bs, '{'), bytes.IndexByte(bs, '['))
	if start < 0 {
		return bs
	}
	bs = bs[start:]
	end := max(bytes.LastIndexByte(bs, '}'), bytes.LastIndexByte(bs, ']'))
	if end < 0 {
		return bs
	}
	return bs[:end+1]
}

func firstIndex(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	default:
		return min(a, b)
	}
}

// StripFences removes every "```json" and "```" marker from the text
// and trims the result.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// Truncate cuts the text to at most n bytes without splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// PrintMessages writes one "ROLE: content" line per message.
func PrintMessages(w io.Writer, msgs []llms.Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
	}
}

// CountMessagesContentSize is the number of bytes sent to the model.
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size uint64
	for _, m := range msgs {
		size += uint64(len(m.Role) + len(m.Content))
	}
	return size
}

// CountResponseContentSize is the number of bytes received from the model.
func CountResponseContentSize(resp *llms.ContentResponse) uint64 {
	var size uint64
	for _, c := range resp.Choices {
		size += uint64(len(c.Content))
	}
	return size
}

// CountTokens sums the token usage providers report in GenerationInfo.
func CountTokens(resp *llms.ContentResponse) (in, out, total int64) {
	for _, c := range resp.Choices {
		info := values.MapAny(c.GenerationInfo)
		in += info.Int64("InputTokens")
		out += info.Int64("OutputTokens")
		total += info.Int64("TotalTokens")
	}
	return
}
