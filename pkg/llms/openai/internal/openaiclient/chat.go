package openaiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3"
	"github.com/tidwall/sjson"
)

const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// ChatMessage is a text message in a chat request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest is a request to complete a chat completion.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	TopP        float64
	MaxTokens   int
	StopWords   []string

	// StreamingFunc is a function to be called for each chunk of a streaming response.
	// Return an error to stop streaming early.
	StreamingFunc func(ctx context.Context, chunk []byte) error
}

// ChatChoice is one of the completions.
type ChatChoice struct {
	Content      string
	FinishReason string
}

// ChatResponse is the result of CreateChat.
type ChatResponse struct {
	Choices          []ChatChoice
	PromptTokens     int64
	CompletionTokens int64
}

func (r *ChatRequest) params() openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(r.Messages))
	for _, m := range r.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(r.Model),
		Messages: msgs,
	}
	if r.Temperature > 0 {
		p.Temperature = openai.Float(r.Temperature)
	}
	if r.TopP > 0 {
		p.TopP = openai.Float(r.TopP)
	}
	if r.MaxTokens > 0 {
		p.MaxCompletionTokens = openai.Int(int64(r.MaxTokens))
	}
	if len(r.StopWords) > 0 {
		p.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: r.StopWords}
	}
	return p
}

// CreateChat creates chat request.
func (c *Client) CreateChat(ctx context.Context, r *ChatRequest) (*ChatResponse, error) {
	if r.Model == "" {
		if c.Model == "" {
			r.Model = DefaultChatModel
		} else {
			r.Model = c.Model
		}
	}

	body, err := json.Marshal(r.params())
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	if r.StreamingFunc != nil {
		body, err = sjson.SetBytes(body, "stream", true)
		if err != nil {
			return nil, errors.Wrap(err, "set stream")
		}
		body, err = sjson.SetBytes(body, "stream_options.include_usage", true)
		if err != nil {
			return nil, errors.Wrap(err, "set stream options")
		}
	}

	u := c.buildURL("/chat/completions", r.Model)
	logger.ContextKV(ctx, xlog.DEBUG, "url", u, "model", r.Model, "stream", r.StreamingFunc != nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, u)
	}

	if r.StreamingFunc != nil {
		return parseStream(ctx, resp.Body, r.StreamingFunc)
	}

	var completion openai.ChatCompletion
	if err := decodeJSON(resp.Body, &completion); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(completion.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	res := &ChatResponse{
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}
	for _, ch := range completion.Choices {
		res.Choices = append(res.Choices, ChatChoice{
			Content:      ch.Message.Content,
			FinishReason: ch.FinishReason,
		})
	}
	return res, nil
}

func parseStream(ctx context.Context, body io.Reader, fn func(ctx context.Context, chunk []byte) error) (*ChatResponse, error) {
	var content strings.Builder
	res := &ChatResponse{}
	finish := ""

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}

		var chunk openai.ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, errors.Wrap(err, "decode stream chunk")
		}
		if chunk.Usage.TotalTokens > 0 {
			res.PromptTokens = chunk.Usage.PromptTokens
			res.CompletionTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finish = choice.FinishReason
		}
		if choice.Delta.Content == "" {
			continue
		}
		content.WriteString(choice.Delta.Content)
		if err := fn(ctx, []byte(choice.Delta.Content)); err != nil {
			return nil, errors.Wrap(err, "streaming func returned an error")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read stream")
	}

	res.Choices = []ChatChoice{{Content: content.String(), FinishReason: finish}}
	return res, nil
}

func decodeJSON(r io.Reader, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	return json.Unmarshal(body, v)
}
