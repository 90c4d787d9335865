package googleai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llms/googleai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "be brief", req.Get("systemInstruction.parts.0.text").String())
		assert.Equal(t, "user", req.Get("contents.0.role").String())
		assert.Equal(t, "model", req.Get("contents.1.role").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hel"},{"text":"lo"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":1,"totalTokenCount":4}}`))
	}))
	defer srv.Close()

	llm, err := googleai.New(context.Background(),
		googleai.WithAPIKey("test"),
		googleai.WithBaseURL(srv.URL),
		googleai.WithDefaultModel("gemini-test"),
	)
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", llm.GetName())
	assert.Equal(t, llms.ProviderGoogleAI, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.SystemMessage("be brief"),
		llms.HumanMessage("hi"),
		llms.AIMessage("hey"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Content)
	assert.Equal(t, "STOP", resp.Choices[0].StopReason)
	assert.EqualValues(t, 4, resp.Choices[0].GenerationInfo["TotalTokens"])
}
