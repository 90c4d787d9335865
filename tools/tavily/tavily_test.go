package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/academix/tools/tavily"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		resp := tavily.SearchResult{}
		if req.Query == "What is capital of France" {
			resp.Results = []tavilyModels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			}
			if req.IncludeAnswer {
				resp.Answer = "Paris"
			}
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.New("testkey")
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), `web search`)

	_, err = tool.Call(ctx, "  ")
	assert.EqualError(t, err, "invalid request: empty query")

	exp := `ANSWER: Paris
- URL: https://example.com
  TITLE: Test Result
  SCORE: 0.900000
  CONTENT: Test content
`
	resp, err := tool.Call(ctx, "What is capital of France")
	require.NoError(t, err)
	assert.Equal(t, exp, resp)

	resp, err = tool.Call(ctx, `{"Query": "What is capital of France"}`)
	require.NoError(t, err)
	assert.Equal(t, exp, resp)

	resp, err = tool.Call(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, tavily.NoResult, resp)
}

func Test_New(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	_, err := tavily.New("")
	assert.EqualError(t, err, "TAVILY_API_KEY is not set")
}

func Test_Tool_Real(t *testing.T) {
	// uncomment to run Real Tests
	t.Skip("skipping real test")

	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		t.Skip("TAVILY_API_KEY is not set")
	}

	tool, err := tavily.New(apikey)
	require.NoError(t, err)

	resp, err := tool.Call(context.Background(), "What is capital of France")
	require.NoError(t, err)
	assert.Contains(t, resp, "Paris")
}
