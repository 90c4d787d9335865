package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsLLMMessagesSent is base for counter metric for total messages sent to LLM
	StatsLLMMessagesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_messages_sent",
		Help:         "stats_llm_messages_sent provides total messages sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_sent",
		Help:         "stats_llm_bytes_sent provides total bytes sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_received",
		Help:         "stats_llm_bytes_received provides total bytes received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"agent", "model"},
	}

	StatsAgentRunsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_succeeded",
		Help:         "stats_agent_runs_succeeded provides total agent runs succeeded",
		RequiredTags: []string{"agent"},
	}

	StatsAgentRunsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_failed",
		Help:         "stats_agent_runs_failed provides total agent runs failed",
		RequiredTags: []string{"agent"},
	}

	StatsAgentRunsExhausted = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_exhausted",
		Help:         "stats_agent_runs_exhausted provides total agent runs that reached max iterations without an answer",
		RequiredTags: []string{"agent"},
	}

	StatsAgentSteps = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_steps",
		Help:         "stats_agent_steps provides total agent steps by kind",
		RequiredTags: []string{"agent", "kind"},
	}

	StatsAgentParseErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_parse_errors",
		Help:         "stats_agent_parse_errors provides total LLM outputs the agent could not parse",
		RequiredTags: []string{"agent"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsVectorSearches = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_vector_searches",
		Help:         "stats_vector_searches provides total vector store searches",
		RequiredTags: []string{"index"},
	}

	StatsVectorDocumentsAdded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_vector_documents_added",
		Help:         "stats_vector_documents_added provides total chunks added to the vector store",
		RequiredTags: []string{"index"},
	}

	StatsDiscordCommands = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_discord_commands",
		Help:         "stats_discord_commands provides total Discord commands by name",
		RequiredTags: []string{"command"},
	}

	StatsHTTPRequests = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_http_requests",
		Help:         "stats_http_requests provides total HTTP requests by route and status",
		RequiredTags: []string{"route", "status"},
	}
)

// Perf
var (
	PerfAgentRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_run",
		Help:         "perf_agent_run provides duration of agent run",
		RequiredTags: []string{"agent"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfVectorSearch = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_vector_search",
		Help:         "perf_vector_search provides duration of vector store search",
		RequiredTags: []string{"index"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentRun,
	&PerfToolCall,
	&PerfVectorSearch,
	&StatsAgentParseErrors,
	&StatsAgentRunsExhausted,
	&StatsAgentRunsFailed,
	&StatsAgentRunsSucceeded,
	&StatsAgentSteps,
	&StatsDiscordCommands,
	&StatsHTTPRequests,
	&StatsLLMBytesReceived,
	&StatsLLMBytesSent,
	&StatsLLMInputTokens,
	&StatsLLMMessagesSent,
	&StatsLLMOutputTokens,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
	&StatsVectorDocumentsAdded,
	&StatsVectorSearches,
}
