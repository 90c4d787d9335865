// Package llmfactory creates and caches the language models used by agents
// and tools, based on a YAML list of providers and per-agent model mappings.
package llmfactory
