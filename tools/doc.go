// Package tools defines the text Tool interface used by the agents,
// with helpers to describe a set of tools in a prompt.
// Subpackages implement the remote tools: Wolfram Alpha, Google search, Wikipedia,
// web search and the vector store library. The chaintool package exposes
// LLM chains as tools, and httpx is the retrying HTTP client they share.
package tools
