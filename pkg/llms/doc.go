// Package llms provides a small, text-only abstraction over the language
// models used by the agents.
//
// Each subpackage wraps the SDK of one provider and implements Model.
// The agents only need plain text in and plain text out, with an optional
// streaming callback that receives the generated tokens as they arrive.
package llms
