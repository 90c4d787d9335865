// Package chaintool exposes a chain with named input variables as a text tool.
//
// The free text request of the agent is converted to the chain variables
// by the wrapper prompt, which asks the model to fill a JSON scheme.
package chaintool

import (
	"context"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/llmutils"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "tools/chaintool")

const (
	// EmptyRequest is returned for an empty request
	EmptyRequest = "Could not continue with an empty request from the tool"
	// ParseFailure is returned when the request could not be converted to the variables
	ParseFailure = "Failed to parse tool request to tool variables. Try editing the input to not include JSON problematic characters like '{' and '}'."
)

// WrapperPrompt asks the model to fill the variables from the request
var WrapperPrompt = prompts.MustPromptTemplate(`Here is a documentation of a specific JSON scheme:
JSON: 
{{.json_scheme}}

Fill the fields of this specific JSON scheme according to the following request:
REQUEST: 
{{.request}}

Pay attention - Write only the JSON scheme as you were asked and nothing more.
If a field is optional and you don't have enough information to fill it, you may leave it empty. 
If a field is non optional and you don't have enough information to fill it, than instead of writing 
the JSON scheme describe what additional information you need to be able to fill it.

Begin!

JSON:
`, "json_scheme", "request")

// Variables is the ordered map of the variable name to its description
type Variables = orderedmap.OrderedMap[string, string]

// NewVariables returns the variables from name, description pairs
func NewVariables(pairs ...string) *Variables {
	vars := orderedmap.New[string, string]()
	for i := 0; i+1 < len(pairs); i += 2 {
		vars.Set(pairs[i], pairs[i+1])
	}
	return vars
}

// Scheme renders the variables as the JSON scheme for the wrapper prompt
func Scheme(vars *Variables) string {
	var fields []string
	for pair := vars.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, `"`+pair.Key+`": "`+pair.Value+`"`)
	}
	return "{\n\t" + strings.Join(fields, ",\n\t") + "\n}"
}

// Tool calls the chain with the variables filled from the request
type Tool struct {
	name        string
	description string
	wrapper     *chains.LLMChain
	chain       chains.Chain
	variables   *Variables
	// language is set for the code variant
	language string
}

var _ tools.Tool = (*Tool)(nil)

// New returns the tool. The model fills the variables of the chain.
func New(name, description string, model llms.Model, chain chains.Chain, variables *Variables) *Tool {
	return &Tool{
		name:        name,
		description: description,
		wrapper:     chains.NewLLMChain(name+" wrapper", model, WrapperPrompt),
		chain:       chain,
		variables:   variables,
	}
}

// NewCode returns the tool which wraps the output into a code block of the language
func NewCode(name, description string, model llms.Model, chain chains.Chain, variables *Variables, language string) *Tool {
	t := New(name, description, model, chain, variables)
	t.language = language
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return EmptyRequest, nil
	}

	scheme, err := t.wrapper.Call(ctx, map[string]any{
		"json_scheme": Scheme(t.variables),
		"request":     input,
	})
	if err != nil {
		return "", err
	}

	inputs, err := parseInputs(scheme)
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"tool", t.name,
			"reason", "parse",
			"scheme", slices.StringUpto(scheme, 64),
			"err", err.Error(),
		)
		return ParseFailure, nil
	}

	output, err := t.chain.Call(ctx, inputs)
	if err != nil {
		if errors.Is(err, prompts.ErrMissingVariable) {
			return ParseFailure, nil
		}
		return "", err
	}

	if t.language != "" {
		output = strings.ReplaceAll(output, "```"+t.language, "")
		output = strings.ReplaceAll(output, "```", "")
		return "\n```" + t.language + "\n" + output + "\n```\n", nil
	}
	return output, nil
}

func parseInputs(scheme string) (map[string]any, error) {
	var inputs map[string]any
	if err := ljson.Unmarshal(llmutils.ExtractJSON(scheme), &inputs); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(inputs) == 0 {
		return nil, errors.New("empty scheme")
	}
	return inputs, nil
}
