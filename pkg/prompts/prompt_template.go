package prompts

import (
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

// ErrMissingVariable is returned when a declared input variable has no value.
var ErrMissingVariable = errors.New("missing prompt variable")

// FormatPrompter renders prompt templates into text.
type FormatPrompter interface {
	// Format renders the template with the values.
	Format(values map[string]any) (string, error)
	// GetInputVariables returns the names of the values the template expects.
	GetInputVariables() []string
}

// PromptTemplate is a Go text/template with the sprig functions.
// Missing keys fail the render.
type PromptTemplate struct {
	Template         string
	InputVariables   []string
	PartialVariables map[string]any

	tmpl *template.Template
}

var _ FormatPrompter = (*PromptTemplate)(nil)

// NewPromptTemplate parses the template text.
func NewPromptTemplate(text string, inputVariables []string) (*PromptTemplate, error) {
	tmpl, err := template.New("prompt").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse prompt template")
	}
	return &PromptTemplate{
		Template:       text,
		InputVariables: inputVariables,
		tmpl:           tmpl,
	}, nil
}

// MustPromptTemplate is like NewPromptTemplate but panics on a parse error.
// Use it for package level templates.
func MustPromptTemplate(text string, inputVariables ...string) *PromptTemplate {
	p, err := NewPromptTemplate(text, inputVariables)
	if err != nil {
		panic(err)
	}
	return p
}

// WithPartials returns a copy of the template with pre-filled values.
func (p *PromptTemplate) WithPartials(partials map[string]any) *PromptTemplate {
	cp := *p
	cp.PartialVariables = maps.Clone(p.PartialVariables)
	if cp.PartialVariables == nil {
		cp.PartialVariables = map[string]any{}
	}
	maps.Copy(cp.PartialVariables, partials)
	cp.InputVariables = slices.DeleteFunc(slices.Clone(p.InputVariables), func(v string) bool {
		_, ok := partials[v]
		return ok
	})
	return &cp
}

// GetInputVariables returns the names of the values the template expects.
func (p *PromptTemplate) GetInputVariables() []string {
	return p.InputVariables
}

// Format renders the template with the values.
func (p *PromptTemplate) Format(values map[string]any) (string, error) {
	all := make(map[string]any, len(values)+len(p.PartialVariables))
	maps.Copy(all, p.PartialVariables)
	maps.Copy(all, values)

	for _, v := range p.InputVariables {
		if _, ok := all[v]; !ok {
			return "", errors.Wrapf(ErrMissingVariable, "%q", v)
		}
	}

	var buf strings.Builder
	if err := p.tmpl.Execute(&buf, all); err != nil {
		return "", errors.Wrap(err, "failed to render prompt")
	}
	return buf.String(), nil
}
