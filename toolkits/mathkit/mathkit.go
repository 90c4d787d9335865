// Package mathkit provides the mathematical toolkit: a sub agent with the
// Wolfram Alpha calculator and the math writing chains, exposed as a single tool.
package mathkit

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/academix/tools/chaintool"
	"github.com/effective-security/x/values"
)

const (
	// ToolName is the name of the toolkit tool
	ToolName = "Mathematical toolkit"
	// ToolDescription is the description of the toolkit tool
	ToolDescription = "Useful for both numerical calculations and advanced math. " +
		"Writing, solving, or proofreading mathematical texts and problems in LaTeX syntax."
	// AgentName is the name of the sub agent
	AgentName = "math agent"
	// DefaultMaxIterations of the sub agent
	DefaultMaxIterations = 6
)

// tool names
const (
	WriterToolName      = "Math question writer"
	SolverToolName      = "Math question solver"
	ProofreaderToolName = "Math proofreader"
	LatexTyperToolName  = "LaTeX typer"
)

// Config provides the models and tools of the toolkit
type Config struct {
	// Model runs the sub agent and the chains, required
	Model llms.Model
	// LatexModel runs the LaTeX chains, defaults to Model
	LatexModel llms.Model
	// WrapperModel fills the tool variables, defaults to Model
	WrapperModel llms.Model
	// Calculator is the Wolfram Alpha tool, optional
	Calculator tools.Tool
	// MaxIterations of the sub agent, defaults to 6
	MaxIterations int
	// Callback receives the events of the sub agent
	Callback agent.Callback
}

// Tools returns the tools of the math agent
func Tools(cfg *Config) ([]tools.Tool, error) {
	if cfg.Model == nil {
		return nil, errors.New("math toolkit: model is required")
	}
	latexModel := modelOr(cfg.LatexModel, cfg.Model)
	wrapperModel := modelOr(cfg.WrapperModel, cfg.Model)

	latex := chains.NewLLMChain("latex rewrite", latexModel, latexRewritePrompt)
	withLatex := func(c chains.Chain) chains.Chain {
		return chains.Sequence(c, latex, "math_text")
	}

	var list []tools.Tool
	if cfg.Calculator != nil {
		list = append(list, cfg.Calculator)
	}
	list = append(list,
		chaintool.New(
			WriterToolName,
			"Useful for writing one math questions at a time. "+
				"PAY ATTENTION - Describe what question to write with as much details as possible",
			wrapperModel,
			withLatex(chains.NewLLMChain("math writer", cfg.Model, writerPrompt)),
			chaintool.NewVariables(
				"math_field", "Field of math of the question",
				"field_subjects", "Specific subjects under the given math_field the question should involve",
				"educational_level", "Level of students for whom the question is meant for",
				"additional_details", "Additional details and instructions for the writing of the question",
			),
		),
		chaintool.New(
			SolverToolName,
			"Useful for SOLVING math questions, one at a time. "+
				"PAY ATTENTION - Describe what is given and what is the question with as much details as possible",
			wrapperModel,
			withLatex(chains.NewLLMChain("math solver", cfg.Model, solverPrompt)),
			chaintool.NewVariables(
				"what_is_given", "Given assumptions and known facts which are relevant to the question",
				"math_question", "Clearly stated goal or objective to solve",
			),
		),
		chaintool.New(
			ProofreaderToolName,
			"Useful for PROOFREADING mathematical texts, one at a time. "+
				"PAY ATTENTION - Give as much details as possible about the text.",
			wrapperModel,
			withLatex(chains.NewLLMChain("math proofreader", cfg.Model, proofreaderPrompt)),
			chaintool.NewVariables(
				"math_text", "Mathematical solution to proofread",
				"additional_details", "Additional details and instructions for the proofreading",
			),
		),
		chaintool.NewCode(
			LatexTyperToolName,
			"Useful for typing a given text in LaTeX syntax",
			wrapperModel,
			chains.NewLLMChain("latex typer", latexModel, latexTyperPrompt).WithCodeBlock("latex"),
			chaintool.NewVariables("text", "Text to be typed in LaTeX syntax"),
			"latex",
		),
	)
	return list, nil
}

// NewAgent returns the math agent
func NewAgent(cfg *Config) (*agent.Agent, error) {
	list, err := Tools(cfg)
	if err != nil {
		return nil, err
	}
	opts := []agent.Option{
		agent.WithName(AgentName),
		agent.WithMaxIterations(values.NumbersCoalesce(cfg.MaxIterations, DefaultMaxIterations)),
	}
	if cfg.Callback != nil {
		opts = append(opts, agent.WithCallback(cfg.Callback))
	}
	return agent.NewAgent(cfg.Model, list, opts...), nil
}

// New returns the Mathematical toolkit tool
func New(cfg *Config) (tools.Tool, error) {
	a, err := NewAgent(cfg)
	if err != nil {
		return nil, err
	}
	return agent.AsTool(a, ToolName, ToolDescription), nil
}

func modelOr(m, def llms.Model) llms.Model {
	if m != nil {
		return m
	}
	return def
}
