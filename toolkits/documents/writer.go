// Package documents writes structured documents, such as lectures and problem sets,
// with the help of the writer agent and the retrieval tool.
package documents

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/chains"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/prompts"
	"github.com/effective-security/academix/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "toolkits/documents")

// WriterClarifications are given to the writer agent
const WriterClarifications = `Do not use the Search tool to ask for queries with implicit references to information from your 
workflow, here are a few example of bad queries:
    X Tool Input: What is the topic of the document? - The tool doesn't know what document you're referring to.
    X Tool Input: What are the key concepts mentioned in the abstract? - The tool doesn't know what abstract you're talking about.
`

// DefaultWriterMaxIterations is the max iterations of the writer agent
const DefaultWriterMaxIterations = 10

var sectionRequest = prompts.MustPromptTemplate(`Based on the following abstract and partial content of a document: 

ABSTRACT:
{{.abstract}}

PARTIAL DOCUMENT: 
{{.partial_document}}

Attempt to recreate the following section of the document as accurately and comprehensively as possible.
All that is known about the section is what was its name and description:

NAME: 
{{.name}}

DESCRIPTION: 
{{.description}}

Use your retrieval tool to fill in the gaps about anything you need additional information about.
Write only the section and nothing else.
`, "abstract", "partial_document", "name", "description")

var draftPrompt = prompts.MustPromptTemplate(`Based on the following abstract and structure, 
attempt to recreate the full document as accurately and comprehensively as possible:

ABSTRACT:
{{.abstract}}

STRUCTURE: 
{{.structure}}

Pay attention - Strictly follow the given document structure. 
Within the given structure you have creative freedom as long as you follow the guidelines of the given abstract. 
Begin!

DOCUMENT:
`, "abstract", "structure")

var latexDocumentPrompt = prompts.MustPromptTemplate(`Rewrite the following text in LaTeX:

TEXT: 
{{.text}}

Pay attention - Write only the LaTeX and nothing more.
If there are parts of the text which are properly written in LaTeX, copy them as is.
The result should be a compilable code of a full LaTeX document containing the rewritten text.

Begin!

LATEX:
`, "text")

// WriterConfig provides the models and tools of the writer
type WriterConfig struct {
	// Model runs the writer agent and the draft chain, required
	Model llms.Model
	// LatexModel runs the LaTeX document chain, defaults to Model
	LatexModel llms.Model
	// Retrieval is the search tool of the writer agent
	Retrieval tools.Tool
	// MaxIterations of the writer agent, defaults to 10
	MaxIterations int
	// Callback receives the events of the writer agent
	Callback agent.Callback
}

// Writer writes the documents
type Writer struct {
	agent agent.Invoker
	draft *chains.LLMChain
	latex *chains.LLMChain
}

// NewWriterAgent returns the agent which writes the sections
func NewWriterAgent(cfg *WriterConfig) *agent.Agent {
	var list []tools.Tool
	if cfg.Retrieval != nil {
		list = append(list, cfg.Retrieval)
	}
	opts := []agent.Option{
		agent.WithName("writer agent"),
		agent.WithMaxIterations(values.NumbersCoalesce(cfg.MaxIterations, DefaultWriterMaxIterations)),
		agent.WithClarifications(WriterClarifications),
	}
	if cfg.Callback != nil {
		opts = append(opts, agent.WithCallback(cfg.Callback))
	}
	return agent.NewAgent(cfg.Model, list, opts...)
}

// NewWriter returns the writer
func NewWriter(cfg *WriterConfig) (*Writer, error) {
	if cfg.Model == nil {
		return nil, errors.New("documents: model is required")
	}
	latexModel := cfg.LatexModel
	if latexModel == nil {
		latexModel = cfg.Model
	}
	return &Writer{
		agent: NewWriterAgent(cfg),
		draft: chains.NewLLMChain("document draft", cfg.Model, draftPrompt),
		latex: chains.NewLLMChain("latex document", latexModel, latexDocumentPrompt),
	}, nil
}

// WithAgent replaces the writer agent
func (w *Writer) WithAgent(a agent.Invoker) *Writer {
	w.agent = a
	return w
}

// DraftList writes the leaves of the structure, in order.
// Each leaf is written with the previously written siblings as the partial document.
func (w *Writer) DraftList(ctx context.Context, s *Structure, abstract string, partial []string) ([]string, error) {
	if s.IsLeaf() {
		partialDocument := "empty"
		if partial != nil {
			partialDocument = strings.Join(partial, "\n")
		}
		request, err := sectionRequest.Format(map[string]any{
			"abstract":         abstract,
			"partial_document": partialDocument,
			"name":             s.Name,
			"description":      s.Description,
		})
		if err != nil {
			return nil, err
		}

		logger.ContextKV(ctx, xlog.DEBUG, "section", s.Name)

		section, err := w.agent.Invoke(ctx, request)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to write section %q", s.Name)
		}
		return []string{section}, nil
	}

	sections := []string{}
	for _, child := range s.Children {
		list, err := w.DraftList(ctx, child, abstract, sections)
		if err != nil {
			return nil, err
		}
		sections = append(sections, list...)
	}
	return sections, nil
}

// Draft writes the document section by section
func (w *Writer) Draft(ctx context.Context, s *Structure, abstract string) (string, error) {
	list, err := w.DraftList(ctx, s, abstract, nil)
	if err != nil {
		return "", err
	}
	return strings.Join(list, "\n"), nil
}

// WriteDraft writes the whole document with a single model call
func (w *Writer) WriteDraft(ctx context.Context, s *Structure, abstract string) (string, error) {
	return w.draft.Call(ctx, map[string]any{
		"abstract":  abstract,
		"structure": s.Dir(),
	})
}

// WriteAbstract writes the abstract of a document by its description
func (w *Writer) WriteAbstract(ctx context.Context, description string) (string, error) {
	request := "Write an abstract for a document based on this description:\n\"" + description + "\"\n" +
		"When writing the answer write only the document's abstract and nothing else."
	return w.agent.Invoke(ctx, request)
}

// LatexDocument rewrites the text as a full compilable LaTeX document
func (w *Writer) LatexDocument(ctx context.Context, text string) (string, error) {
	return w.latex.Call(ctx, map[string]any{"text": text})
}
