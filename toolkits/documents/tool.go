package documents

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/tools"
)

const (
	// ToolName is the name of the document tool
	ToolName = "Document writer"
	// ToolDescription is the description of the document tool
	ToolDescription = "Useful for writing a document of a known structure. " +
		"Write the name of the structure in the first line, and the requirements of the document in the next lines."
	// EmptyRequest is returned for an empty input
	EmptyRequest = "Could not continue with an empty request"
)

// ErrUnknownStructure is returned for a structure name which is not defined
var ErrUnknownStructure = errors.New("unknown document structure")

// Requirements returns the subject of the document agent
func Requirements(requirements string, s *Structure) string {
	return strings.TrimSpace(requirements) + "\n\nDocument Structure:\n" + s.Dir()
}

// Tool writes documents with the document agent
type Tool struct {
	agent      agent.Invoker
	structures map[string]*Structure
}

var _ tools.Tool = (*Tool)(nil)

// NewTool returns the tool, the agent is expected to be a DocumentAgent
func NewTool(a agent.Invoker, structures []*Structure) *Tool {
	return &Tool{
		agent:      a,
		structures: StructuresMap(structures),
	}
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return ToolDescription + " Known structures: " + strings.Join(t.Names(), ", ") + "."
}

// Names returns the sorted names of the structures
func (t *Tool) Names() []string {
	names := make([]string, 0, len(t.structures))
	for name := range t.structures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Structure returns the structure by name
func (t *Tool) Structure(name string) (*Structure, error) {
	s, ok := t.structures[strings.TrimSpace(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStructure, "%q", name)
	}
	return s, nil
}

// Write runs the document agent with the requirements and the structure
func (t *Tool) Write(ctx context.Context, structure, requirements string, opts ...agent.InvokeOption) (string, error) {
	s, err := t.Structure(structure)
	if err != nil {
		return "", err
	}
	return t.agent.Invoke(ctx, Requirements(requirements, s), opts...)
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return EmptyRequest, nil
	}
	name, requirements, _ := strings.Cut(input, "\n")
	out, err := t.Write(ctx, name, requirements)
	if errors.Is(err, ErrUnknownStructure) {
		return "Unknown document structure. Use one of: " + strings.Join(t.Names(), ", "), nil
	}
	return out, err
}
