package documents_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/agent"
	"github.com/effective-security/academix/mocks/mockllms"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/toolkits/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeAgent struct {
	lock     sync.Mutex
	subjects []string
	fail     string
}

func (f *fakeAgent) Name() string {
	return "fake"
}

func (f *fakeAgent) Invoke(_ context.Context, subject string, _ ...agent.InvokeOption) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.subjects = append(f.subjects, subject)
	if f.fail != "" && strings.Contains(subject, f.fail) {
		return "", errors.New("agent failed")
	}
	return "section " + string(rune('A'+len(f.subjects)-1)), nil
}

func echoModel(t *testing.T) *mockllms.MockModel {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GetName().Return("echo").AnyTimes()
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: messages[0].Content}}}, nil
		}).AnyTimes()
	return m
}

func TestStructure_Dir(t *testing.T) {
	assert.Equal(t, "* Exercise\n> Problem with a step-by-step solution.\n\n"+
		"\t* Question\n\t> "+documents.Exercise.Children[0].Description+"\n\n"+
		"\t* Solution\n\t> "+documents.Exercise.Children[1].Description, documents.Exercise.Dir())

	set := documents.ProblemSet(2)
	require.Len(t, set.Children, 2)
	assert.Equal(t, "Problem 1", set.Children[0].Name)
	assert.Equal(t, "Problem 2", set.Children[1].Name)
	// the exercise is copied
	assert.Equal(t, "Exercise", documents.Exercise.Name)

	dir := set.Dir()
	assert.Contains(t, dir, "\n\n\t* Problem 2\n\t> Problem with a step-by-step solution.\n\n\t\t* Question\n\t\t> ")

	list := documents.Structures()
	require.Len(t, list, 3)
	m := documents.StructuresMap(list)
	assert.Contains(t, m, "Math and Physics Undergraduate Lecture")
	assert.Contains(t, m, "Math and Physics Undergraduate Tutorial")
	assert.Contains(t, m, "Math and Physics Problem Set")
	assert.Len(t, m["Math and Physics Problem Set"].Children[1].Children, 5)
}

func TestLoadStructures(t *testing.T) {
	f, err := os.Open("testdata/structures.yaml")
	require.NoError(t, err)
	defer f.Close()

	list, err := documents.LoadStructures(f)
	require.NoError(t, err)
	require.Len(t, list, 2)

	quiz := list[0]
	assert.Equal(t, "Quiz", quiz.Name)
	require.Len(t, quiz.Children, 2)
	problems := quiz.Children[1]
	require.Len(t, problems.Children, 2)
	assert.Equal(t, "Problem 2", problems.Children[1].Name)
	assert.Equal(t, 0, problems.Problems)
	assert.True(t, list[1].IsLeaf())

	_, err = documents.LoadStructures(strings.NewReader("- name: NoDescription\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid structure "NoDescription"`)

	_, err = documents.LoadStructures(strings.NewReader("- name: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode structures")
}

func TestWriter_Draft(t *testing.T) {
	w, err := documents.NewWriter(&documents.WriterConfig{Model: echoModel(t)})
	require.NoError(t, err)

	fa := &fakeAgent{}
	w.WithAgent(fa)

	s := &documents.Structure{
		Name:        "Doc",
		Description: "d",
		Children: []*documents.Structure{
			{Name: "Intro", Description: "intro"},
			documents.Exercise.Clone(),
		},
	}

	draft, err := w.Draft(context.Background(), s, "the abstract")
	require.NoError(t, err)
	assert.Equal(t, "section A\nsection B\nsection C", draft)

	require.Len(t, fa.subjects, 3)
	assert.Contains(t, fa.subjects[0], "ABSTRACT:\nthe abstract\n")
	assert.Contains(t, fa.subjects[0], "PARTIAL DOCUMENT: \n\n")
	assert.Contains(t, fa.subjects[0], "NAME: \nIntro\n")
	// siblings in the exercise
	assert.Contains(t, fa.subjects[1], "PARTIAL DOCUMENT: \n\n")
	assert.Contains(t, fa.subjects[1], "NAME: \nQuestion\n")
	assert.Contains(t, fa.subjects[2], "PARTIAL DOCUMENT: \nsection B\n")

	// a leaf as the root
	fa.subjects = nil
	_, err = w.Draft(context.Background(), &documents.Structure{Name: "Leaf", Description: "l"}, "a")
	require.NoError(t, err)
	assert.Contains(t, fa.subjects[0], "PARTIAL DOCUMENT: \nempty\n")

	fa.fail = "NAME: \nSolution"
	_, err = w.Draft(context.Background(), s, "the abstract")
	assert.EqualError(t, err, `failed to write section "Solution": agent failed`)
}

func TestWriter_Chains(t *testing.T) {
	_, err := documents.NewWriter(&documents.WriterConfig{})
	assert.EqualError(t, err, "documents: model is required")

	w, err := documents.NewWriter(&documents.WriterConfig{Model: echoModel(t)})
	require.NoError(t, err)
	fa := &fakeAgent{}
	w.WithAgent(fa)

	out, err := w.WriteDraft(context.Background(), documents.Exercise, "abstract")
	require.NoError(t, err)
	assert.Contains(t, out, "ABSTRACT:\nabstract\n")
	assert.Contains(t, out, "STRUCTURE: \n"+documents.Exercise.Dir())

	out, err = w.LatexDocument(context.Background(), "x^2")
	require.NoError(t, err)
	assert.Contains(t, out, "TEXT: \nx^2\n")
	assert.Contains(t, out, "full LaTeX document")

	out, err = w.WriteAbstract(context.Background(), "limits")
	require.NoError(t, err)
	assert.Equal(t, "section A", out)
	assert.Equal(t, "Write an abstract for a document based on this description:\n\"limits\"\n"+
		"When writing the answer write only the document's abstract and nothing else.", fa.subjects[0])
}

func TestTool(t *testing.T) {
	fa := &fakeAgent{}
	tool := documents.NewTool(fa, []*documents.Structure{documents.Exercise, documents.ProblemSet(1)})
	assert.Equal(t, documents.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "Known structures: Exercise, Problem Set.")

	out, err := tool.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, documents.EmptyRequest, out)

	out, err = tool.Call(context.Background(), "Lecture\nTopics: limits")
	require.NoError(t, err)
	assert.Equal(t, "Unknown document structure. Use one of: Exercise, Problem Set", out)

	out, err = tool.Call(context.Background(), "Exercise\nTopics: limits\n")
	require.NoError(t, err)
	assert.Equal(t, "section A", out)
	assert.Equal(t, "Topics: limits\n\nDocument Structure:\n"+documents.Exercise.Dir(), fa.subjects[0])

	_, err = tool.Write(context.Background(), "Lecture", "x")
	assert.True(t, errors.Is(err, documents.ErrUnknownStructure))
}
