package documents

import (
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Structure describes a document as a tree of sections.
// The leaves are written one by one.
type Structure struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Description string       `json:"description" yaml:"description" validate:"required"`
	Children    []*Structure `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
	// Problems expands to a problem set of the given size, when loaded from YAML
	Problems int `json:"problems,omitempty" yaml:"problems,omitempty" validate:"gte=0,lte=20"`
}

// IsLeaf returns true if the structure has no children
func (s *Structure) IsLeaf() bool {
	return len(s.Children) == 0
}

// IndentedList returns the node and its children, each child line tab indented
func (s *Structure) IndentedList() []string {
	list := []string{"* " + s.Name + "\n> " + s.Description}

	for _, child := range s.Children {
		for _, section := range child.IndentedList() {
			list = append(list, "\t"+strings.ReplaceAll(section, "\n", "\n\t"))
		}
	}
	return list
}

// Dir returns the structure tree as text
func (s *Structure) Dir() string {
	return strings.Join(s.IndentedList(), "\n\n")
}

// Clone returns a deep copy
func (s *Structure) Clone() *Structure {
	c := &Structure{
		Name:        s.Name,
		Description: s.Description,
	}
	for _, child := range s.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Exercise is a problem with a step-by-step solution
var Exercise = &Structure{
	Name:        "Exercise",
	Description: "Problem with a step-by-step solution.",
	Children: []*Structure{
		{
			Name: "Question",
			Description: "What is given, relevant definitions for the problem, what needs to be proven, solved, etc." +
				"Written as rigorously and didactic as possible",
		},
		{
			Name:        "Solution",
			Description: "Step-by-step solution to the given problem. Written as rigorously and didactic as possible",
		},
	},
}

// ProblemSet returns n exercises named "Problem i"
func ProblemSet(n int) *Structure {
	set := &Structure{
		Name:        "Problem Set",
		Description: "Set of problems, each with a step-by-step solution, each of varying difficulty.",
	}
	for i := range n {
		ex := Exercise.Clone()
		ex.Name = "Problem " + strconv.Itoa(i+1)
		set.Children = append(set.Children, ex)
	}
	return set
}

// Structures returns the predefined document structures
func Structures() []*Structure {
	return []*Structure{
		{
			Name: "Math and Physics Undergraduate Lecture",
			Description: "Template structure for lecture documents for undergraduate math and physics courses. " +
				"It focuses on presenting complex scientific concepts in an organized and engaging manner, " +
				"integrating theoretical explanations with practical applications and problem-solving.",
			Children: []*Structure{
				{
					Name:        "Learning Objectives",
					Description: "Specific objectives outlining the mathematical or physical concepts students will learn.",
				},
				{
					Name: "Theoretical Background",
					Description: "Background information and fundamental theories relevant to the topic, " +
						"including historical developments in math or physics that led to these theories.",
				},
				{
					Name: "Core Concepts and Formulas",
					Description: "Detailed explanation of core concepts, key formulas, and their derivations. " +
						"Includes theorems, equations, and principles specific to the topic.",
				},
				ProblemSet(3),
				{
					Name: "Summary and Recap",
					Description: "Concluding the lecture with a summary of key points and concepts covered, " +
						"reinforcing learning and highlighting connections between topics.",
				},
				{
					Name:        "Homework",
					Description: "Assignments or problem sets for students to work on after the lecture.",
				},
			},
		},
		{
			Name: "Math and Physics Undergraduate Tutorial",
			Description: "Template structure for tutorials in undergraduate math and physics courses. " +
				"It encompasses key aspects of a tutorial, from introductory content to theoretical " +
				"foundations and worked examples ensuring a well-rounded educational experience.",
			Children: []*Structure{
				{
					Name:        "Introduction to the Topic",
					Description: "Presents basic introduction to key concepts, historical context, and prerequisites.",
				},
				{
					Name: "Theoretical Foundations",
					Description: "Detailed explanation of main theories, important formulas and their derivations, " +
						"accompanied by visual aids.",
				},
				ProblemSet(3),
				{
					Name: "Summary and Key Takeaways",
					Description: "Recap of main points covered, key takeaways and formulas, and suggestions for further " +
						"reading.",
				},
			},
		},
		{
			Name: "Math and Physics Problem Set",
			Description: "Template structure for problem sets in undergraduate math and physics courses." +
				"It outlines the objective of the problem set and includes problem-solving tips along " +
				"the problems which vary in complexity and scope.",
			Children: []*Structure{
				{
					Name: "Problem Set Introduction",
					Description: "An introductory section that outlines the objectives of the problem set, " +
						"the topics covered, and any necessary instructions or guidelines.",
				},
				ProblemSet(5),
				{
					Name: "Problem-Solving Tips",
					Description: "Helpful hints or strategies for approaching and solving the problems, " +
						"aimed at guiding students without giving away the solutions.",
				},
				{
					Name: "Submission Guidelines",
					Description: "Clear instructions on how to complete and submit the problem set, " +
						"including any formatting requirements and deadlines.",
				},
			},
		},
	}
}

// StructuresMap returns the structures by name
func StructuresMap(list []*Structure) map[string]*Structure {
	m := make(map[string]*Structure, len(list))
	for _, s := range list {
		m[s.Name] = s
	}
	return m
}

var validate = validator.New()

// LoadStructures reads the list of structures from YAML.
// A node with `problems: n` and no children is expanded to a problem set.
func LoadStructures(r io.Reader) ([]*Structure, error) {
	var list []*Structure
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		return nil, errors.Wrap(err, "failed to decode structures")
	}
	for _, s := range list {
		if err := validate.Struct(s); err != nil {
			return nil, errors.Wrapf(err, "invalid structure %q", s.Name)
		}
		expandProblems(s)
	}
	return list, nil
}

func expandProblems(s *Structure) {
	if s.Problems > 0 && len(s.Children) == 0 {
		s.Children = ProblemSet(s.Problems).Children
	}
	s.Problems = 0
	for _, child := range s.Children {
		expandProblems(child)
	}
}
