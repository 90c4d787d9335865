package agent

import (
	"strings"
)

// StepKind is the kind of a parsed step
type StepKind int

const (
	// StepAction calls a tool
	StepAction StepKind = iota + 1
	// StepNote adds an insight or a paragraph to the progress
	StepNote
	// StepAnswer ends the run
	StepAnswer
)

// String returns the metric tag of the kind
func (k StepKind) String() string {
	switch k {
	case StepAction:
		return "action"
	case StepNote:
		return "note"
	case StepAnswer:
		return "answer"
	}
	return "unknown"
}

// Step is one parsed model output.
type Step struct {
	Kind StepKind

	Thought string
	Tool    string
	Input   string

	Note       string
	Reflection string

	Answer string
}

// Parse returns the step the model wrote in text,
// or nil when the text does not follow the format.
// An action naming a tool that is not in toolNames is not a valid step.
func Parse(f *Format, text string, toolNames map[string]bool) *Step {
	switch decide(f, text) {
	case StepAction:
		return parseAction(f, text, toolNames)
	case StepNote:
		return parseNote(f, text)
	case StepAnswer:
		return parseAnswer(f, text)
	}
	return nil
}

func marker(keyword string) string {
	return keyword + ":"
}

func decide(f *Format, text string) StepKind {
	hasObservation := strings.Contains(text, "\n"+marker(KeywordObservation))
	hasAnswer := strings.Contains(text, "\n"+marker(f.Answer))

	if !f.HasNotes() {
		if hasObservation {
			return StepAction
		}
		if hasAnswer {
			return StepAnswer
		}
		return 0
	}

	hasTrigger := strings.Contains(text, "\n"+marker(f.Trigger))
	switch {
	case hasObservation && hasTrigger:
		if strings.Index(text, marker(KeywordObservation)) < strings.Index(text, marker(f.Trigger)) {
			return StepAction
		}
		return StepNote
	case hasObservation:
		return StepAction
	case hasTrigger:
		return StepNote
	case hasAnswer:
		return StepAnswer
	}
	return 0
}

// between returns the trimmed text between the markers,
// and false if a marker is missing or the markers are out of order.
func between(text, from, to string) (string, bool) {
	start := strings.Index(text, from)
	end := strings.Index(text, to)
	if start < 0 || end < 0 {
		return "", false
	}
	start += len(from)
	if start > end {
		return "", false
	}
	return strings.TrimSpace(text[start:end]), true
}

func parseAction(f *Format, text string, toolNames map[string]bool) *Step {
	thought, ok1 := between(text, marker(KeywordThought), marker(f.Action))
	tool, ok2 := between(text, marker(f.Action), marker(f.Input))
	input, ok3 := between(text, marker(f.Input), marker(KeywordObservation))
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	if !toolNames[tool] {
		return nil
	}
	return &Step{
		Kind:    StepAction,
		Thought: thought,
		Tool:    tool,
		Input:   input,
	}
}

func parseNote(f *Format, text string) *Step {
	step := &Step{Kind: StepNote}

	if f.NoteThought {
		thought, ok := between(text, marker(KeywordThought), marker(f.Note))
		if !ok {
			return nil
		}
		step.Thought = thought
	}

	note, ok := between(text, marker(f.Note), marker(KeywordReflection))
	if !ok {
		return nil
	}
	step.Note = note

	idx := strings.Index(text, marker(KeywordReflection))
	reflection, _, _ := strings.Cut(text[idx+len(marker(KeywordReflection)):], "\n")
	step.Reflection = strings.TrimSpace(reflection)
	return step
}

func parseAnswer(f *Format, text string) *Step {
	m := "\n" + marker(f.Answer)
	idx := strings.Index(text, m)
	if idx < 0 {
		return nil
	}
	return &Step{
		Kind:   StepAnswer,
		Answer: strings.TrimSpace(text[idx+len(m):]),
	}
}
