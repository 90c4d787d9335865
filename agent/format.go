package agent

import (
	"github.com/effective-security/academix/pkg/prompts"
)

// Keywords of the workflow format
const (
	KeywordRequest      = "Request"
	KeywordQuestion     = "Question"
	KeywordRequirements = "Requirements"
	KeywordProgress     = "Progress"
	KeywordThought      = "Thought"
	KeywordTool         = "Tool"
	KeywordToolInput    = "Tool Input"
	KeywordAction       = "Action"
	KeywordActionInput  = "Action Input"
	KeywordObservation  = "Observation"
	KeywordInsight      = "Insight"
	KeywordParagraph    = "Paragraph"
	KeywordReflection   = "Reflection"
	KeywordFinalAnswer  = "Final Answer"
	KeywordDocument     = "Document"
)

// Format describes the textual protocol of an agent variant:
// the keywords the model writes, how a step is recognized,
// and the prompt that teaches the model the format.
type Format struct {
	// Name of the variant, used in logs and the console banner
	Name string
	// Subject is the keyword of the input: Request, Question or Requirements
	Subject string
	// SubjectOnNewLine writes the subject value on its own line in the stream
	SubjectOnNewLine bool
	// Action is the keyword of the tool name
	Action string
	// Input is the keyword of the tool input
	Input string
	// Answer is the keyword of the final output
	Answer string
	// FinalThought is written to the workflow before the answer
	FinalThought string
	// Progress is the keyword of the accumulated notes, empty if not used
	Progress string
	// Note is the keyword of a note step: Insight or Paragraph, empty if not used
	Note string
	// NoteThought is true when a note step starts with a thought
	NoteThought bool
	// Trigger is the keyword that selects a note step: Reflection or Paragraph
	Trigger string
	// RetryNotice is appended to the workflow when a step can not be parsed
	RetryNotice string
	// Template is the step prompt
	Template *prompts.PromptTemplate
}

// HasNotes returns true if the format has note steps
func (f *Format) HasNotes() bool {
	return f.Note != ""
}

// Keywords returns the keywords to highlight in the console
func (f *Format) Keywords() []string {
	kw := []string{f.Subject}
	if f.Progress != "" {
		kw = append(kw, f.Progress)
	}
	kw = append(kw, KeywordThought, f.Action, f.Input, KeywordObservation)
	if f.Note != "" {
		kw = append(kw, f.Note, KeywordReflection)
	}
	return append(kw, f.Answer)
}

var templateVariables = []string{"tool_desc", "tool_names", "clarifications", "subject", "progress", "workflow"}

// AgentFormat is the decision maker workflow: Request, Tool and Tool Input.
var AgentFormat = &Format{
	Name:         "Agent",
	Subject:      KeywordRequest,
	Action:       KeywordTool,
	Input:        KeywordToolInput,
	Answer:       KeywordFinalAnswer,
	FinalThought: "I now know the final answer",
	RetryNotice:  "\nThe algorithm could not parse my workflow. I must stick to the format I was given!\n",
	Template: prompts.MustPromptTemplate(`This workflow integrates deterministic algorithms with AI capabilities. 
In this workflow you are only responsible for reasoning, decision making, and nothing else.
You have access to the following tools:

{{.tool_desc}}

To describe your decision workflow, strictly follow this format:

WORKFLOW:
Request: the request you must answer
Thought: you should always think about what to do
Tool: the tool to use, should be one of [{{.tool_names}}]
Tool Input: the input for the tool
Observation: stop and wait for the output of the tool
...(This Thought/Tool/Tool Input/Observation can repeat N times)

The tools don't have access to anything from your workflow. 
When you write the tool input you must give as much information as possible.
When you have enough information to answer the request, follow this format:

Thought: I now know the final answer
Final Answer: the final answer to the original request

{{.clarifications}}
Following the workflow above, answer the request below as best as you can.
Begin!

WORKFLOW:
Request: {{.subject}}
{{.workflow}}
`, templateVariables...),
}

// CustomFormat is the question answering workflow: Question, Action and Action Input.
var CustomFormat = &Format{
	Name:         "CustomAgent",
	Subject:      KeywordQuestion,
	Action:       KeywordAction,
	Input:        KeywordActionInput,
	Answer:       KeywordFinalAnswer,
	FinalThought: "I now know the final answer",
	RetryNotice:  "\nCould not parse the answer.\nStick to the format you were given!\n",
	Template: prompts.MustPromptTemplate(`You are a great decision maker but terrible at anything else.
Answer the following questions as best you can using the following tools:

{{.tool_desc}}

Use this format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{{.tool_names}}]
Action Input: the input to the action
Observation: stop and wait for the result of the action
...(This Thought/Action/Action Input/Observation can repeat N times)

When you have enough information to answer the question, use the following format:

Thought: I now know the final answer
Final Answer: the final answer to the original input question

Remember, you're only good at decision making and nothing else. 
Don't attempt to do anything on your own, always use your tools.
When you write the input for the tools, give as much details as are known to you.
{{.clarifications}}
Begin!

Question: {{.subject}}
{{.workflow}}
`, templateVariables...),
}

// ResearchFormat is the research workflow: tools, and insights that grow the progress.
var ResearchFormat = &Format{
	Name:         "ResearchAgent",
	Subject:      KeywordQuestion,
	Action:       KeywordTool,
	Input:        KeywordToolInput,
	Answer:       KeywordFinalAnswer,
	FinalThought: "I now have enough insights",
	Progress:     KeywordProgress,
	Note:         KeywordInsight,
	Trigger:      KeywordReflection,
	RetryNotice:  "\nRemember - Strictly follow the format you were given!\n",
	Template: prompts.MustPromptTemplate(`This workflow integrates deterministic algorithms with AI capabilities. 
The purpose of this workflow is to preform a comprehensive research and find insights on a given question.
You have access to the following tools:

{{.tool_desc}}

This is the workflow's format:

WORKFLOW:
Question: the question to research
Progress: the progress that was in the research made so far 

To use a tool, follow this format:

Thought: you should always think about what to do
Tool: the tool to use, should be one of [{{.tool_names}}]
Tool Input: the input for the tool
Observation: stop and wait for the output of the tool
...(This Thought/Tool/Tool Input/Observation can repeat N times)

If you refer to information from the workflow as part of the input, you must quote it for the tool.
To add an insight to the research, follow this format:

Insight: the insight to add to the research
Reflection: reflect on the insight you made and give yourself notes 
...(This Insight/Reflection can repeat N times)

When you are finished with the research, follow this format:

Thought: I know the final answer
Final Answer: the final answer with all the insights
{{.clarifications}}
Following the format above, complete the workflow below as best as you can.

Begin!

WORKFLOW:
Question: {{.subject}}
Progress: {{.progress}}

{{.workflow}}`, templateVariables...),
}

// DocumentFormat is the document writing workflow: tools, and paragraphs that grow the progress.
var DocumentFormat = &Format{
	Name:             "DocumentAgent",
	Subject:          KeywordRequirements,
	SubjectOnNewLine: true,
	Action:           KeywordTool,
	Input:            KeywordToolInput,
	Answer:           KeywordDocument,
	FinalThought:     "I now have the final document",
	Progress:         KeywordProgress,
	Note:             KeywordParagraph,
	NoteThought:      true,
	Trigger:          KeywordParagraph,
	RetryNotice:      "\n# Remember - Strictly follow the format above!\n",
	Template: prompts.MustPromptTemplate(`This workflow integrates deterministic algorithms with AI capabilities. 
The purpose of this workflow is to write a document based on pre-given requirements.
You have access to the following tools:

{{.tool_desc}}

This is the workflow's format:

WORKFLOW:
Requirements: the requirements for the writing of the document
Progress: the progress of the writing that was made so far

To use a tool, follow this format:

Thought: you should always think about what to do
Tool: the tool to use, should be one of [{{.tool_names}}]
Tool Input: the input for the tool
Observation: stop and wait for the output of the tool
...(This Thought/Tool/Tool Input/Observation can repeat N times)

If you refer to information from the workflow, you must quote it for the tool.
To add a paragraph to the document, follow this format:

Thought: you should always think about what to write
Paragraph: the paragraph to add to the document
Reflection: reflect on what you wrote and give yourself notes 
...(This Thought/Paragraph/Reflection can repeat N times)

When you are finished writing the document, follow this format:

Thought: I now have the final document
Document: the final document that matches the requirements
{{.clarifications}}
Following the format above, complete the workflow below as best as you can.

Begin!

WORKFLOW:
Requirements: {{.subject}}
Progress: {{.progress}}

{{.workflow}}

Remember - Always try to match the requirements as best as you can.
`, templateVariables...),
}
