package mathkit

import "github.com/effective-security/academix/pkg/prompts"

var writerPrompt = prompts.MustPromptTemplate(`Write a new math question relevant to the field of {{.math_field}}, involving {{.field_subjects}}, 
suited for {{.educational_level}} level. Write in the following format:
    
Question:
Given: Assumptions and known facts.
Task: Clearly stated goal or objective.

For example: 
    
Question:
Given: Let A, B, and C be real numbers.
Task: Prove that If A = B and B = C, then A = C.

Pay attention - Be didactic and rigorous while taking into account the level of the students for whom this exercise is 
meant for. If you don't have enough knowledge to provide a relevant exercise answer with "I don't know". Write only 
the exercise and nothing more. {{.additional_details}}.
ALWAYS write in LaTeX code.

Begin!

Question:
`, "math_field", "field_subjects", "educational_level", "additional_details")

var solverPrompt = prompts.MustPromptTemplate(`As part of your training you've acquired great knowledge, abilities and rigor in a wide 
variety of math fields, except for numerical calculations in which you make constant mistakes and need to use 
a calculator. Use your abilities to solve the math question below:

Question:
Given: {{.what_is_given}}
Task: {{.math_question}}

Remember - Be didactic and rigorous. If you don't have enough info to solve the question, write "I don't know". 
If you come across a numerical calculation, stop and write: "Calculate: ${numerical-calculation}" and give 
instructions on how to continue the solution. Write only the solution and nothing more. If you've solved the 
question, write at the end of the solution: "Question is solved". Write in LaTeX code.

Begin!

Solution:
`, "what_is_given", "math_question")

var proofreaderPrompt = prompts.MustPromptTemplate(`The text below is an attempt at mathematical writing. It might be well written, 
but it might as well have some mistakes. Preform a mathematical proofreading to this text, focus on 
mathematical errors and inconsistencies. If the given text is well written without mistakes, copy it as is. 
If you find mistakes, write a better draft with the the necessary corrections applied.

TEXT: 
{{.math_text}}

Remember - Be didactic and rigorous. Write only the final solution and nothing more. Write in LaTeX code.
{{.additional_details}}.

Begin!

TEXT:
`, "math_text", "additional_details")

// latexRewritePrompt follows each of the writer, solver and proofreader
var latexRewritePrompt = prompts.MustPromptTemplate(`The following text is an attempt at mathematical writing. Rewrite it in LaTeX code.
TEXT: 
{{.math_text}}

Pay attention - Write only the LaTeX code and nothing more.
If there are parts of the text which are properly written in LaTeX, copy them as is.

Begin!

TEXT:
`, "math_text")

var latexTyperPrompt = prompts.MustPromptTemplate(`Rewrite the following text in LaTeX syntax.
TEXT: 
{{.text}}

Pay attention - Write only the LaTeX syntax and nothing more.
If there are parts of the text which are properly written in LaTeX, copy them as is.

Begin!

TEXT:
`, "text")
