// Package console prints the agent workflow to a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
)

// Bold prints the line in bold.
func Bold(w io.Writer, text string) {
	fmt.Fprintln(w, bold.Sprint(text))
}

// Highlight prints the non-empty lines of text in green,
// with every occurrence of "<keyword>:" in bold.
func Highlight(w io.Writer, text string, keywords []string) {
	var out []string
	for line := range strings.SplitSeq(text, "\n") {
		if line == "" {
			continue
		}
		out = append(out, HighlightLine(line, keywords))
	}
	if len(out) > 0 {
		fmt.Fprintln(w, strings.Join(out, "\n"))
	}
}

// HighlightLine highlights the first keyword found in the line.
func HighlightLine(line string, keywords []string) string {
	for _, kw := range keywords {
		word := kw + ":"
		if idx := strings.Index(line, word); idx != -1 {
			return line[:idx] + bold.Sprint(word) + green.Sprint(line[idx+len(word):])
		}
	}
	return green.Sprint(line)
}
