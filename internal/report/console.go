// Package report renders a completed suite run to stdout, JSON, and HTML.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jabber-tools/nlptestrunner/internal/model"
)

const (
	glyphPassed = "✓"
	glyphFailed = "✗"
)

var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorDim   = lipgloss.Color("240")

	passedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	failedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	summaryStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// WriteConsole prints the table-style summary the teacher's CLI prints for
// scenario runs, adapted to a suite of multi-turn dialog tests.
func WriteConsole(w io.Writer, suiteName string, tests []*model.Test) {
	fmt.Fprintf(w, "\n  %s\n", suiteName)

	passed, failed := 0, 0
	for _, t := range tests {
		if t.Result == model.Ok {
			passed++
			fmt.Fprintf(w, "    %s %-30s\n", passedStyle.Render(glyphPassed), t.Name)
			continue
		}
		failed++
		fmt.Fprintf(w, "    %s %-30s\n", failedStyle.Render(glyphFailed), t.Name)
		if idx, a := failingAssertion(t); a != nil {
			fmt.Fprintf(w, "        turn %d: %s\n", idx, assertionErrorText(a))
		}
	}

	fmt.Fprintf(w, "\n%s\n", summaryStyle.Render(fmt.Sprintf("  %d tests, %d passed, %d failed", len(tests), passed, failed)))
}

// failingAssertion returns the index and assertion that carries the Ko
// outcome, if any — by the assertion-closure invariant there is exactly
// one per Ko test.
func failingAssertion(t *model.Test) (int, *model.Assertion) {
	for i, a := range t.Assertions {
		switch a.Outcome.Kind {
		case model.AssertionKoIntentNameMismatch, model.AssertionKoResponseCheckError:
			return i, a
		}
	}
	return -1, nil
}

func assertionErrorText(a *model.Assertion) string {
	if a.Outcome.Err != nil {
		return a.Outcome.Err.Error()
	}
	return "unknown failure"
}
