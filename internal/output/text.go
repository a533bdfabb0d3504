package output

import (
	"io"
	"strings"

	"github.com/Paul-Clue/code-review-agent/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, result *review.Result) error {
	ew := &errWriter{w: w}

	ew.printf("Code Review — run %s\n", result.RunID)
	if result.Strategy != "" {
		ew.printf("Strategy: %s\n", result.Strategy)
	}
	ew.println(strings.Repeat("─", 60))

	if result.Empty() {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	if result.Comment != "" {
		ew.println("")
		ew.println(result.Comment)
	}

	if len(result.Fixes) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.printf("Proposed fixes: %d\n", len(result.Fixes))
		for _, fix := range result.Fixes {
			ew.printf("\n  %s:%d-%d\n", fix.Filename, fix.LineStart, fix.LineEnd)
			if fix.Comment != "" {
				for _, line := range wrapText(fix.Comment, 70) {
					ew.printf("    %s\n", line)
				}
			}
			for _, line := range strings.Split(strings.TrimRight(fix.Code, "\n"), "\n") {
				ew.printf("    | %s\n", line)
			}
		}
	}

	if result.SkippedFiles > 0 {
		ew.printf("\nSkipped %d file(s) too large to review.\n", result.SkippedFiles)
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (render: %dms, LLM: %dms)\n",
		result.Timing.TotalMs, result.Timing.RenderMs, result.Timing.LLMMs)

	return ew.err
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
