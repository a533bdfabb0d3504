package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/Paul-Clue/code-review-agent/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, result *review.Result) error {
	fmt.Fprintf(w, "## Code Review\n\n")

	if result.Empty() {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		return nil
	}

	if result.Comment != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimRight(result.Comment, "\n"))
	}

	if len(result.Fixes) > 0 {
		fmt.Fprintf(w, "<details>\n<summary>Proposed fixes (%d)</summary>\n\n", len(result.Fixes))
		for _, fix := range result.Fixes {
			fmt.Fprintf(w, "### `%s:%d-%d`\n\n", fix.Filename, fix.LineStart, fix.LineEnd)
			if fix.Comment != "" {
				fmt.Fprintf(w, "%s\n\n", fix.Comment)
			}
			lang := inferLang(fix.Filename)
			fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, strings.TrimRight(fix.Code, "\n"))
		}
		fmt.Fprintf(w, "</details>\n\n")
	}

	if result.SkippedFiles > 0 {
		fmt.Fprintf(w, "*Skipped %d file(s) too large to review.*\n\n", result.SkippedFiles)
	}

	fmt.Fprintf(w, "*Reviewed in %dms (render: %dms, LLM: %dms)*\n",
		result.Timing.TotalMs, result.Timing.RenderMs, result.Timing.LLMMs)

	return nil
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".ts":   "typescript",
		".tsx":  "tsx",
		".jsx":  "jsx",
		".rs":   "rust",
		".java": "java",
		".rb":   "ruby",
		".cpp":  "cpp",
		".c":    "c",
		".cs":   "csharp",
		".php":  "php",
		".sh":   "bash",
		".sql":  "sql",
		".yaml": "yaml",
		".yml":  "yaml",
		".json": "json",
		".tf":   "hcl",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}
