package review

import (
	"fmt"
	"strings"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
)

const structuredSystemPrompt = `You are a strict, expert code reviewer. You review code patches and respond with structured XML.

Rules:
1. Only review the changes shown in the patches. Do not comment on unchanged code.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid bikeshedding on style unless it significantly hurts readability.
3. Be concise and actionable. Every suggestion must be concrete.
4. Categorize each suggestion as one of: bug, security, performance, correctness, maintainability, testing.

Respond with ONLY an XML document in exactly this shape. No markdown, no preamble.

<review>
  <suggestion>
    <describe>Short description of the problem</describe>
    <type>bug</type>
    <comment>What is wrong and how to fix it</comment>
    <code>the exact problematic code from the patch</code>
    <filename>relative/file/path</filename>
  </suggestion>
</review>

If there are no issues, respond with an empty document: <review></review>`

const plainSystemPrompt = `You are a strict, expert code reviewer. Review the following code patches and respond with concise, actionable feedback in plain prose. Reference filenames explicitly. Focus on bugs, security issues, performance problems, and correctness. If there are no issues, say so briefly.`

const patchSeparator = "\n\n"

// BuildStructuredTurns assembles the XML-seeking review conversation for a
// set of rendered patches.
func BuildStructuredTurns(patches []string) []llm.Turn {
	return []llm.Turn{
		{Role: llm.RoleSystem, Content: structuredSystemPrompt},
		{Role: llm.RoleUser, Content: userPromptBody(patches)},
	}
}

// BuildPlainTurns assembles the free-text fallback review conversation.
func BuildPlainTurns(patches []string) []llm.Turn {
	return []llm.Turn{
		{Role: llm.RoleSystem, Content: plainSystemPrompt},
		{Role: llm.RoleUser, Content: userPromptBody(patches)},
	}
}

func userPromptBody(patches []string) string {
	var b strings.Builder
	b.WriteString("Review the following file patches.\n")
	b.WriteString("\n--- BEGIN PATCHES ---\n")
	b.WriteString(strings.Join(patches, patchSeparator))
	b.WriteString("\n--- END PATCHES ---\n")
	return b.String()
}

const fixToolName = "propose_fix"

// FixToolSchema is the constrained function the model must invoke when asked
// for an inline fix.
func FixToolSchema() *llm.ToolSchema {
	return &llm.ToolSchema{
		Name:        fixToolName,
		Description: "Propose a concrete replacement for a range of lines in the file.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "The replacement code for the affected lines.",
				},
				"lineStart": map[string]any{
					"type":        "integer",
					"description": "First line (1-based, inclusive) to replace.",
				},
				"lineEnd": map[string]any{
					"type":        "integer",
					"description": "Last line (1-based, inclusive) to replace.",
				},
				"comment": map[string]any{
					"type":        "string",
					"description": "One-sentence explanation of the fix.",
				},
			},
			"required": []string{"code", "lineStart", "lineEnd", "comment"},
		},
	}
}

// BuildFixTurns assembles the fix-seeking conversation for one structured
// suggestion. scopeContext is the enclosing function/class text around the
// suggestion's code, with line numbers.
func BuildFixTurns(s Suggestion, scopeContext string) []llm.Turn {
	var b strings.Builder
	fmt.Fprintf(&b, "A code review of %s raised this suggestion:\n\n", s.Filename)
	fmt.Fprintf(&b, "Problem: %s\nCategory: %s\nComment: %s\n", s.Description, s.Category, s.Comment)
	if s.Code != "" {
		fmt.Fprintf(&b, "\nProblematic code:\n%s\n", s.Code)
	}
	if scopeContext != "" {
		fmt.Fprintf(&b, "\nSurrounding code (with line numbers):\n%s\n", scopeContext)
	}
	fmt.Fprintf(&b, "\nCall %s with the corrected code and the exact line range it replaces. The replacement must differ from the current code.", fixToolName)

	return []llm.Turn{
		{Role: llm.RoleSystem, Content: "You are an expert software engineer producing minimal, correct code fixes."},
		{Role: llm.RoleUser, Content: b.String()},
	}
}
