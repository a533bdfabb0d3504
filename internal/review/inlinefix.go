package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
)

// ScopeLookup returns surrounding code for a line range: the smallest
// enclosing function/class/module span, or a fixed window when no syntax
// tree is available.
type ScopeLookup interface {
	Enclosing(filename, content string, startLine, endLine int) string
}

// FixGenerator asks the model for concrete inline fixes, one per structured
// suggestion. Fix generation is best-effort: any failure yields no fix and
// never aborts the overall review.
type FixGenerator struct {
	Client llm.Client
	Scope  ScopeLookup
	Logger *slog.Logger
}

// fixArgs is the constrained tool payload.
type fixArgs struct {
	Code      string `json:"code"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
	Comment   string `json:"comment"`
}

// Generate produces an inline fix for one suggestion against the file's
// current content, or nil when no usable fix could be obtained.
func (g *FixGenerator) Generate(ctx context.Context, s Suggestion, content string) *InlineFix {
	fix, err := g.generate(ctx, s, content)
	if err != nil {
		logger := g.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("no inline fix produced", "file", s.Filename, "error", err)
		return nil
	}
	return fix
}

func (g *FixGenerator) generate(ctx context.Context, s Suggestion, content string) (*InlineFix, error) {
	if content == "" {
		return nil, fmt.Errorf("no file content available")
	}

	var scopeContext string
	if g.Scope != nil {
		start, end := locateCode(content, s.Code)
		scopeContext = g.Scope.Enclosing(s.Filename, content, start, end)
	}

	resp, err := g.Client.Complete(ctx, llm.Request{
		Turns:     BuildFixTurns(s, scopeContext),
		Tool:      FixToolSchema(),
		MaxTokens: responseMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if resp.ToolCall == nil || resp.ToolCall.Name != fixToolName {
		return nil, fmt.Errorf("model did not invoke %s", fixToolName)
	}

	var args fixArgs
	if err := json.Unmarshal([]byte(resp.ToolCall.Arguments), &args); err != nil {
		return nil, fmt.Errorf("malformed tool arguments: %w", err)
	}

	lines := strings.Split(content, "\n")
	if args.LineStart < 1 || args.LineEnd < args.LineStart || args.LineEnd > len(lines) {
		return nil, fmt.Errorf("line range %d-%d out of bounds", args.LineStart, args.LineEnd)
	}

	replacement := reindent(args.Code, leadingWhitespace(lines[args.LineStart-1]))

	// Novelty check: a fix identical to what is already there is a no-op.
	existing := strings.Join(lines[args.LineStart-1:args.LineEnd], "\n")
	if strings.TrimSpace(replacement) == strings.TrimSpace(existing) {
		return nil, fmt.Errorf("proposed fix matches existing code")
	}

	return &InlineFix{
		Filename:  s.Filename,
		LineStart: args.LineStart,
		LineEnd:   args.LineEnd,
		Code:      replacement,
		Comment:   args.Comment,
	}, nil
}

// locateCode finds the 1-based line range in content where the suggestion's
// code first appears. Falls back to the whole-file range when not found.
func locateCode(content, code string) (int, int) {
	contentLines := strings.Split(content, "\n")
	codeLines := strings.Split(strings.TrimSpace(code), "\n")
	if len(codeLines) == 0 || strings.TrimSpace(codeLines[0]) == "" {
		return 1, len(contentLines)
	}

	first := strings.TrimSpace(codeLines[0])
	for i, line := range contentLines {
		if strings.TrimSpace(line) == first {
			end := i + len(codeLines)
			if end > len(contentLines) {
				end = len(contentLines)
			}
			return i + 1, end
		}
	}
	return 1, len(contentLines)
}

// reindent copies the leading whitespace run of the first affected line onto
// every line of the replacement. The replacement's own base indentation is
// removed first so relative nesting survives.
func reindent(code, indent string) string {
	lines := strings.Split(strings.Trim(code, "\n"), "\n")
	base := leadingWhitespace(lines[0])
	for i, line := range lines {
		lines[i] = indent + strings.TrimPrefix(line, base)
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
