package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Paul-Clue/code-review-agent/internal/review"
)

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"## Code Review",
		"off by one",
		"<details>",
		"### `a.go:3-3`",
		"```go\ni <= n\n```",
		"Skipped 1 file(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, &review.Result{}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "No issues found") {
		t.Errorf("empty result output = %q", buf.String())
	}
}

func TestInferLang(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.ts", "typescript"},
		{"script.py", "python"},
		{"unknown.xyz", ""},
	}
	for _, tt := range tests {
		if got := inferLang(tt.path); got != tt.want {
			t.Errorf("inferLang(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
