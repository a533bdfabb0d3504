package review

import (
	"fmt"
	"strings"
)

// ChangedFile is one file in the reviewed change set. OldContent is nil for
// newly added files and Content is nil for deleted files. PatchTokens caches
// the token length of the rendered patch so the packer never re-estimates.
type ChangedFile struct {
	Filename    string
	Hunk        string
	OldContent  *string
	Content     *string
	Patch       string
	PatchTokens int
}

// Extension returns the lower-cased file extension without the dot, or ""
// when the filename has none.
func (f *ChangedFile) Extension() string {
	base := f.Filename
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// Group is an ordered batch of files reviewed in one model conversation.
type Group []*ChangedFile

// Filenames returns the names of the files in the group, in order.
func (g Group) Filenames() []string {
	names := make([]string, len(g))
	for i, f := range g {
		names[i] = f.Filename
	}
	return names
}

// Patches returns the rendered patches of the files in the group, in order.
func (g Group) Patches() []string {
	patches := make([]string, len(g))
	for i, f := range g {
		patches[i] = f.Patch
	}
	return patches
}

// Suggestion is a single structured review comment parsed from model output.
type Suggestion struct {
	Description string
	Category    string
	Comment     string
	Code        string
	Filename    string
}

// Key derives the suggestion's semantic identity. Two suggestions with equal
// keys are the same suggestion regardless of which group produced them.
func (s Suggestion) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.Filename, s.Comment, s.Code)
}

// InlineFix is a concrete code replacement bound to a line range.
type InlineFix struct {
	Filename  string `json:"filename"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
	Code      string `json:"code"`
	Comment   string `json:"comment"`
}

// Timing contains per-phase durations in milliseconds.
type Timing struct {
	RenderMs int64 `json:"renderMs"`
	LLMMs    int64 `json:"llmMs"`
	TotalMs  int64 `json:"totalMs"`
}

// Result is the output contract of a review run: one aggregate comment plus
// zero or more inline fixes suitable for posting as a source-control review.
type Result struct {
	RunID        string       `json:"runId"`
	Comment      string       `json:"comment"`
	Suggestions  []Suggestion `json:"-"`
	Fixes        []InlineFix  `json:"fixes"`
	SkippedFiles int          `json:"skippedFiles"`
	Strategy     string       `json:"strategy"`
	Timing       Timing       `json:"timing"`
}

// Empty reports whether the run produced nothing to post.
func (r *Result) Empty() bool {
	return r.Comment == "" && len(r.Fixes) == 0
}
