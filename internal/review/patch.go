package review

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// diffContextLines is the number of context lines in synthesized hunks.
const diffContextLines = 3

// RenderPatch converts a changed file into the textual patch representation
// embedded in review prompts. Deterministic for identical input; no network
// or model calls. When the source-control hunk is missing, a unified diff is
// synthesized from the old and current contents.
func RenderPatch(f *ChangedFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", f.Filename)

	body := f.Hunk
	if body == "" {
		body = synthesizeHunk(f)
	}
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	return b.String()
}

// synthesizeHunk builds a unified diff from full contents. Nil old content
// means the file is new; nil current content means it was deleted.
func synthesizeHunk(f *ChangedFile) string {
	old := ""
	if f.OldContent != nil {
		old = *f.OldContent
	}
	current := ""
	if f.Content != nil {
		current = *f.Content
	}
	if old == "" && current == "" {
		return "(no content available)"
	}

	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(current),
		FromFile: "a/" + f.Filename,
		ToFile:   "b/" + f.Filename,
		Context:  diffContextLines,
	}
	if f.OldContent == nil {
		u.FromFile = "/dev/null"
	}
	if f.Content == nil {
		u.ToFile = "/dev/null"
	}

	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return "(diff unavailable)"
	}
	return s
}

// StripRemovedLines drops all deletion lines from a patch. Deleted lines are
// lower-value context for review than additions, so this is the lossy
// size-reducing transform applied to oversized files. Idempotent.
func StripRemovedLines(patch string) string {
	lines := strings.Split(patch, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
