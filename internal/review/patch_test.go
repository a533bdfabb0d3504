package review

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestRenderPatch_WithHunk(t *testing.T) {
	f := &ChangedFile{
		Filename: "main.go",
		Hunk:     "@@ -1,2 +1,2 @@\n-old line\n+new line",
	}
	got := RenderPatch(f)
	if !strings.HasPrefix(got, "## main.go\n\n") {
		t.Errorf("patch missing filename header: %q", got)
	}
	if !strings.Contains(got, "+new line") {
		t.Errorf("patch missing hunk body: %q", got)
	}
}

func TestRenderPatch_Deterministic(t *testing.T) {
	f := &ChangedFile{
		Filename:   "a.go",
		OldContent: strPtr("package a\n\nfunc Old() {}\n"),
		Content:    strPtr("package a\n\nfunc New() {}\n"),
	}
	first := RenderPatch(f)
	second := RenderPatch(f)
	if first != second {
		t.Errorf("RenderPatch not deterministic:\n%q\n%q", first, second)
	}
}

func TestRenderPatch_SynthesizesWhenHunkMissing(t *testing.T) {
	f := &ChangedFile{
		Filename:   "a.go",
		OldContent: strPtr("line one\nline two\n"),
		Content:    strPtr("line one\nline changed\n"),
	}
	got := RenderPatch(f)
	if !strings.Contains(got, "-line two") || !strings.Contains(got, "+line changed") {
		t.Errorf("synthesized diff missing change markers: %q", got)
	}
}

func TestRenderPatch_NewFile(t *testing.T) {
	f := &ChangedFile{
		Filename: "new.go",
		Content:  strPtr("package new\n"),
	}
	got := RenderPatch(f)
	if !strings.Contains(got, "/dev/null") {
		t.Errorf("new-file diff should use /dev/null as the from side: %q", got)
	}
	if !strings.Contains(got, "+package new") {
		t.Errorf("new-file diff missing added content: %q", got)
	}
}

func TestRenderPatch_DeletedFile(t *testing.T) {
	f := &ChangedFile{
		Filename:   "gone.go",
		OldContent: strPtr("package gone\n"),
	}
	got := RenderPatch(f)
	if !strings.Contains(got, "/dev/null") {
		t.Errorf("deleted-file diff should use /dev/null as the to side: %q", got)
	}
	if !strings.Contains(got, "-package gone") {
		t.Errorf("deleted-file diff missing removed content: %q", got)
	}
}

func TestStripRemovedLines(t *testing.T) {
	patch := "--- a/f.go\n+++ b/f.go\n@@ -1,2 +1,2 @@\n-removed\n+added\n context"
	got := StripRemovedLines(patch)

	if strings.Contains(got, "-removed") {
		t.Errorf("deletion line survived: %q", got)
	}
	if !strings.Contains(got, "+added") || !strings.Contains(got, " context") {
		t.Errorf("non-deletion lines lost: %q", got)
	}
	if !strings.Contains(got, "--- a/f.go") {
		t.Errorf("diff header line stripped: %q", got)
	}
}

func TestStripRemovedLines_Idempotent(t *testing.T) {
	patch := "@@ -1,3 +1,2 @@\n-gone\n+here\n same"
	once := StripRemovedLines(patch)
	twice := StripRemovedLines(once)
	if once != twice {
		t.Errorf("StripRemovedLines not idempotent:\n%q\n%q", once, twice)
	}
}
