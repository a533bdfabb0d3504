package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a throwaway git repository and chdirs into it.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	run(t, "git", "init", "-q")
	run(t, "git", "config", "user.email", "test@example.com")
	run(t, "git", "config", "user.name", "Test")
	return dir
}

func run(t *testing.T, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %s: %v\n%s", name, strings.Join(args, " "), err, out)
	}
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStaged(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	run(t, "git", "add", "main.go")
	run(t, "git", "commit", "-q", "-m", "initial")

	write(t, dir, "main.go", "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(\"hi\") }\n")
	run(t, "git", "add", "main.go")

	files, err := Staged()
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}

	f := files[0]
	if f.Filename != "main.go" {
		t.Errorf("Filename = %q", f.Filename)
	}
	if !strings.Contains(f.Hunk, "+import \"fmt\"") {
		t.Errorf("Hunk missing addition: %q", f.Hunk)
	}
	if f.OldContent == nil || !strings.Contains(*f.OldContent, "func main() {}") {
		t.Errorf("OldContent = %v", f.OldContent)
	}
	if f.Content == nil || !strings.Contains(*f.Content, "fmt.Println") {
		t.Errorf("Content = %v", f.Content)
	}
}

func TestStaged_AddedFile(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "base.go", "package main\n")
	run(t, "git", "add", "base.go")
	run(t, "git", "commit", "-q", "-m", "initial")

	write(t, dir, "new.go", "package main\n\nvar x = 1\n")
	run(t, "git", "add", "new.go")

	files, err := Staged()
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if files[0].OldContent != nil {
		t.Errorf("added file should have nil OldContent, got %q", *files[0].OldContent)
	}
	if files[0].Content == nil {
		t.Error("added file missing current content")
	}
}

func TestUnstaged(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	run(t, "git", "add", "main.go")
	run(t, "git", "commit", "-q", "-m", "initial")

	write(t, dir, "main.go", "package main\n\nfunc main() { println(1) }\n")

	files, err := Unstaged()
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if files[0].Content == nil || !strings.Contains(*files[0].Content, "println(1)") {
		t.Errorf("Content should come from the working tree: %v", files[0].Content)
	}
}

func TestUnstaged_DeletedFile(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "gone.go", "package main\n")
	run(t, "git", "add", "gone.go")
	run(t, "git", "commit", "-q", "-m", "initial")

	if err := os.Remove(filepath.Join(dir, "gone.go")); err != nil {
		t.Fatal(err)
	}

	files, err := Unstaged()
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if files[0].Content != nil {
		t.Errorf("deleted file should have nil Content, got %q", *files[0].Content)
	}
	if files[0].OldContent == nil {
		t.Error("deleted file missing old content")
	}
}

func TestCommit(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "main.go", "package main\n")
	run(t, "git", "add", "main.go")
	run(t, "git", "commit", "-q", "-m", "first")

	write(t, dir, "main.go", "package main\n\nvar v = 2\n")
	run(t, "git", "add", "main.go")
	run(t, "git", "commit", "-q", "-m", "second")

	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		t.Fatal(err)
	}
	sha := strings.TrimSpace(string(out))

	files, err := Commit(sha)
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	f := files[0]
	if f.OldContent == nil || strings.Contains(*f.OldContent, "var v") {
		t.Errorf("OldContent should be the parent version: %v", f.OldContent)
	}
	if f.Content == nil || !strings.Contains(*f.Content, "var v = 2") {
		t.Errorf("Content should be the commit version: %v", f.Content)
	}
}

func TestGetRepoMeta(t *testing.T) {
	dir := initRepo(t)

	write(t, dir, "main.go", "package main\n")
	run(t, "git", "add", "main.go")
	run(t, "git", "commit", "-q", "-m", "initial")

	meta, err := GetRepoMeta()
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	if meta.Root == "" || meta.Head == "" || meta.Branch == "" {
		t.Errorf("meta = %+v", meta)
	}
}
