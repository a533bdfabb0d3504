// Package gitctx materializes local git change sets for review.
//
// It supports three modes — unstaged, staged, and commit — by shelling out
// to git. Each changed file is returned with its diff hunk, its old content
// (nil for added files), and its current content (nil for deleted files), so
// the review engine sees the same shape for local changes and pull requests.
package gitctx

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Paul-Clue/code-review-agent/internal/review"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the change set of working tree vs index.
func Unstaged() ([]*review.ChangedFile, error) {
	return changeSet(nil, "HEAD", "")
}

// Staged returns the change set of index vs HEAD.
func Staged() ([]*review.ChangedFile, error) {
	return changeSet([]string{"--cached"}, "HEAD", "")
}

// Commit returns the change set of a specific commit vs its parent.
func Commit(sha string) ([]*review.ChangedFile, error) {
	return changeSet([]string{sha + "~1", sha}, sha+"~1", sha)
}

// changeSet lists changed paths for the given diff arguments and enriches
// each with its hunk and contents. oldRef is the revision holding the old
// content; newRef is the revision holding the current content ("" means the
// working tree).
func changeSet(diffArgs []string, oldRef, newRef string) ([]*review.ChangedFile, error) {
	statusArgs := append([]string{"diff", "--name-status"}, diffArgs...)
	out, err := gitOutput(statusArgs...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", strings.Join(statusArgs, " "), err)
	}

	var files []*review.ChangedFile
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		status, path := parts[0], parts[len(parts)-1]

		f := &review.ChangedFile{Filename: path}

		hunkArgs := append(append([]string{"diff"}, diffArgs...), "--", path)
		if hunk, err := gitOutput(hunkArgs...); err == nil {
			f.Hunk = strings.TrimSpace(hunk)
		}

		if !strings.HasPrefix(status, "A") {
			if old, err := showFile(oldRef, path); err == nil {
				f.OldContent = &old
			}
		}
		if !strings.HasPrefix(status, "D") {
			content, err := currentContent(newRef, path)
			if err == nil {
				f.Content = &content
			}
		}

		files = append(files, f)
	}
	return files, nil
}

func currentContent(ref, path string) (string, error) {
	if ref == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return showFile(ref, path)
}

func showFile(ref, path string) (string, error) {
	out, err := gitOutput("show", ref+":"+path)
	if err != nil {
		return "", err
	}
	return out, nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
