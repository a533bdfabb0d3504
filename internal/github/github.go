package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Paul-Clue/code-review-agent/internal/review"
)

const defaultAPIURL = "https://api.github.com"

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// prFile is the wire shape of a file entry in the PR files listing.
type prFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
	SHA      string `json:"sha"`
}

// prDetail is the wire shape of the PR metadata we need.
type prDetail struct {
	Head struct {
		SHA string `json:"sha"`
	} `json:"head"`
	Base struct {
		SHA string `json:"sha"`
	} `json:"base"`
}

// GetPR fetches head and base commit SHAs for a pull request.
func (c *Client) GetPR(ctx context.Context, owner, repo string, prNumber int) (headSHA, baseSHA string, err error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiURL, owner, repo, prNumber)
	status, body, err := c.get(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("fetching PR: %w", err)
	}
	if status == 404 {
		return "", "", fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if status == 401 || status == 403 {
		return "", "", fmt.Errorf("authentication failed: %s", string(body))
	}
	if status != 200 {
		return "", "", fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}

	var detail prDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return "", "", fmt.Errorf("parsing response: %w", err)
	}
	return detail.Head.SHA, detail.Base.SHA, nil
}

// GetPRFiles fetches the changed files of a pull request as review inputs.
// Each file carries its diff hunk from the listing; old and current contents
// are fetched from the contents API at the base and head commits.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]*review.ChangedFile, error) {
	headSHA, baseSHA, err := c.GetPR(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}

	var listed []prFile
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100&page=%d",
			c.apiURL, owner, repo, prNumber, page)
		status, body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetching PR files: %w", err)
		}
		if status != 200 {
			return nil, fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
		}

		var pageFiles []prFile
		if err := json.Unmarshal(body, &pageFiles); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		listed = append(listed, pageFiles...)
		if len(pageFiles) < 100 {
			break
		}
	}

	files := make([]*review.ChangedFile, 0, len(listed))
	for _, pf := range listed {
		f := &review.ChangedFile{
			Filename: pf.Filename,
			Hunk:     pf.Patch,
		}
		if !review.Reviewable(pf.Filename) {
			// Still listed so the filter can log the rejection.
			files = append(files, f)
			continue
		}
		if pf.Status != "added" {
			old, err := c.GetFileContent(ctx, owner, repo, pf.Filename, baseSHA)
			if err != nil {
				return nil, err
			}
			f.OldContent = old
		}
		if pf.Status != "removed" {
			content, err := c.GetFileContent(ctx, owner, repo, pf.Filename, headSHA)
			if err != nil {
				return nil, err
			}
			f.Content = content
		}
		files = append(files, f)
	}
	return files, nil
}

// contentsResponse is the wire shape of the contents API.
type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFileContent fetches a file's content at a specific ref. Returns nil
// (not an error) when the file does not exist at that ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (*string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.apiURL, owner, repo, escapePath(path), url.QueryEscape(ref))
	status, body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching file content: %w", err)
	}
	if status == 404 {
		return nil, nil
	}
	if status != 200 {
		return nil, fmt.Errorf("GitHub API error (status %d): %s", status, string(body))
	}

	var cr contentsResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if cr.Encoding != "base64" {
		content := cr.Content
		return &content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding file content: %w", err)
	}
	content := string(decoded)
	return &content, nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ReviewComment represents an inline comment on a PR review.
type ReviewComment struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	StartLine int    `json:"start_line,omitempty"`
	Side      string `json:"side"`
	Body      string `json:"body"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, reviewReq ReviewRequest) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.apiURL, owner, repo, prNumber)

	payload, err := json.Marshal(reviewReq)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == 422 {
		return fmt.Errorf("GitHub rejected review (422): %s", string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// BuildReviewRequest converts a review result into a GitHub PR review. Inline
// fixes become suggestion comments anchored to their line ranges; the summary
// comment becomes the review body.
func BuildReviewRequest(result *review.Result) ReviewRequest {
	comments := make([]ReviewComment, 0, len(result.Fixes))
	for _, fix := range result.Fixes {
		comments = append(comments, ReviewComment{
			Path:      fix.Filename,
			Line:      fix.LineEnd,
			StartLine: startLineFor(fix),
			Side:      "RIGHT",
			Body:      formatSuggestion(fix),
		})
	}

	body := result.Comment
	if body == "" {
		body = "No issues found."
	}

	return ReviewRequest{
		Body:     body,
		Event:    "COMMENT",
		Comments: comments,
	}
}

// startLineFor returns the multi-line anchor start, or 0 for single-line
// comments where GitHub rejects a start_line equal to line.
func startLineFor(fix review.InlineFix) int {
	if fix.LineStart == fix.LineEnd {
		return 0
	}
	return fix.LineStart
}

func formatSuggestion(fix review.InlineFix) string {
	var sb strings.Builder
	if fix.Comment != "" {
		sb.WriteString(fix.Comment)
		sb.WriteString("\n\n")
	}
	sb.WriteString("```suggestion\n")
	sb.WriteString(strings.TrimRight(fix.Code, "\n"))
	sb.WriteString("\n```")
	return sb.String()
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	url := strings.TrimSpace(string(out))
	return ParseRemoteURL(url)
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
