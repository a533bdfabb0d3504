package review

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
	"github.com/Paul-Clue/code-review-agent/internal/tokens"
)

// fakeClient is a scriptable llm.Client for tests.
type fakeClient struct {
	name string
	fn   func(req llm.Request) (llm.Response, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeClient) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mapCache is an in-memory ResponseCache.
type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]string)} }

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Put(key, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = response
	return nil
}

const structuredResponse = `<review><suggestion><describe>d</describe><type>bug</type><comment>broken</comment><code>x := 1</code><filename>a.go</filename></suggestion></review>`

func testFiles() []*ChangedFile {
	return []*ChangedFile{
		{Filename: "a.go", Patch: "## a.go\n\n+x := 1\n"},
		{Filename: "b.go", Patch: "## b.go\n\n+y := 2\n"},
	}
}

func TestReviewerRun_StructuredSucceeds(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Content: structuredResponse}, nil
	}}
	r := &Reviewer{Client: client, Budget: 100000}

	comment, suggestions, strategy, skipped, err := r.Run(context.Background(), testFiles(), DefaultStrategies(2048))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strategy != "structured" {
		t.Errorf("strategy = %q, want structured", strategy)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(suggestions) != 1 || suggestions[0].Filename != "a.go" {
		t.Errorf("suggestions = %+v", suggestions)
	}
	if !strings.Contains(comment, "### a.go") {
		t.Errorf("comment missing file block: %q", comment)
	}
}

func TestReviewerRun_FallsBackToPlain(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		// Never returns parseable XML, so the structured strategy fails and
		// the plain strategy must win with this same narrative text.
		return llm.Response{Content: "The code looks mostly fine but a.go has a bug."}, nil
	}}
	r := &Reviewer{Client: client, Budget: 100000}

	comment, suggestions, strategy, _, err := r.Run(context.Background(), testFiles(), DefaultStrategies(2048))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strategy != "plain" {
		t.Errorf("strategy = %q, want plain", strategy)
	}
	if len(suggestions) != 0 {
		t.Errorf("plain strategy returned structured suggestions: %+v", suggestions)
	}
	if !strings.Contains(comment, "a.go has a bug") {
		t.Errorf("comment = %q", comment)
	}
}

func TestReviewerRun_AllStrategiesFail(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{}, fmt.Errorf("model unavailable")
	}}
	r := &Reviewer{Client: client, Budget: 100000}

	_, _, _, _, err := r.Run(context.Background(), testFiles(), DefaultStrategies(2048))
	if err == nil {
		t.Fatal("expected error when every strategy fails")
	}
	if !strings.Contains(err.Error(), "all review strategies failed") {
		t.Errorf("error = %q", err)
	}
	if !strings.Contains(err.Error(), "structured") || !strings.Contains(err.Error(), "plain") {
		t.Errorf("aggregate error should name both strategies: %q", err)
	}
}

func TestReviewerRun_GroupErrorNamesGroup(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{}, fmt.Errorf("boom")
	}}
	r := &Reviewer{Client: client, Budget: 100000}

	_, _, _, _, err := r.Run(context.Background(), testFiles(), DefaultStrategies(2048))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "group 0") {
		t.Errorf("error should identify the failing group: %q", err)
	}
}

func TestReviewerComplete_UsesCache(t *testing.T) {
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Content: structuredResponse}, nil
	}}
	cache := newMapCache()
	r := &Reviewer{Client: client, Budget: 100000, Cache: cache}

	files := testFiles()
	if _, _, _, _, err := r.Run(context.Background(), files, DefaultStrategies(2048)); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	callsAfterFirst := client.callCount()
	if callsAfterFirst == 0 {
		t.Fatal("first run made no model calls")
	}

	if _, _, _, _, err := r.Run(context.Background(), files, DefaultStrategies(2048)); err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if client.callCount() != callsAfterFirst {
		t.Errorf("second run hit the model %d more times, want cache hits",
			client.callCount()-callsAfterFirst)
	}
}

func TestReviewerRun_MultipleGroupsOrdered(t *testing.T) {
	// Tight budget forces one group per file. Responses are keyed off the
	// requested file so ordering of the reconciled output can be asserted.
	client := &fakeClient{fn: func(req llm.Request) (llm.Response, error) {
		body := req.Turns[len(req.Turns)-1].Content
		file := "a.go"
		if strings.Contains(body, "## b.go") {
			file = "b.go"
		}
		raw := `<review><suggestion><describe>d</describe><type>bug</type><comment>c</comment><code>x</code><filename>` + file + `</filename></suggestion></review>`
		return llm.Response{Content: raw}, nil
	}}

	files := []*ChangedFile{
		{Filename: "a.go", Patch: "## a.go\n\n" + strings.Repeat("+aaaa\n", 20)},
		{Filename: "b.go", Patch: "## b.go\n\n" + strings.Repeat("+bbbb\n", 20)},
	}

	// Big enough for either file alone plus scaffolding, too small for both.
	budget := 0
	for _, f := range files {
		if cost := tokens.EstimateTurns(BuildStructuredTurns([]string{f.Patch})); cost > budget {
			budget = cost
		}
	}
	r := &Reviewer{Client: client, Budget: budget + 5}

	comment, suggestions, _, _, err := r.Run(context.Background(), files, DefaultStrategies(2048))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %+v, want 2", suggestions)
	}
	if suggestions[0].Filename != "a.go" || suggestions[1].Filename != "b.go" {
		t.Errorf("suggestion order = %s, %s; want input group order",
			suggestions[0].Filename, suggestions[1].Filename)
	}
	if strings.Index(comment, "### a.go") > strings.Index(comment, "### b.go") {
		t.Errorf("comment blocks out of order: %q", comment)
	}
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("anthropic", []llm.Turn{
		{Role: llm.RoleSystem, Content: "rules"},
		{Role: llm.RoleUser, Content: "patch"},
	})
	same := cacheKey("anthropic", []llm.Turn{
		{Role: llm.RoleSystem, Content: "rules"},
		{Role: llm.RoleUser, Content: "patch"},
	})
	if a != same {
		t.Error("identical conversations should share a key")
	}

	roleSwapped := cacheKey("anthropic", []llm.Turn{
		{Role: llm.RoleUser, Content: "rules"},
		{Role: llm.RoleSystem, Content: "patch"},
	})
	if a == roleSwapped {
		t.Error("conversations with the same contents but different roles must not collide")
	}

	splitMoved := cacheKey("anthropic", []llm.Turn{
		{Role: llm.RoleSystem, Content: "rulesp"},
		{Role: llm.RoleUser, Content: "atch"},
	})
	if a == splitMoved {
		t.Error("conversations with the same concatenated content must not collide")
	}

	otherProvider := cacheKey("openai", []llm.Turn{
		{Role: llm.RoleSystem, Content: "rules"},
		{Role: llm.RoleUser, Content: "patch"},
	})
	if a == otherProvider {
		t.Error("provider must be part of the key")
	}
}
