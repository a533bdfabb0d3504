package review

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
	"github.com/Paul-Clue/code-review-agent/internal/redact"
)

// Options configures a review run.
type Options struct {
	Client        llm.Client
	FixClient     llm.Client // defaults to Client
	Budget        int
	MaxLinkLength int
	InlineFixes   bool
	RedactSecrets bool
	RedactPaths   []string
	Cache         ResponseCache
	Scope         ScopeLookup
	Logger        *slog.Logger
}

// Run executes a full review: filter, render, pack, review, reconcile, and
// (optionally) generate inline fixes. A change set with zero eligible files
// returns an empty result without invoking the model at all.
func Run(ctx context.Context, files []*ChangedFile, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &Result{RunID: ulid.Make().String()}

	eligible := FilterFiles(files, logger)
	if len(eligible) == 0 {
		logger.Info("no reviewable files in change set", "run", result.RunID)
		result.Timing.TotalMs = time.Since(start).Milliseconds()
		return result, nil
	}

	renderStart := time.Now()
	renderPatches(eligible, opts)
	result.Timing.RenderMs = time.Since(renderStart).Milliseconds()

	reviewer := &Reviewer{
		Client: opts.Client,
		Budget: opts.Budget,
		Cache:  opts.Cache,
		Logger: logger,
	}
	comment, suggestions, strategy, skipped, err := reviewer.Run(ctx, eligible, DefaultStrategies(opts.MaxLinkLength))
	if err != nil {
		return nil, err
	}

	result.Comment = comment
	result.Suggestions = suggestions
	result.Strategy = strategy
	result.SkippedFiles = skipped
	if skipped > 0 {
		result.Comment += fmt.Sprintf("\n\n> %d file(s) were skipped: their patches exceed the token budget even after reduction.\n", skipped)
	}

	if opts.InlineFixes && len(suggestions) > 0 {
		result.Fixes = generateFixes(ctx, suggestions, eligible, opts, logger)
	}

	result.Timing.LLMMs = reviewer.LLMMs()
	result.Timing.TotalMs = time.Since(start).Milliseconds()
	return result, nil
}

// renderPatches renders every eligible file's patch concurrently. Each
// goroutine writes only its own slot. Redaction happens here so no secret
// ever reaches the packer or a provider.
func renderPatches(files []*ChangedFile, opts Options) {
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(f *ChangedFile) {
			defer wg.Done()
			patch := RenderPatch(f)
			if opts.RedactSecrets {
				patch = redact.Content(patch, f.Filename, opts.RedactPaths)
			}
			f.Patch = patch
		}(files[i])
	}
	wg.Wait()
}

// generateFixes runs the fix generator for every structured suggestion
// concurrently. Failures are isolated: one fix failing (or coming back
// redundant) does not cancel the others.
func generateFixes(ctx context.Context, suggestions []Suggestion, files []*ChangedFile, opts Options, logger *slog.Logger) []InlineFix {
	client := opts.FixClient
	if client == nil {
		client = opts.Client
	}
	gen := &FixGenerator{Client: client, Scope: opts.Scope, Logger: logger}

	contents := make(map[string]string, len(files))
	for _, f := range files {
		if f.Content != nil {
			contents[f.Filename] = *f.Content
		}
	}

	slots := make([]*InlineFix, len(suggestions))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrency)
	for i, s := range suggestions {
		content, ok := contents[s.Filename]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, s Suggestion, content string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			slots[i] = gen.Generate(ctx, s, content)
		}(i, s, content)
	}
	wg.Wait()

	var fixes []InlineFix
	for _, fix := range slots {
		if fix != nil {
			fixes = append(fixes, *fix)
		}
	}
	return fixes
}

func hashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return fmt.Sprintf("%x", h[:])
}
