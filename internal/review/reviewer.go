package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
)

// maxConcurrency limits parallel model calls.
const maxConcurrency = 4

// responseMaxTokens caps the model's output size per group.
const responseMaxTokens = 8192

// Strategy pairs a conversation builder with the parser for its responses.
// Strategies are tried in order; the first to succeed end-to-end (all groups
// sent, all responses parsed) wins.
type Strategy struct {
	Name  string
	Build TurnsBuilder
	Parse func(groupOutputs []string) (comment string, suggestions []Suggestion, err error)
}

// DefaultStrategies returns the configured fallback chain: structured
// XML-seeking review first, plain narrative concatenation second.
func DefaultStrategies(maxLinkLength int) []Strategy {
	return []Strategy{
		{
			Name:  "structured",
			Build: BuildStructuredTurns,
			Parse: func(raws []string) (string, []Suggestion, error) {
				suggestions, err := ParseStructured(raws)
				if err != nil {
					return "", nil, err
				}
				deduped := Deduplicate(suggestions)
				return RenderComment(deduped, maxLinkLength), deduped, nil
			},
		},
		{
			Name:  "plain",
			Build: BuildPlainTurns,
			Parse: func(raws []string) (string, []Suggestion, error) {
				return JoinPlain(raws), nil, nil
			},
		},
	}
}

// ResponseCache stores raw model responses keyed by request identity.
type ResponseCache interface {
	Get(key string) (string, bool)
	Put(key, response string) error
}

// Reviewer sends packed groups to the model and reconciles their responses.
type Reviewer struct {
	Client llm.Client
	Budget int
	Cache  ResponseCache
	Logger *slog.Logger

	// llmMs accumulates model wall time across groups and strategies.
	mu    sync.Mutex
	llmMs int64
}

// Run tries each strategy end-to-end against the same file set. Each
// strategy re-packs and rebuilds conversations with its own scaffolding.
// Exhausting all strategies returns the joined errors.
func (r *Reviewer) Run(ctx context.Context, files []*ChangedFile, strategies []Strategy) (comment string, suggestions []Suggestion, strategyName string, skipped int, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var failures []error
	for _, strat := range strategies {
		packer := NewPacker(r.Budget, strat.Build, logger)
		groups, dropped := packer.Pack(files)

		raws, runErr := r.runGroups(ctx, groups, strat.Build)
		if runErr != nil {
			logger.Warn("review strategy failed, falling through",
				"strategy", strat.Name, "error", runErr)
			failures = append(failures, fmt.Errorf("strategy %s: %w", strat.Name, runErr))
			continue
		}

		c, s, parseErr := strat.Parse(raws)
		if parseErr != nil {
			logger.Warn("response parsing failed, falling through",
				"strategy", strat.Name, "error", parseErr)
			failures = append(failures, fmt.Errorf("strategy %s: %w", strat.Name, parseErr))
			continue
		}
		return c, s, strat.Name, dropped, nil
	}

	return "", nil, "", 0, fmt.Errorf("all review strategies failed: %w", errors.Join(failures...))
}

// runGroups dispatches one model call per group, all concurrently with no
// completion-order guarantee. Results land in index-addressed slots so the
// output order matches the input group order. The first group error fails
// the whole strategy.
func (r *Reviewer) runGroups(ctx context.Context, groups []Group, build TurnsBuilder) ([]string, error) {
	type result struct {
		raw string
		err error
	}

	results := make([]result, len(groups))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrency)

	for i, group := range groups {
		wg.Add(1)
		go func(i int, group Group) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			raw, err := r.complete(ctx, build(group.Patches()))
			if err != nil {
				results[i] = result{err: fmt.Errorf("group %d (%d files): %w", i, len(group), err)}
				return
			}
			results[i] = result{raw: raw}
		}(i, group)
	}

	wg.Wait()

	raws := make([]string, len(groups))
	for i, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		raws[i] = res.raw
	}
	return raws, nil
}

// complete issues one model call, consulting the response cache first.
func (r *Reviewer) complete(ctx context.Context, turns []llm.Turn) (string, error) {
	var key string
	if r.Cache != nil {
		key = cacheKey(r.Client.Name(), turns)
		if raw, ok := r.Cache.Get(key); ok {
			return raw, nil
		}
	}

	start := time.Now()
	resp, err := r.Client.Complete(ctx, llm.Request{
		Turns:     turns,
		MaxTokens: responseMaxTokens,
	})
	r.mu.Lock()
	r.llmMs += time.Since(start).Milliseconds()
	r.mu.Unlock()
	if err != nil {
		return "", err
	}

	if r.Cache != nil {
		if err := r.Cache.Put(key, resp.Content); err != nil && r.Logger != nil {
			r.Logger.Debug("cache write failed", "error", err)
		}
	}
	return resp.Content, nil
}

// LLMMs returns the accumulated model wall time in milliseconds.
func (r *Reviewer) LLMMs() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.llmMs
}

func cacheKey(provider string, turns []llm.Turn) string {
	var b []byte
	for _, t := range turns {
		b = strconv.AppendInt(b, int64(len(t.Content)), 10)
		b = append(b, byte(0))
		b = append(b, t.Role...)
		b = append(b, byte(0))
		b = append(b, t.Content...)
	}
	return provider + ":" + hashBytes(b)
}
