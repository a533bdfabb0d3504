// Code-review-agent is a CLI for reviewing code changes with LLM providers.
//
// It packs arbitrarily large change sets into token-bounded model
// conversations, reconciles the responses into a single deduplicated review
// comment, and optionally generates inline fix suggestions anchored to line
// ranges. Results can be printed locally or posted to a GitHub pull request.
//
// Usage:
//
//	code-review-agent review unstaged     # review working tree changes
//	code-review-agent review staged       # review staged changes
//	code-review-agent review commit <sha> # review a specific commit
//	code-review-agent review pr <number>  # review and annotate a GitHub PR
//
// See https://github.com/Paul-Clue/code-review-agent for full documentation.
package main
