// Package tokens estimates the model-unit cost of prompt text.
//
// The estimate is a character heuristic (roughly four characters per token
// for code and English prose) plus a small fixed overhead per conversation
// turn for role framing. It deliberately overshoots slightly so that groups
// packed against a budget stay under the real limit.
package tokens

import "github.com/Paul-Clue/code-review-agent/internal/llm"

const (
	// charsPerToken is the approximation used for mixed code/prose text.
	charsPerToken = 4
	// turnOverhead accounts for role tags and message framing.
	turnOverhead = 4
)

// Estimate returns the approximate token cost of a single piece of text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateTurns returns the approximate token cost of a full conversation.
func EstimateTurns(turns []llm.Turn) int {
	total := 0
	for _, t := range turns {
		total += Estimate(t.Content) + turnOverhead
	}
	return total
}
