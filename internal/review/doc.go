// Package review contains the core engine for LLM-based change-set review.
//
// A review run filters the change set, renders one textual patch per file,
// packs the patches into token-budgeted groups, sends each group to the
// model concurrently, and reconciles the responses into a deduplicated,
// file-addressable aggregate comment plus optional inline fixes.
//
// Packing is two-phase: files whose single-file conversation fits the budget
// are packed greedily (whole set, then per-extension buckets, then
// smallest-first accumulation); files that exceed the budget alone have
// their deletion lines stripped and are retried, with still-oversized files
// dropped and reported rather than silently lost.
//
// Response handling is strategy-driven: an XML-seeking prompt with a
// structured parser is tried first, falling back to a plain prompt whose
// outputs are concatenated as narrative feedback. Structured suggestions are
// deduplicated by (filename, comment, code) identity with last-write-wins
// semantics.
package review
