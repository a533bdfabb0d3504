package review

import (
	"log/slog"
	"sort"

	"github.com/Paul-Clue/code-review-agent/internal/llm"
	"github.com/Paul-Clue/code-review-agent/internal/tokens"
)

// TurnsBuilder renders a full review conversation (fixed scaffolding plus
// joined patches) for a set of rendered patches. The packer probes group
// candidates through it so that scaffolding cost is always accounted for.
type TurnsBuilder func(patches []string) []llm.Turn

// Packer partitions rendered patches into groups whose full conversations
// fit a token budget. Groups are kept as large as possible to minimize the
// number of model calls.
type Packer struct {
	Budget     int
	BuildTurns TurnsBuilder
	Logger     *slog.Logger
}

// NewPacker returns a Packer probing with the given builder and budget.
func NewPacker(budget int, build TurnsBuilder, logger *slog.Logger) *Packer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Packer{Budget: budget, BuildTurns: build, Logger: logger}
}

// Pack partitions files into budget-respecting groups. Files whose patch
// cannot be brought under budget even after stripping deletion lines are
// dropped; the count of dropped files is returned so the caller can surface
// a user-visible notice. Every emitted group estimates under budget.
func (p *Packer) Pack(files []*ChangedFile) ([]Group, int) {
	if len(files) == 0 {
		return nil, 0
	}

	for _, f := range files {
		f.PatchTokens = tokens.Estimate(f.Patch)
	}

	var within, outside []*ChangedFile
	for _, f := range files {
		if p.fits([]string{f.Patch}) {
			within = append(within, f)
		} else {
			outside = append(outside, f)
		}
	}

	groups := p.packWithin(within)
	overflow, skipped := p.packOversized(outside)
	groups = append(groups, overflow...)

	if skipped > 0 {
		p.Logger.Warn("skipped files exceeding token budget even after stripping deletions",
			"count", skipped)
	}
	return groups, skipped
}

// packWithin implements the greedy phase for files that individually fit.
func (p *Packer) packWithin(files []*ChangedFile) []Group {
	if len(files) == 0 {
		return nil
	}

	// Whole set in one conversation is the best case.
	if p.fits(Group(files).Patches()) {
		return []Group{files}
	}

	// Bucket by extension: same-language context co-locates better and
	// bounds regrouping to one extension class at a time.
	byExt := make(map[string][]*ChangedFile)
	var extOrder []string
	for _, f := range files {
		ext := f.Extension()
		if _, seen := byExt[ext]; !seen {
			extOrder = append(extOrder, ext)
		}
		byExt[ext] = append(byExt[ext], f)
	}

	var groups []Group
	for _, ext := range extOrder {
		bucket := byExt[ext]
		if p.fits(Group(bucket).Patches()) {
			groups = append(groups, bucket)
			continue
		}

		// Smallest-first maximizes how many files pack before a
		// budget-exceeding file forces a new group. Stable: preserves
		// input order among equal token lengths.
		sorted := make([]*ChangedFile, len(bucket))
		copy(sorted, bucket)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PatchTokens < sorted[j].PatchTokens
		})

		var current Group
		for _, f := range sorted {
			candidate := append(append(Group{}, current...), f)
			if p.fits(candidate.Patches()) {
				current = candidate
				continue
			}
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = Group{f}
		}
		if len(current) > 0 {
			groups = append(groups, current)
		}
	}
	return groups
}

// packOversized handles files whose single-file conversation exceeds the
// budget alone. Deletion lines are stripped from their patches; files that
// remain oversized are dropped (no further chunking is attempted).
func (p *Packer) packOversized(files []*ChangedFile) ([]Group, int) {
	if len(files) == 0 {
		return nil, 0
	}

	for _, f := range files {
		f.Patch = StripRemovedLines(f.Patch)
		f.PatchTokens = tokens.Estimate(f.Patch)
	}

	if p.fits(Group(files).Patches()) {
		return []Group{files}, 0
	}

	var recovered []*ChangedFile
	skipped := 0
	for _, f := range files {
		if p.fits([]string{f.Patch}) {
			recovered = append(recovered, f)
		} else {
			p.Logger.Warn("file exceeds token budget after stripping deletions",
				"file", f.Filename, "tokens", f.PatchTokens)
			skipped++
		}
	}
	return p.packWithin(recovered), skipped
}

func (p *Packer) fits(patches []string) bool {
	return tokens.EstimateTurns(p.BuildTurns(patches)) <= p.Budget
}
