package refine

import (
	"sort"

	"ragkit/internal/domain"
)

// StitchConfig bounds the size of a stitched context window.
type StitchConfig struct {
	MaxChars int
}

// Stitch merges retrieved candidates that are adjacent in their source
// document (contiguous chunk indices) into fewer, longer candidates, as
// long as the merged content stays within the character budget. The
// merged candidate keeps the best score among its members. Documents are
// emitted in order of their best original score, so stitching never
// promotes a document past a better-scoring one.
func Stitch(candidates []domain.RetrievedCandidate, cfg StitchConfig) []domain.RetrievedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	groups := make(map[string][]domain.RetrievedCandidate)
	bestScore := make(map[string]float64)
	var docOrder []string
	for _, c := range candidates {
		id := c.Chunk.DocID
		if _, seen := groups[id]; !seen {
			docOrder = append(docOrder, id)
			bestScore[id] = c.Score
		} else if c.Score > bestScore[id] {
			bestScore[id] = c.Score
		}
		groups[id] = append(groups[id], c)
	}

	sort.SliceStable(docOrder, func(i, j int) bool {
		return bestScore[docOrder[i]] > bestScore[docOrder[j]]
	})

	var out []domain.RetrievedCandidate
	for _, docID := range docOrder {
		group := groups[docID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Chunk.Index < group[j].Chunk.Index
		})
		out = append(out, stitchGroup(group, cfg.MaxChars)...)
	}
	return out
}

// stitchGroup greedily merges a candidate with its immediate successors
// while indices stay contiguous and the joined content fits the budget.
func stitchGroup(group []domain.RetrievedCandidate, maxChars int) []domain.RetrievedCandidate {
	var merged []domain.RetrievedCandidate

	cur := group[0]
	lastIndex := cur.Chunk.Index
	for _, next := range group[1:] {
		joinedLen := len(cur.Chunk.Content) + len("\n\n") + len(next.Chunk.Content)
		if next.Chunk.Index == lastIndex+1 && (maxChars <= 0 || joinedLen <= maxChars) {
			cur.Chunk.Content += "\n\n" + next.Chunk.Content
			if next.Score > cur.Score {
				cur.Score = next.Score
			}
			lastIndex = next.Chunk.Index
			continue
		}
		merged = append(merged, cur)
		cur = next
		lastIndex = next.Chunk.Index
	}
	merged = append(merged, cur)
	return merged
}
