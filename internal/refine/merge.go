package refine

import (
	"sort"

	"ragkit/internal/domain"
)

// Merge combines candidate lists produced by multiple query forms:
// duplicates (same chunk ID) keep the maximum score seen across lists,
// the union is sorted by score descending and truncated to topK. Ties
// keep first-seen order.
func Merge(lists [][]domain.RetrievedCandidate, topK int) []domain.RetrievedCandidate {
	best := make(map[string]domain.RetrievedCandidate)
	var order []string

	for _, list := range lists {
		for _, c := range list {
			id := c.Chunk.ID
			existing, seen := best[id]
			if !seen {
				best[id] = c
				order = append(order, id)
				continue
			}
			if c.Score > existing.Score {
				best[id] = c
			}
		}
	}

	merged := make([]domain.RetrievedCandidate, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
