package refine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ragkit/internal/domain"
)

// Preferences are the stated constraints for reranking structured
// listings. Zero values disable the corresponding rule.
type Preferences struct {
	Budget    float64
	MinRating float64
	Amenities []string
}

// Reward sizes for the linear preference rules. Retrieval score stays the
// base so reranking adjusts the order without drowning out similarity.
const (
	budgetReward  = 0.15
	ratingReward  = 0.10
	amenityReward = 0.05
)

// RankByPreference adjusts retrieval scores with simple linear rules over
// the candidates' listing metadata (price, rating, amenities) and records
// each applied rule as a human-readable reason. Output is sorted by
// preference score descending.
func RankByPreference(candidates []domain.RetrievedCandidate, prefs Preferences) []domain.RankedCandidate {
	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		r := domain.RankedCandidate{
			RetrievedCandidate: c,
			PreferenceScore:    c.Score,
		}

		if prefs.Budget > 0 {
			if price, ok := parseFloatField(c.Chunk.Metadata["price"]); ok && price <= prefs.Budget {
				r.PreferenceScore += budgetReward
				r.Reasons = append(r.Reasons, fmt.Sprintf("price %.2f within budget %.2f", price, prefs.Budget))
			}
		}

		if prefs.MinRating > 0 {
			if rating, ok := parseFloatField(c.Chunk.Metadata["rating"]); ok && rating >= prefs.MinRating {
				r.PreferenceScore += ratingReward
				r.Reasons = append(r.Reasons, fmt.Sprintf("rating %.1f meets minimum %.1f", rating, prefs.MinRating))
			}
		}

		if len(prefs.Amenities) > 0 {
			available := splitAmenities(c.Chunk.Metadata["amenities"])
			for _, want := range prefs.Amenities {
				if hasAmenity(available, want) {
					r.PreferenceScore += amenityReward
					r.Reasons = append(r.Reasons, fmt.Sprintf("has requested amenity %q", want))
				}
			}
		}

		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PreferenceScore > ranked[j].PreferenceScore
	})
	return ranked
}

func parseFloatField(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func splitAmenities(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasAmenity(available []string, want string) bool {
	for _, a := range available {
		if strings.EqualFold(a, want) {
			return true
		}
	}
	return false
}
