package refine

import (
	"regexp"
	"strings"

	"ragkit/internal/domain"
)

// ValidateConfig controls relevance validation. The semantic and lexical
// thresholds are independent signals combined with OR: embedding
// similarity alone both over- and under-triggers on paraphrase vs.
// exact-match questions.
type ValidateConfig struct {
	ScoreThreshold   float64
	OverlapThreshold float64
	HighlightWindow  int
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Validate annotates each candidate with its lexical overlap against the
// question, a relevance verdict, and an excerpt centered on the first
// keyword hit.
func Validate(question string, candidates []domain.RetrievedCandidate, cfg ValidateConfig) []domain.ValidatedCandidate {
	tokens := questionTokens(question)
	window := cfg.HighlightWindow
	if window <= 0 {
		window = 160
	}

	validated := make([]domain.ValidatedCandidate, 0, len(candidates))
	for _, c := range candidates {
		overlap, firstHit := tokenOverlap(tokens, c.Chunk.Content)
		validated = append(validated, domain.ValidatedCandidate{
			RetrievedCandidate: c,
			Overlap:            overlap,
			IsRelevant:         c.Score >= cfg.ScoreThreshold || overlap >= cfg.OverlapThreshold,
			Excerpt:            excerpt(c.Chunk.Content, firstHit, window),
		})
	}
	return validated
}

// SelectRelevant keeps the relevant candidates. When nothing passes it
// falls back to the single top-scoring candidate so downstream prompt
// assembly never runs on empty context; the second return value reports
// that low-confidence fallback.
func SelectRelevant(validated []domain.ValidatedCandidate) ([]domain.ValidatedCandidate, bool) {
	var relevant []domain.ValidatedCandidate
	for _, v := range validated {
		if v.IsRelevant {
			relevant = append(relevant, v)
		}
	}
	if len(relevant) > 0 {
		return relevant, false
	}
	if len(validated) == 0 {
		return nil, true
	}

	best := validated[0]
	for _, v := range validated[1:] {
		if v.Score > best.Score {
			best = v
		}
	}
	return []domain.ValidatedCandidate{best}, true
}

// questionTokens lowercases the question and keeps words longer than three
// characters, a naive stop-word filter.
func questionTokens(question string) []string {
	var tokens []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		if len([]rune(w)) > 3 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// tokenOverlap returns the fraction of question tokens found in the
// content (case-insensitive substring test) and the byte offset of the
// first matching token, or -1 when nothing matches.
func tokenOverlap(tokens []string, content string) (float64, int) {
	if len(tokens) == 0 {
		return 0, -1
	}

	lower := strings.ToLower(content)
	matched := 0
	firstHit := -1
	for _, t := range tokens {
		pos := strings.Index(lower, t)
		if pos < 0 {
			continue
		}
		matched++
		if firstHit == -1 {
			firstHit = pos
		}
	}
	return float64(matched) / float64(len(tokens)), firstHit
}

// excerpt slices a window of about `window` characters centered on the
// first keyword hit, falling back to the head of the content when nothing
// matched.
func excerpt(content string, firstHit, window int) string {
	if len(content) <= window {
		return content
	}
	if firstHit < 0 {
		return content[:window]
	}

	start := firstHit - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(content) {
		end = len(content)
		start = end - window
	}
	return content[start:end]
}
