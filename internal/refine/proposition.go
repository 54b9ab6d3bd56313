package refine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"ragkit/internal/domain"
	"ragkit/internal/port"
)

// gradedLine matches "score - proposition" output, permissively accepting
// '-', '|' or ':' as the separator.
var gradedLine = regexp.MustCompile(`^([01](\.\d+)?)\s*[-|:]\s*(.+)$`)

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

const sourceExcerptLen = 120

// PropositionExtractor rewrites a chunk into independently graded atomic
// factual statements via two generation calls per chunk: one to extract
// candidate propositions, one to grade how well each is grounded in the
// source. Propositions at or above the grading threshold become new
// chunks whose metadata points back at the source chunk.
type PropositionExtractor struct {
	llm             port.LLM
	maxPropositions int
	threshold       float64
}

func NewPropositionExtractor(llm port.LLM, maxPropositions int, threshold float64) *PropositionExtractor {
	if maxPropositions <= 0 {
		maxPropositions = 5
	}
	return &PropositionExtractor{
		llm:             llm,
		maxPropositions: maxPropositions,
		threshold:       threshold,
	}
}

// Extract runs both stages for one chunk. The returned chunks carry a
// zero Index; the caller assigns document positions when it appends them.
func (e *PropositionExtractor) Extract(source domain.Chunk) ([]domain.Chunk, error) {
	propositions, err := e.extractPropositions(source.Content)
	if err != nil {
		return nil, err
	}
	if len(propositions) == 0 {
		return nil, nil
	}

	graded, err := e.gradePropositions(source.Content, propositions)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, p := range graded {
		if p.Score < e.threshold {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:      uuid.NewString(),
			DocID:   source.DocID,
			Content: p.Text,
			Metadata: map[string]string{
				"sourceChunk": source.ID,
				"excerpt":     truncate(source.Content, sourceExcerptLen),
			},
		})
	}
	return chunks, nil
}

func (e *PropositionExtractor) extractPropositions(content string) ([]string, error) {
	system := fmt.Sprintf(`You extract atomic factual statements from text.
Produce at most %d short, self-contained propositions, each on its own line.
Output only the propositions, one per line.`, e.maxPropositions)

	response, err := e.llm.Generate([]domain.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: content},
	})
	if err != nil {
		return nil, fmt.Errorf("proposition extraction failed: %w", err)
	}

	propositions := ParsePropositionList(response)
	if len(propositions) > e.maxPropositions {
		propositions = propositions[:e.maxPropositions]
	}
	return propositions, nil
}

func (e *PropositionExtractor) gradePropositions(content string, propositions []string) ([]domain.Proposition, error) {
	var sb strings.Builder
	sb.WriteString("Source text:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nPropositions:\n")
	for _, p := range propositions {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}

	system := `Grade how well each proposition is grounded in the source text on a 0-1 scale.
Respond with one line per proposition, formatted exactly as:
score - proposition text`

	response, err := e.llm.Generate([]domain.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: sb.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("proposition grading failed: %w", err)
	}

	return ParseGradedLines(response), nil
}

// ParsePropositionList parses free-form bulleted or numbered LLM output
// into plain proposition strings. Lines that are empty after stripping
// markers are discarded; a nil result means nothing parsed.
func ParsePropositionList(response string) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ParseGradedLines extracts (score, text) pairs from grading output,
// silently discarding lines that do not match the expected shape.
func ParseGradedLines(response string) []domain.Proposition {
	var out []domain.Proposition
	for _, line := range strings.Split(response, "\n") {
		m := gradedLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil || score < 0 || score > 1 {
			continue
		}
		out = append(out, domain.Proposition{
			Text:  strings.TrimSpace(m[3]),
			Score: score,
		})
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
