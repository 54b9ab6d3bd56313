package refine

import (
	"fmt"
	"strings"

	"ragkit/internal/domain"
	"ragkit/internal/port"
)

// Transformation modes.
const (
	TransformNone      = ""
	TransformRewrite   = "rewrite"
	TransformStepback  = "stepback"
	TransformDecompose = "decompose"
	TransformAll       = "all"
)

// Transformer rewrites the input question before embedding to improve
// recall: a more specific paraphrase, a broader step-back question, or a
// decomposition into sub-questions.
type Transformer struct {
	llm           port.LLM
	maxSubQueries int
}

func NewTransformer(llm port.LLM, maxSubQueries int) *Transformer {
	if maxSubQueries <= 0 {
		maxSubQueries = 3
	}
	return &Transformer{llm: llm, maxSubQueries: maxSubQueries}
}

// Transform returns the query forms to embed for the given mode. Errors
// from the generation port propagate unchanged.
func (t *Transformer) Transform(question, mode string) ([]string, error) {
	switch mode {
	case TransformNone:
		return []string{question}, nil
	case TransformRewrite:
		q, err := t.rewrite(question)
		if err != nil {
			return nil, err
		}
		return []string{q}, nil
	case TransformStepback:
		q, err := t.stepback(question)
		if err != nil {
			return nil, err
		}
		return []string{q}, nil
	case TransformDecompose:
		return t.decompose(question)
	case TransformAll:
		return t.all(question)
	default:
		return nil, fmt.Errorf("unknown transformation mode: %q", mode)
	}
}

func (t *Transformer) rewrite(question string) (string, error) {
	response, err := t.llm.Generate([]domain.Message{
		{Role: "system", Content: "Rewrite the user's question to be more specific and detailed for document retrieval. Output only the rewritten question."},
		{Role: "user", Content: question},
	})
	if err != nil {
		return "", err
	}
	rewritten := strings.TrimSpace(response)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func (t *Transformer) stepback(question string) (string, error) {
	response, err := t.llm.Generate([]domain.Message{
		{Role: "system", Content: "Generate a broader, more general version of the user's question that captures the underlying topic. Output only the question."},
		{Role: "user", Content: question},
	})
	if err != nil {
		return "", err
	}
	general := strings.TrimSpace(response)
	if general == "" {
		return question, nil
	}
	return general, nil
}

func (t *Transformer) decompose(question string) ([]string, error) {
	system := fmt.Sprintf(`Break the user's question into at most %d simpler sub-questions.
Output a numbered list, one sub-question per line.`, t.maxSubQueries)

	response, err := t.llm.Generate([]domain.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: question},
	})
	if err != nil {
		return nil, err
	}

	subs := ParseNumberedList(response, t.maxSubQueries)
	if len(subs) == 0 {
		return []string{question}, nil
	}
	return subs, nil
}

// all unions the original question with every transformed form, dropping
// duplicates while keeping first-seen order.
func (t *Transformer) all(question string) ([]string, error) {
	forms := []string{question}

	rewritten, err := t.rewrite(question)
	if err != nil {
		return nil, err
	}
	forms = append(forms, rewritten)

	general, err := t.stepback(question)
	if err != nil {
		return nil, err
	}
	forms = append(forms, general)

	subs, err := t.decompose(question)
	if err != nil {
		return nil, err
	}
	forms = append(forms, subs...)

	seen := make(map[string]bool, len(forms))
	var out []string
	for _, f := range forms {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// ParseNumberedList parses a numbered (or bulleted) list out of free-form
// LLM output, capped at max entries. A nil result means nothing parsed.
func ParseNumberedList(response string, max int) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		// Only lines carrying a list marker count; prose headers like
		// "Here are the sub-questions:" are discarded.
		if !bulletPrefix.MatchString(line) {
			continue
		}
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		out = append(out, item)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
