package usecase

import (
	"errors"
	"fmt"
	"strings"

	"ragkit/internal/adapter/index"
	"ragkit/internal/domain"
	"ragkit/internal/port"
	"ragkit/internal/refine"
)

// ErrEmptyQuestion is returned by Ask when the question is empty or
// whitespace-only.
var ErrEmptyQuestion = errors.New("question must not be empty")

// QueryOptions controls retrieval and post-processing for one pipeline.
// Preferences, when set, rerank structured listing candidates by stated
// constraints before prompt assembly.
type QueryOptions struct {
	TopK             int
	Transformation   string
	MaxSubQueries    int
	Validate         bool
	ScoreThreshold   float64
	OverlapThreshold float64
	HighlightWindow  int
	Stitch           bool
	SegmentMaxChars  int
	Preferences      *refine.Preferences
}

// QueryPipeline answers questions over an in-memory index: transform the
// question into one or more query forms, retrieve per form, merge,
// optionally validate and stitch, then run one generation call over the
// assembled prompt.
type QueryPipeline struct {
	index    *index.Index
	embedder port.Embedder
	llm      port.LLM
	opts     QueryOptions
}

func NewQueryPipeline(ix *index.Index, embedder port.Embedder, llm port.LLM, opts QueryOptions) *QueryPipeline {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &QueryPipeline{
		index:    ix,
		embedder: embedder,
		llm:      llm,
		opts:     opts,
	}
}

// Ask runs the full question-answer cycle. The returned answer always
// carries the exact prompt sent to the model and the candidates it was
// built from. Errors from the embedding and generation ports propagate
// unchanged.
func (p *QueryPipeline) Ask(question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}

	forms, err := refine.NewTransformer(p.llm, p.opts.MaxSubQueries).Transform(question, p.opts.Transformation)
	if err != nil {
		return domain.Answer{}, err
	}

	vectors, err := p.embedder.Embed(forms)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(vectors) != len(forms) {
		return domain.Answer{}, fmt.Errorf("embedder returned %d vectors for %d query forms", len(vectors), len(forms))
	}

	lists := make([][]domain.RetrievedCandidate, len(vectors))
	for i, vec := range vectors {
		lists[i] = p.index.Search(vec, p.opts.TopK)
	}

	candidates := lists[0]
	if len(lists) > 1 {
		candidates = refine.Merge(lists, p.opts.TopK)
	}

	var reasons map[string][]string
	if p.opts.Preferences != nil {
		candidates, reasons = applyPreferences(candidates, *p.opts.Preferences)
	}

	candidates, contexts, lowConfidence := p.refineCandidates(question, candidates)
	annotateReasons(contexts, candidates, reasons)

	prompt := buildPrompt(question, contexts)
	text, err := p.llm.Generate([]domain.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return domain.Answer{}, err
	}

	return domain.Answer{
		Text:          strings.TrimSpace(text),
		Prompt:        prompt,
		Candidates:    candidates,
		LowConfidence: lowConfidence,
	}, nil
}

// promptContext is one context block of the final prompt: the candidate's
// source label, its retrieval score, and the text to show the model.
type promptContext struct {
	source string
	score  float64
	text   string
}

// refineCandidates applies validation and stitching per the options. With
// validation on and stitching off, the prompt shows the keyword-centered
// excerpts; stitching always shows the full merged content.
func (p *QueryPipeline) refineCandidates(question string, candidates []domain.RetrievedCandidate) ([]domain.RetrievedCandidate, []promptContext, bool) {
	lowConfidence := false

	if p.opts.Validate {
		validated := refine.Validate(question, candidates, refine.ValidateConfig{
			ScoreThreshold:   p.opts.ScoreThreshold,
			OverlapThreshold: p.opts.OverlapThreshold,
			HighlightWindow:  p.opts.HighlightWindow,
		})
		selected, fallback := refine.SelectRelevant(validated)
		lowConfidence = fallback

		if !p.opts.Stitch {
			kept := make([]domain.RetrievedCandidate, len(selected))
			contexts := make([]promptContext, len(selected))
			for i, v := range selected {
				kept[i] = v.RetrievedCandidate
				contexts[i] = promptContext{
					source: sourceLabel(v.Chunk),
					score:  v.Score,
					text:   v.Excerpt,
				}
			}
			return kept, contexts, lowConfidence
		}

		candidates = make([]domain.RetrievedCandidate, len(selected))
		for i, v := range selected {
			candidates[i] = v.RetrievedCandidate
		}
	}

	if p.opts.Stitch {
		candidates = refine.Stitch(candidates, refine.StitchConfig{MaxChars: p.opts.SegmentMaxChars})
	}

	contexts := make([]promptContext, len(candidates))
	for i, c := range candidates {
		contexts[i] = promptContext{
			source: sourceLabel(c.Chunk),
			score:  c.Score,
			text:   c.Chunk.Content,
		}
	}
	return candidates, contexts, lowConfidence
}

// applyPreferences reorders candidates by their preference score and
// keeps each candidate's matched-rule reasons for prompt annotation.
func applyPreferences(candidates []domain.RetrievedCandidate, prefs refine.Preferences) ([]domain.RetrievedCandidate, map[string][]string) {
	ranked := refine.RankByPreference(candidates, prefs)

	out := make([]domain.RetrievedCandidate, len(ranked))
	reasons := make(map[string][]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.RetrievedCandidate
		if len(r.Reasons) > 0 {
			reasons[r.Chunk.ID] = r.Reasons
		}
	}
	return out, reasons
}

// annotateReasons appends preference-match notes to the context blocks so
// the model sees why a listing was promoted. Stitched candidates keep the
// reasons of their first member via the shared chunk ID.
func annotateReasons(contexts []promptContext, candidates []domain.RetrievedCandidate, reasons map[string][]string) {
	if len(reasons) == 0 {
		return
	}
	for i := range contexts {
		if i >= len(candidates) {
			break
		}
		if rs, ok := reasons[candidates[i].Chunk.ID]; ok {
			contexts[i].text += "\n(matches: " + strings.Join(rs, "; ") + ")"
		}
	}
}

const answerSystemPrompt = "You answer questions using only the provided context. If the context does not contain the answer, say that you do not know."

func buildPrompt(question string, contexts []promptContext) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	if len(contexts) == 0 {
		sb.WriteString("(no relevant context was retrieved)\n")
	}
	for i, ctx := range contexts {
		fmt.Fprintf(&sb, "[%d] (source: %s, score: %.3f)\n%s\n\n", i+1, ctx.source, ctx.score, ctx.text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

func sourceLabel(chunk domain.Chunk) string {
	return fmt.Sprintf("%s#%d", chunk.DocID, chunk.Index)
}
