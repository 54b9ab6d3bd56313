package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"ragkit/internal/adapter/index"
	"ragkit/internal/domain"
	"ragkit/internal/port"
	"ragkit/internal/refine"
)

// IngestOptions controls one ingestion run. OnProgress, when set, is
// called after every embedding batch with the number of chunks embedded
// so far and the total.
type IngestOptions struct {
	Augment           string // "none", "header", "qa", "propositions"
	QuestionsPerChunk int
	MaxPropositions   int
	GradingThreshold  float64
	SnapshotPath      string
	EmbedBatchSize    int
	OnProgress        func(done, total int)
}

// IngestResult summarizes an ingestion run. Warnings collects recoverable
// problems (such as unparseable augmentation output) without failing the
// run.
type IngestResult struct {
	Documents int
	Chunks    int
	Augmented int
	Warnings  []string
}

// IngestionPipeline reads documents, chunks them, optionally augments the
// chunks with generated content, embeds everything and persists the
// resulting index snapshot. Header enrichment is a chunker concern and is
// applied by wrapping the chunker before construction.
type IngestionPipeline struct {
	reader   port.DocumentReader
	chunker  port.Chunker
	embedder port.Embedder
	llm      port.LLM
	opts     IngestOptions
}

func NewIngestionPipeline(reader port.DocumentReader, chunker port.Chunker, embedder port.Embedder, llm port.LLM, opts IngestOptions) *IngestionPipeline {
	if opts.QuestionsPerChunk <= 0 {
		opts.QuestionsPerChunk = 3
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 64
	}
	return &IngestionPipeline{
		reader:   reader,
		chunker:  chunker,
		embedder: embedder,
		llm:      llm,
		opts:     opts,
	}
}

// Run executes the full pipeline. An empty corpus still persists an empty
// snapshot so that a later query run fails with a clear "no chunks"
// situation rather than a missing file.
func (p *IngestionPipeline) Run() (*index.Index, *IngestResult, error) {
	result := &IngestResult{}

	docs, err := p.reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read documents: %w", err)
	}
	result.Documents = len(docs)

	var extractor *refine.PropositionExtractor
	if p.opts.Augment == "propositions" {
		extractor = refine.NewPropositionExtractor(p.llm, p.opts.MaxPropositions, p.opts.GradingThreshold)
	}

	var all []domain.Chunk
	for _, doc := range docs {
		chunks, err := p.chunker.Chunk(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chunk %s: %w", doc.Title, err)
		}

		switch p.opts.Augment {
		case "qa":
			chunks, err = p.augmentQA(chunks, result)
		case "propositions":
			chunks, err = p.augmentPropositions(extractor, chunks, result)
		}
		if err != nil {
			return nil, nil, err
		}

		all = append(all, chunks...)
	}
	reindex(all)
	result.Chunks = len(all)

	ix := index.New()
	if len(all) == 0 {
		if err := ix.Persist(p.opts.SnapshotPath); err != nil {
			return nil, nil, err
		}
		return ix, result, nil
	}

	vectors, err := p.embedAll(all)
	if err != nil {
		return nil, nil, err
	}
	if err := ix.AddMany(all, vectors); err != nil {
		return nil, nil, err
	}
	if err := ix.Persist(p.opts.SnapshotPath); err != nil {
		return nil, nil, err
	}
	return ix, result, nil
}

// augmentQA appends synthetic question-answer chunks after each source
// chunk. A chunk whose generated output cannot be parsed is kept as-is
// with a warning.
func (p *IngestionPipeline) augmentQA(chunks []domain.Chunk, result *IngestResult) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, chunk := range chunks {
		out = append(out, chunk)

		pairs, err := p.generateQA(chunk)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("chunk %s: question generation produced no parseable pairs, skipped", chunk.ID))
			continue
		}

		for _, pair := range pairs {
			out = append(out, domain.Chunk{
				ID:      uuid.NewString(),
				DocID:   chunk.DocID,
				Content: fmt.Sprintf("Question: %s\nAnswer: %s", pair.Question, pair.Answer),
				Metadata: map[string]string{
					"sourceChunk": chunk.ID,
					"synthetic":   "qa",
				},
			})
			result.Augmented++
		}
	}
	return out, nil
}

// augmentPropositions replaces each chunk with its graded propositions.
// A chunk that yields no surviving proposition is kept unchanged.
func (p *IngestionPipeline) augmentPropositions(extractor *refine.PropositionExtractor, chunks []domain.Chunk, result *IngestResult) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, chunk := range chunks {
		props, err := extractor.Extract(chunk)
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			out = append(out, chunk)
			continue
		}
		out = append(out, props...)
		result.Augmented += len(props)
	}
	return out, nil
}

func (p *IngestionPipeline) generateQA(chunk domain.Chunk) ([]QAPair, error) {
	system := fmt.Sprintf(`Generate %d question-answer pairs that the following text can answer.
Respond with a JSON array of objects with "question" and "answer" fields. Output only JSON.`, p.opts.QuestionsPerChunk)

	response, err := p.llm.Generate([]domain.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: chunk.Content},
	})
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	pairs, err := ParseQAPairs(response)
	if err != nil {
		// Recoverable: the caller records a warning and moves on.
		return nil, nil
	}
	return pairs, nil
}

func (p *IngestionPipeline) embedAll(chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.opts.EmbedBatchSize {
		end := start + p.opts.EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.Embed(texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(end, len(texts))
		}
	}
	return vectors, nil
}

// QAPair is one synthetic question-answer pair generated during
// augmentation.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseQAPairs extracts a JSON array of question-answer pairs from
// free-form LLM output, tolerating surrounding prose and code fences.
func ParseQAPairs(response string) ([]QAPair, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var pairs []QAPair
	if err := json.Unmarshal([]byte(response[start:end+1]), &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode question-answer pairs: %w", err)
	}

	out := pairs[:0]
	for _, pair := range pairs {
		if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
			continue
		}
		out = append(out, pair)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response contained no usable pairs")
	}
	return out, nil
}

// reindex reassigns chunk positions per document after augmentation so
// that indices stay dense and monotonic, which context stitching relies
// on for adjacency.
func reindex(chunks []domain.Chunk) {
	next := make(map[string]int)
	for i := range chunks {
		chunks[i].Index = next[chunks[i].DocID]
		next[chunks[i].DocID]++
	}
}
