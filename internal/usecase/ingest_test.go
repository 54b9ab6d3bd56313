package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ragkit/internal/adapter/chunker"
	"ragkit/internal/domain"
)

type stubReader struct {
	docs []domain.Document
	err  error
}

func (r *stubReader) Read() ([]domain.Document, error) {
	return r.docs, r.err
}

type stubEmbedder struct {
	err   error
	calls int
}

func (e *stubEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1, 0}
	}
	return vectors, nil
}

type scriptedLLM struct {
	responses []string
	calls     int
	err       error
}

func (l *scriptedLLM) Generate(messages []domain.Message) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	if l.calls >= len(l.responses) {
		return "", errors.New("scripted llm ran out of responses")
	}
	r := l.responses[l.calls]
	l.calls++
	return r, nil
}

func newTestPipeline(t *testing.T, docs []domain.Document, llm *scriptedLLM, opts IngestOptions) *IngestionPipeline {
	t.Helper()
	ck, err := chunker.NewWindowChunker(1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if opts.SnapshotPath == "" {
		opts.SnapshotPath = filepath.Join(t.TempDir(), "index.json")
	}
	return NewIngestionPipeline(&stubReader{docs: docs}, ck, &stubEmbedder{}, llm, opts)
}

func TestIngestRunBasic(t *testing.T) {
	docs := []domain.Document{
		{ID: "d1", Title: "a.txt", Content: "alpha beta gamma"},
		{ID: "d2", Title: "b.txt", Content: "delta epsilon"},
	}
	path := filepath.Join(t.TempDir(), "out", "index.json")
	p := newTestPipeline(t, docs, nil, IngestOptions{SnapshotPath: path})

	ix, result, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if result.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", result.Documents)
	}
	if result.Chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", result.Chunks)
	}
	if ix.Len() != 2 {
		t.Errorf("expected 2 indexed chunks, got %d", ix.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected snapshot at %s: %v", path, err)
	}
}

func TestIngestEmptyCorpusPersistsEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	p := newTestPipeline(t, nil, nil, IngestOptions{SnapshotPath: path})

	ix, result, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if result.Chunks != 0 || ix.Len() != 0 {
		t.Errorf("expected empty index, got %d chunks", ix.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("an empty corpus must still persist a snapshot: %v", err)
	}
}

func TestIngestQAAugmentation(t *testing.T) {
	docs := []domain.Document{{ID: "d1", Title: "a.txt", Content: "The sun is a star."}}
	llm := &scriptedLLM{responses: []string{
		`[{"question": "What is the sun?", "answer": "A star."},
		  {"question": "Is the sun a planet?", "answer": "No."}]`,
	}}
	p := newTestPipeline(t, docs, llm, IngestOptions{Augment: "qa", QuestionsPerChunk: 2})

	ix, result, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if result.Augmented != 2 {
		t.Errorf("expected 2 synthetic chunks, got %d", result.Augmented)
	}
	if ix.Len() != 3 {
		t.Fatalf("expected base chunk plus 2 synthetic chunks, got %d", ix.Len())
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestIngestQAMalformedOutputWarnsAndContinues(t *testing.T) {
	docs := []domain.Document{{ID: "d1", Title: "a.txt", Content: "Some content."}}
	llm := &scriptedLLM{responses: []string{"I cannot produce JSON today."}}
	p := newTestPipeline(t, docs, llm, IngestOptions{Augment: "qa"})

	ix, result, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 1 {
		t.Errorf("the base chunk must survive a failed augmentation, got %d chunks", ix.Len())
	}
	if result.Augmented != 0 {
		t.Errorf("expected no synthetic chunks, got %d", result.Augmented)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
}

func TestIngestPropositionsReplaceBaseChunk(t *testing.T) {
	docs := []domain.Document{{ID: "d1", Title: "a.txt", Content: "Paris is the capital of France and has two million inhabitants."}}
	llm := &scriptedLLM{responses: []string{
		"- Paris is the capital of France.\n- Paris has two million inhabitants.",
		"0.9 - Paris is the capital of France.\n0.8 - Paris has two million inhabitants.",
	}}
	p := newTestPipeline(t, docs, llm, IngestOptions{
		Augment:          "propositions",
		MaxPropositions:  5,
		GradingThreshold: 0.7,
	})

	ix, result, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if result.Augmented != 2 {
		t.Errorf("expected 2 propositions, got %d", result.Augmented)
	}
	// The base chunk is replaced, not kept alongside.
	if ix.Len() != 2 {
		t.Errorf("expected 2 indexed chunks, got %d", ix.Len())
	}
}

func TestIngestProgressCallback(t *testing.T) {
	docs := []domain.Document{
		{ID: "d1", Title: "a.txt", Content: "one"},
		{ID: "d2", Title: "b.txt", Content: "two"},
		{ID: "d3", Title: "c.txt", Content: "three"},
	}
	var progress [][2]int
	p := newTestPipeline(t, docs, nil, IngestOptions{
		EmbedBatchSize: 2,
		OnProgress: func(done, total int) {
			progress = append(progress, [2]int{done, total})
		},
	})

	if _, _, err := p.Run(); err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("expected %d progress calls, got %v", len(want), progress)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress call %d: got %v, want %v", i, progress[i], want[i])
		}
	}
}

func TestParseQAPairs(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
		wantErr  bool
	}{
		{
			name:     "plain array",
			response: `[{"question": "q1", "answer": "a1"}]`,
			want:     1,
		},
		{
			name: "code fence and prose",
			response: "Here you go:\n```json\n[{\"question\": \"q1\", \"answer\": \"a1\"}, " +
				"{\"question\": \"q2\", \"answer\": \"a2\"}]\n```",
			want: 2,
		},
		{
			name:     "blank fields filtered",
			response: `[{"question": "q1", "answer": "a1"}, {"question": "", "answer": "a2"}]`,
			want:     1,
		},
		{
			name:     "no array",
			response: "I cannot help with that.",
			wantErr:  true,
		},
		{
			name:     "invalid json",
			response: `[{"question": }]`,
			wantErr:  true,
		},
		{
			name:     "all pairs blank",
			response: `[{"question": "", "answer": ""}]`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := ParseQAPairs(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %v", pairs)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(pairs) != tt.want {
				t.Errorf("expected %d pairs, got %d", tt.want, len(pairs))
			}
		})
	}
}

func TestReindexAssignsDensePerDocumentPositions(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", DocID: "d1", Index: 0},
		{ID: "b", DocID: "d1", Index: 7},
		{ID: "c", DocID: "d2", Index: 3},
		{ID: "d", DocID: "d1", Index: 0},
	}
	reindex(chunks)

	want := []int{0, 1, 0, 2}
	for i, chunk := range chunks {
		if chunk.Index != want[i] {
			t.Errorf("chunk %s: got index %d, want %d", chunk.ID, chunk.Index, want[i])
		}
	}
}
