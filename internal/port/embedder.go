package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns one vector per input text, order-preserving.
	Embed(texts []string) ([][]float32, error)
}
