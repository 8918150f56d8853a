package domain

import "context"

// Embedder converts free text into vector representations. Remote
// implementations batch requests internally to respect service limits.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Splitter turns raw document bytes into page-attributed chunks ready for
// embedding.
type Splitter interface {
	Split(documentData []byte) ([]LocalizedText, error)
}

// VectorStore persists chunk vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []LocalizedText, meta ChunkMetadata, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	DeleteByFileHash(ctx context.Context, fileHash string) error
}

// Retriever returns the top passages relevant to a query, in the store's
// relevance order.
type Retriever interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// CompletionModel renders a single completion for a fully rendered prompt.
type CompletionModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Tokenizer is the token-counting handle shared with the embedding model
// family. Injected explicitly so chunk sizing never depends on ambient
// process state.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}
