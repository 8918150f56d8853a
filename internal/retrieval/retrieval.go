// Package retrieval wraps similarity search over previously embedded chunks.
package retrieval

import (
	"context"

	"aeroassist/internal/domain"
)

// Client embeds a query and returns the top passages from the vector store
// in the store's relevance order. No re-ranking happens locally.
type Client struct {
	embedder    domain.Embedder
	store       domain.VectorStore
	resultCount int
}

// NewClient creates a retrieval client. The result count is clamped to
// [1, 16] regardless of what the caller asks for.
func NewClient(embedder domain.Embedder, store domain.VectorStore, resultCount int) *Client {
	if resultCount < 1 {
		resultCount = 1
	}
	if resultCount > 16 {
		resultCount = 16
	}
	return &Client{embedder: embedder, store: store, resultCount: resultCount}
}

// ResultCount returns the effective (clamped) result count.
func (c *Client) ResultCount() int { return c.resultCount }

// Search embeds the query text and runs a nearest-neighbor search. Service
// errors propagate unmodified; retries belong to the underlying clients.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.store.Search(ctx, vector, c.resultCount)
}
