package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroassist/internal/domain"
)

type fakeEmbedder struct {
	calls int
}

func (e *fakeEmbedder) Name() string    { return "fake" }
func (e *fakeEmbedder) Dimension() int  { return 3 }
func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	e.calls++
	return []float64{1, 0, 0}, nil
}
func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range vectors {
		vectors[i] = []float64{1, 0, 0}
	}
	return vectors, nil
}

type fakeStore struct {
	lastVector []float64
	lastTopK   int
	results    []domain.SearchResult
}

func (s *fakeStore) Init(_ context.Context, _ int) error { return nil }
func (s *fakeStore) Upsert(_ context.Context, _ []domain.LocalizedText, _ domain.ChunkMetadata, _ [][]float64) error {
	return nil
}
func (s *fakeStore) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.lastVector = vector
	s.lastTopK = topK
	return s.results, nil
}
func (s *fakeStore) DeleteByFileHash(_ context.Context, _ string) error { return nil }

func TestNewClientClampsResultCount(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}

	assert.Equal(t, 1, NewClient(embedder, store, 0).ResultCount())
	assert.Equal(t, 1, NewClient(embedder, store, -5).ResultCount())
	assert.Equal(t, 4, NewClient(embedder, store, 4).ResultCount())
	assert.Equal(t, 16, NewClient(embedder, store, 16).ResultCount())
	assert.Equal(t, 16, NewClient(embedder, store, 20).ResultCount())
}

func TestSearchEmbedsOnceAndForwardsTopK(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{results: []domain.SearchResult{{Text: "passage"}}}
	client := NewClient(embedder, store, 7)

	results, err := client.Search(context.Background(), "oil pressure")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "passage", results[0].Text)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 7, store.lastTopK)
	assert.Equal(t, []float64{1, 0, 0}, store.lastVector)
}
