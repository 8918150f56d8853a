// Package memory is a brute-force in-memory vector store, useful for tests
// and for running the assistant without an external index.
package memory

import (
	"context"
	"errors"
	"sync"

	"aeroassist/internal/domain"
)

type entry struct {
	chunk  domain.LocalizedText
	meta   domain.ChunkMetadata
	vector []float64
}

// Storage stores vectors in memory and searches by cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.LocalizedText, meta domain.ChunkMetadata, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i := range chunks {
		s.entries = append(s.entries, entry{chunk: chunks[i], meta: meta, vector: vectors[i]})
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 4
	}
	// cosine similarity; vectors are assumed L2-normalized
	scores := make([]float64, len(s.entries))
	for i := range s.entries {
		scores[i] = dot(s.entries[i].vector, vector)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{
			Text:     s.entries[j].chunk.Text,
			Metadata: s.entries[j].meta,
			Score:    scores[j],
		})
	}
	return results, nil
}

func (s *Storage) DeleteByFileHash(_ context.Context, fileHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.meta.FileHash != fileHash {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
