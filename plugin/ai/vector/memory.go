package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-process VectorIndex using brute-force cosine similarity.
// It is meant for development and tests; contents are lost on restart.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string][]float32)}
}

func (m *MemoryIndex) Upsert(_ context.Context, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		m.vectors[v.ID] = append([]float32(nil), v.Values...)
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, values []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	matches := make([]Match, 0, len(m.vectors))
	for id, stored := range m.vectors {
		if len(stored) != len(values) {
			continue
		}
		matches = append(matches, Match{ID: id, Score: cosineSimilarity(values, stored)})
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryIndex) DeleteByIDs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.vectors, id)
	}
	return nil
}

// Len returns the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (*MemoryIndex) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
