package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	id       string
	vec      []float32
	document string
	meta     ChunkMeta
}

// MemoryIndex keeps vectors in process memory and ranks by cosine distance.
// It serves local runs without a Chroma server and deterministic tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]memoryEntry)}
}

func (m *MemoryIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metas []ChunkMeta) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metas) {
		return ErrIndexWrite
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		m.entries[id] = memoryEntry{id: id, vec: vectors[i], document: documents[i], meta: metas[i]}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vec []float32, limit int, documentID string) (*QueryResult, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry    memoryEntry
		distance float64
	}
	ranked := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if documentID != "" && e.meta.DocumentID != documentID {
			continue
		}
		ranked = append(ranked, scored{entry: e, distance: 1 - cosineSimilarity(vec, e.vec)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].entry.id < ranked[j].entry.id
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := &QueryResult{
		IDs:       make([]string, len(ranked)),
		Documents: make([]string, len(ranked)),
		Metas:     make([]ChunkMeta, len(ranked)),
		Distances: make([]float64, len(ranked)),
	}
	for i, r := range ranked {
		result.IDs[i] = r.entry.id
		result.Documents[i] = r.entry.document
		result.Metas[i] = r.entry.meta
		result.Distances[i] = r.distance
	}
	return result, nil
}

func (m *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.meta.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

// Len reports the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
