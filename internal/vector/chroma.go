package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"paperbase/internal/config"
)

// ChromaIndex is a minimal REST client to a Chroma server. The collection is
// resolved (get-or-create) lazily on first write or query.
type ChromaIndex struct {
	baseURL    string
	collection string
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

func NewChromaIndex(cfg config.ChromaConfig) *ChromaIndex {
	return &ChromaIndex{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthCheck hits the heartbeat endpoint, trying the v2 path first and
// falling back to v1 for older servers.
func (c *ChromaIndex) HealthCheck(ctx context.Context) error {
	paths := []string{"/api/v2/heartbeat", "/api/v1/heartbeat"}
	var lastErr error
	for _, p := range paths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+p, nil)
		if err != nil {
			return fmt.Errorf("%w: build heartbeat request: %v", ErrUnavailable, err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("heartbeat status %d", resp.StatusCode)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *ChromaIndex) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metas []ChunkMeta) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metas) {
		return fmt.Errorf("%w: ids, vectors, documents and metadatas must be the same length", ErrIndexWrite)
	}

	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}

	metaMaps := make([]map[string]interface{}, len(metas))
	for i, m := range metas {
		metaMaps[i] = map[string]interface{}{
			"chunk_id":    m.ChunkID,
			"document_id": m.DocumentID,
			"page_start":  m.PageStart,
			"page_end":    m.PageEnd,
		}
	}
	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  documents,
		"metadatas":  metaMaps,
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/api/v1/collections/%s/upsert", collectionID), body, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return nil
}

func (c *ChromaIndex) Query(ctx context.Context, vec []float32, limit int, documentID string) (*QueryResult, error) {
	if limit <= 0 {
		limit = 10
	}
	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexQuery, err)
	}

	body := map[string]interface{}{
		"query_embeddings": [][]float32{vec},
		"n_results":        limit,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if documentID != "" {
		body["where"] = map[string]interface{}{"document_id": documentID}
	}

	var parsed struct {
		IDs       [][]string                 `json:"ids"`
		Documents [][]string                 `json:"documents"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Distances [][]float64                `json:"distances"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/api/v1/collections/%s/query", collectionID), body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexQuery, err)
	}
	if len(parsed.IDs) == 0 || len(parsed.IDs[0]) == 0 {
		return &QueryResult{}, nil
	}

	ids := parsed.IDs[0]
	if len(parsed.Distances) == 0 || len(parsed.Distances[0]) != len(ids) {
		return nil, fmt.Errorf("%w: ids and distances length mismatch", ErrIndexQuery)
	}
	if len(parsed.Metadatas) == 0 || len(parsed.Metadatas[0]) != len(ids) {
		return nil, fmt.Errorf("%w: ids and metadatas length mismatch", ErrIndexQuery)
	}

	result := &QueryResult{
		IDs:       ids,
		Distances: parsed.Distances[0],
		Metas:     make([]ChunkMeta, len(ids)),
		Documents: make([]string, len(ids)),
	}
	if len(parsed.Documents) > 0 {
		copy(result.Documents, parsed.Documents[0])
	}
	for i, raw := range parsed.Metadatas[0] {
		result.Metas[i] = metaFromMap(raw)
	}
	return result, nil
}

func (c *ChromaIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	body := map[string]interface{}{
		"where": map[string]interface{}{"document_id": documentID},
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collectionID), body, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return nil
}

func (c *ChromaIndex) resolveCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collectionID != "" {
		return c.collectionID, nil
	}

	body := map[string]interface{}{
		"name":          c.collection,
		"get_or_create": true,
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/v1/collections", body, &parsed); err != nil {
		return "", fmt.Errorf("resolve collection %q: %w", c.collection, err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("resolve collection %q: empty collection id", c.collection)
	}
	c.collectionID = parsed.ID
	return c.collectionID, nil
}

func (c *ChromaIndex) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response failed: %w", err)
	}
	return nil
}

func metaFromMap(raw map[string]interface{}) ChunkMeta {
	meta := ChunkMeta{}
	if v, ok := raw["chunk_id"].(string); ok {
		meta.ChunkID = v
	}
	if v, ok := raw["document_id"].(string); ok {
		meta.DocumentID = v
	}
	if v, ok := raw["page_start"].(float64); ok {
		meta.PageStart = int(v)
	}
	if v, ok := raw["page_end"].(float64); ok {
		meta.PageEnd = int(v)
	}
	return meta
}
