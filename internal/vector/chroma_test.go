package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperbase/internal/config"
)

func newChromaTestServer(t *testing.T, mux *http.ServeMux) *ChromaIndex {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewChromaIndex(config.ChromaConfig{BaseURL: server.URL, Collection: "chunks"})
}

func collectionMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "chunks", body["name"])
		require.Equal(t, true, body["get_or_create"])
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1"})
	})
	return mux
}

func TestChromaHealthCheckFallsBackToV1(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/v1/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int64{"nanosecond heartbeat": 1})
	})
	index := newChromaTestServer(t, mux)
	assert.NoError(t, index.HealthCheck(context.Background()))
}

func TestChromaHealthCheckUnreachable(t *testing.T) {
	index := NewChromaIndex(config.ChromaConfig{BaseURL: "http://127.0.0.1:1", Collection: "chunks"})
	assert.ErrorIs(t, index.HealthCheck(context.Background()), ErrUnavailable)
}

func TestChromaUpsert(t *testing.T) {
	mux := collectionMux(t)
	var got map[string]interface{}
	mux.HandleFunc("/api/v1/collections/col-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})
	index := newChromaTestServer(t, mux)

	err := index.Upsert(context.Background(),
		[]string{"doc-1:0"},
		[][]float32{{0.5, 0.5}},
		[]string{"chunk text"},
		[]ChunkMeta{{ChunkID: "doc-1:0", DocumentID: "doc-1", PageStart: 1, PageEnd: 2}},
	)
	require.NoError(t, err)

	ids := got["ids"].([]interface{})
	assert.Equal(t, "doc-1:0", ids[0])
	metas := got["metadatas"].([]interface{})
	meta := metas[0].(map[string]interface{})
	assert.Equal(t, "doc-1", meta["document_id"])
	assert.Equal(t, float64(1), meta["page_start"])
	assert.Equal(t, float64(2), meta["page_end"])
}

func TestChromaUpsertLengthMismatch(t *testing.T) {
	index := NewChromaIndex(config.ChromaConfig{BaseURL: "http://127.0.0.1:1", Collection: "chunks"})
	err := index.Upsert(context.Background(), []string{"a"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexWrite)
}

func TestChromaQueryWithDocumentFilter(t *testing.T) {
	mux := collectionMux(t)
	var got map[string]interface{}
	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":       [][]string{{"doc-1:0", "doc-1:1"}},
			"documents": [][]string{{"first chunk text", "second chunk text"}},
			"distances": [][]float64{{0.1, 0.4}},
			"metadatas": [][]map[string]interface{}{{
				{"chunk_id": "doc-1:0", "document_id": "doc-1", "page_start": 1, "page_end": 1},
				{"chunk_id": "doc-1:1", "document_id": "doc-1", "page_start": 1, "page_end": 2},
			}},
		})
	})
	index := newChromaTestServer(t, mux)

	result, err := index.Query(context.Background(), []float32{1, 0}, 5, "doc-1")
	require.NoError(t, err)
	require.Len(t, result.IDs, 2)
	assert.Equal(t, "doc-1:0", result.IDs[0])
	assert.Equal(t, "first chunk text", result.Documents[0])
	assert.Equal(t, 0.1, result.Distances[0])
	assert.Equal(t, "doc-1", result.Metas[0].DocumentID)
	assert.Equal(t, 2, result.Metas[1].PageEnd)

	where := got["where"].(map[string]interface{})
	assert.Equal(t, "doc-1", where["document_id"])
}

func TestChromaQueryFailure(t *testing.T) {
	mux := collectionMux(t)
	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	index := newChromaTestServer(t, mux)
	_, err := index.Query(context.Background(), []float32{1}, 5, "")
	assert.ErrorIs(t, err, ErrIndexQuery)
}

func TestChromaQueryMalformedResponse(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing distances and metadatas": {
			"ids": [][]string{{"doc-1:0"}},
		},
		"distances shorter than ids": {
			"ids":       [][]string{{"doc-1:0", "doc-1:1"}},
			"distances": [][]float64{{0.1}},
			"metadatas": [][]map[string]interface{}{{{"document_id": "doc-1"}, {"document_id": "doc-1"}}},
		},
		"metadatas shorter than ids": {
			"ids":       [][]string{{"doc-1:0", "doc-1:1"}},
			"distances": [][]float64{{0.1, 0.2}},
			"metadatas": [][]map[string]interface{}{{{"document_id": "doc-1"}}},
		},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			mux := collectionMux(t)
			mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(payload)
			})
			index := newChromaTestServer(t, mux)

			_, err := index.Query(context.Background(), []float32{1}, 5, "")
			assert.ErrorIs(t, err, ErrIndexQuery)
		})
	}
}

func TestChromaQueryEmptyHitList(t *testing.T) {
	mux := collectionMux(t)
	mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ids": [][]string{{}}})
	})
	index := newChromaTestServer(t, mux)

	result, err := index.Query(context.Background(), []float32{1}, 5, "")
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
}

func TestMemoryIndexRanksByDistance(t *testing.T) {
	index := NewMemoryIndex()
	err := index.Upsert(context.Background(),
		[]string{"a:0", "a:1", "b:0"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
		[]string{"ta", "tb", "tc"},
		[]ChunkMeta{
			{ChunkID: "a:0", DocumentID: "a"},
			{ChunkID: "a:1", DocumentID: "a"},
			{ChunkID: "b:0", DocumentID: "b"},
		},
	)
	require.NoError(t, err)

	result, err := index.Query(context.Background(), []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, result.IDs, 3)
	assert.Equal(t, "a:0", result.IDs[0])
	assert.InDelta(t, 0, result.Distances[0], 1e-9)

	filtered, err := index.Query(context.Background(), []float32{1, 0}, 10, "b")
	require.NoError(t, err)
	require.Len(t, filtered.IDs, 1)
	assert.Equal(t, "b:0", filtered.IDs[0])

	require.NoError(t, index.DeleteByDocument(context.Background(), "a"))
	assert.Equal(t, 1, index.Len())
}
