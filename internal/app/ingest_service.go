package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"paperbase/internal/ai"
	"paperbase/internal/chunker"
	"paperbase/internal/model"
	"paperbase/internal/vector"
)

const embedWorkers = 4

// IngestService drives document ingestion end to end: document and text rows,
// chunking, embeddings, vector upsert and embedding bookkeeping. Any step
// failure aborts the remaining steps; rows written by earlier steps may
// persist (re-ingesting the same document ID purges and converges).
type IngestService struct {
	docStore       DocumentStore
	pageStore      PageStore
	chunkStore     ChunkStore
	embeddingStore EmbeddingStore
	embedder       ai.Embedder
	index          vector.Index
	events         DocumentEventPublisher
	chunkSize      int
	chunkOverlap   int
}

func NewIngestService(
	docStore DocumentStore,
	pageStore PageStore,
	chunkStore ChunkStore,
	embeddingStore EmbeddingStore,
	embedder ai.Embedder,
	index vector.Index,
	events DocumentEventPublisher,
	chunkSize, chunkOverlap int,
) *IngestService {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &IngestService{
		docStore:       docStore,
		pageStore:      pageStore,
		chunkStore:     chunkStore,
		embeddingStore: embeddingStore,
		embedder:       embedder,
		index:          index,
		events:         events,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
	}
}

type IngestInput struct {
	DocumentID    string
	Title         string
	SourceName    string
	Pages         []chunker.PageText
	DescriptionMD string
	FilePath      string
	MimeType      string
	ByteSize      int64
	WordCount     int
	FullText      string
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.DocumentID == "" || len(input.Pages) == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled"
	}

	fullText := input.FullText
	if fullText == "" {
		parts := make([]string, 0, len(input.Pages))
		for _, p := range input.Pages {
			parts = append(parts, p.Text)
		}
		fullText = strings.Join(parts, "\n")
	}
	wordCount := input.WordCount
	if wordCount == 0 {
		wordCount = len(strings.Fields(fullText))
	}

	now := time.Now()
	doc := &model.Document{
		ID:            input.DocumentID,
		Title:         title,
		SourceName:    input.SourceName,
		PageCount:     len(input.Pages),
		WordCount:     wordCount,
		ByteSize:      input.ByteSize,
		MimeType:      input.MimeType,
		DescriptionMD: input.DescriptionMD,
		FilePath:      input.FilePath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.docStore.Upsert(doc); err != nil {
		return nil, err
	}
	if err := s.docStore.UpsertText(&model.DocumentText{DocumentID: doc.ID, FullText: fullText}); err != nil {
		return nil, err
	}

	if err := s.pageStore.DeleteByDocumentID(doc.ID); err != nil {
		return nil, err
	}
	pages := make([]model.Page, len(input.Pages))
	for i, p := range input.Pages {
		pages[i] = model.Page{DocumentID: doc.ID, PageNumber: p.Number, Text: p.Text}
	}
	if err := s.pageStore.CreateBatch(pages); err != nil {
		return nil, err
	}

	chunks := chunker.Split(doc.ID, input.Pages, s.chunkSize, s.chunkOverlap)

	if err := s.chunkStore.DeleteByDocumentID(doc.ID); err != nil {
		return nil, err
	}
	if err := s.embeddingStore.DeleteByDocumentID(doc.ID); err != nil {
		return nil, err
	}

	// A document may legitimately have no searchable chunks.
	if len(chunks) == 0 {
		s.publishEvent(ctx, "document.ingested", doc.ID)
		return &IngestResult{Document: *doc, ChunkCount: 0}, nil
	}

	chunkRows := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		chunkRows[i] = model.Chunk{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
			Text:       c.Text,
		}
	}
	if err := s.chunkStore.CreateBatch(chunkRows); err != nil {
		return nil, err
	}

	if err := s.index.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("vector index health check failed: %w", err)
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metas := make([]vector.ChunkMeta, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		texts[i] = c.Text
		metas[i] = vector.ChunkMeta{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			PageStart:  c.PageStart,
			PageEnd:    c.PageEnd,
		}
	}
	if err := s.index.Upsert(ctx, ids, vectors, texts, metas); err != nil {
		return nil, err
	}

	records := make([]model.EmbeddingRecord, len(chunks))
	for i, c := range chunks {
		records[i] = model.EmbeddingRecord{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Model:      s.embedder.Model(),
		}
	}
	if err := s.embeddingStore.CreateBatch(records); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "document.ingested", doc.ID)
	return &IngestResult{Document: *doc, ChunkCount: len(chunks)}, nil
}

// embedChunks computes all chunk embeddings with a small worker pool. Results
// are zipped back by chunk index, so completion order is irrelevant.
func (s *IngestService) embedChunks(ctx context.Context, chunks []chunker.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, embedWorkers)

	for i := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			vec, err := s.embedder.Embed(ctx, chunks[i].Text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("embed chunk %d failed: %w", i, err)
				}
				return
			}
			vectors[i] = vec
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("embed chunk %d failed: %w", i, ai.ErrInvalidResponse)
		}
	}
	return vectors, nil
}

func (s *IngestService) publishEvent(ctx context.Context, eventType, documentID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDocumentEvent(ctx, eventType, documentID); err != nil {
		log.Printf("publish %s event failed: %v", eventType, err)
	}
}
