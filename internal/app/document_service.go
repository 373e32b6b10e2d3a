package app

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"paperbase/internal/model"
	"paperbase/internal/vector"
)

// DocumentService covers the document surface outside ingestion: listing,
// detail, metadata updates, tag replacement and cascading delete.
type DocumentService struct {
	docStore       DocumentStore
	pageStore      PageStore
	chunkStore     ChunkStore
	embeddingStore EmbeddingStore
	tagStore       TagStore
	noteStore      NoteStore
	index          vector.Index
	events         DocumentEventPublisher
}

func NewDocumentService(
	docStore DocumentStore,
	pageStore PageStore,
	chunkStore ChunkStore,
	embeddingStore EmbeddingStore,
	tagStore TagStore,
	noteStore NoteStore,
	index vector.Index,
	events DocumentEventPublisher,
) *DocumentService {
	return &DocumentService{
		docStore:       docStore,
		pageStore:      pageStore,
		chunkStore:     chunkStore,
		embeddingStore: embeddingStore,
		tagStore:       tagStore,
		noteStore:      noteStore,
		index:          index,
		events:         events,
	}
}

type DocumentDetail struct {
	Document model.Document `json:"document"`
	Pages    []model.Page   `json:"pages"`
	Tags     []string       `json:"tags"`
}

func (s *DocumentService) List() ([]model.Document, error) {
	return s.docStore.List()
}

func (s *DocumentService) Get(id string) (*DocumentDetail, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	pages, err := s.pageStore.ListByDocumentID(id)
	if err != nil {
		return nil, err
	}
	tagsByDoc, err := s.tagStore.NamesByDocumentIDs([]string{id})
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, Pages: pages, Tags: tagsByDoc[id]}, nil
}

type UpdateDocumentInput struct {
	ID            string
	Title         *string
	DescriptionMD *string
}

func (s *DocumentService) Update(input UpdateDocumentInput) (*model.Document, error) {
	if input.ID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docStore.GetByID(input.ID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		doc.Title = title
	}
	if input.DescriptionMD != nil {
		doc.DescriptionMD = *input.DescriptionMD
	}
	doc.UpdatedAt = time.Now()
	if err := s.docStore.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReplaceTags swaps the document's tag set wholesale, lazily creating any new
// tags.
func (s *DocumentService) ReplaceTags(documentID string, tagNames []string) ([]string, error) {
	if documentID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docStore.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	names := normalizeTagNames(tagNames)
	tags, err := s.tagStore.GetOrCreateByNames(names)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]uint, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}
	if err := s.tagStore.ReplaceDocumentTags(documentID, tagIDs); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *DocumentService) ListTags() ([]model.TagUsage, error) {
	return s.tagStore.ListWithUsage()
}

// Delete removes the document and everything hanging off it: notes and their
// tags and links, links from other notes pointing here, chunks, embedding
// bookkeeping, vectors, page and text rows, tag joins, the stored file, and
// finally the document row.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	doc, err := s.docStore.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	noteIDs, err := s.noteStore.IDsByDocumentID(id)
	if err != nil {
		return err
	}
	for _, noteID := range noteIDs {
		if err := s.noteStore.DeleteLinksByNoteID(noteID); err != nil {
			return err
		}
		if err := s.tagStore.DeleteByNoteID(noteID); err != nil {
			return err
		}
		if err := s.noteStore.DeleteByID(noteID); err != nil {
			return err
		}
	}
	if err := s.noteStore.DeleteLinksByTargetDocumentID(id); err != nil {
		return err
	}

	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		// The relational rows are authoritative; stale vectors are skipped at
		// query time when their document is gone.
		log.Printf("delete vectors for document %s failed: %v", id, err)
	}
	if err := s.embeddingStore.DeleteByDocumentID(id); err != nil {
		return err
	}
	if err := s.chunkStore.DeleteByDocumentID(id); err != nil {
		return err
	}
	if err := s.pageStore.DeleteByDocumentID(id); err != nil {
		return err
	}
	if err := s.docStore.DeleteTextByDocumentID(id); err != nil {
		return err
	}
	if err := s.tagStore.DeleteByDocumentID(id); err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("remove stored file %s failed: %v", doc.FilePath, err)
		}
	}
	if err := s.docStore.DeleteByID(id); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.PublishDocumentEvent(ctx, "document.deleted", id); err != nil {
			log.Printf("publish document.deleted event failed: %v", err)
		}
	}
	return nil
}
