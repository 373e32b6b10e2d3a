package app

import (
	"context"

	"paperbase/internal/model"
)

// Store interfaces abstract the relational repositories so services can be
// exercised against in-memory fakes. The repository package satisfies them.

type DocumentStore interface {
	Upsert(doc *model.Document) error
	Save(doc *model.Document) error
	GetByID(id string) (*model.Document, error)
	List() ([]model.Document, error)
	ListByIDs(ids []string) ([]model.Document, error)
	DeleteByID(id string) error
	UpsertText(text *model.DocumentText) error
	GetText(documentID string) (string, error)
	TextsByDocumentIDs(ids []string) (map[string]string, error)
	DeleteTextByDocumentID(documentID string) error
}

type PageStore interface {
	CreateBatch(pages []model.Page) error
	ListByDocumentID(documentID string) ([]model.Page, error)
	MapByDocumentIDs(ids []string) (map[string][]model.Page, error)
	DeleteByDocumentID(documentID string) error
}

type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	ListByDocumentID(documentID string) ([]model.Chunk, error)
	DeleteByDocumentID(documentID string) error
}

type EmbeddingStore interface {
	CreateBatch(records []model.EmbeddingRecord) error
	DeleteByDocumentID(documentID string) error
}

type TagStore interface {
	GetOrCreateByNames(names []string) ([]model.Tag, error)
	GetByNames(names []string) ([]model.Tag, error)
	ListWithUsage() ([]model.TagUsage, error)
	DocumentIDsWithAllTags(tagIDs []uint) ([]string, error)
	NamesByDocumentIDs(ids []string) (map[string][]string, error)
	NamesByNoteID(noteID string) ([]string, error)
	ReplaceDocumentTags(documentID string, tagIDs []uint) error
	ReplaceNoteTags(noteID string, tagIDs []uint) error
	DeleteByDocumentID(documentID string) error
	DeleteByNoteID(noteID string) error
}

type NoteStore interface {
	Create(note *model.Note) error
	Save(note *model.Note) error
	GetByID(id string) (*model.Note, error)
	ListByDocumentID(documentID string) ([]model.Note, error)
	IDsByDocumentID(documentID string) ([]string, error)
	DeleteByID(id string) error
	ReplaceLinks(noteID string, targetIDs []string) error
	LinkTargetsByNoteID(noteID string) ([]string, error)
	DeleteLinksByTargetDocumentID(documentID string) error
	DeleteLinksByNoteID(noteID string) error
}

// DocumentEventPublisher announces document lifecycle changes (best effort;
// callers tolerate failures).
type DocumentEventPublisher interface {
	PublishDocumentEvent(ctx context.Context, eventType, documentID string) error
}

// SearchCache stores recent search results (best effort).
type SearchCache interface {
	Get(ctx context.Context, key string) ([]Hit, bool, error)
	Set(ctx context.Context, key string, hits []Hit) error
}
