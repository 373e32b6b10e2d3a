package app

import (
	"context"
	"errors"
	"sort"

	"paperbase/internal/model"
	"paperbase/internal/vector"
)

// fakeStore is a single in-memory implementation of every store interface, so
// services can be wired without MySQL.
type fakeStore struct {
	docs      map[string]model.Document
	docOrder  []string
	texts     map[string]string
	pages     map[string][]model.Page
	chunks    map[string][]model.Chunk
	records   map[string][]model.EmbeddingRecord
	tags      map[string]model.Tag
	nextTagID uint
	docTags   map[string][]uint
	noteTags  map[string][]uint
	notes     map[string]model.Note
	noteOrder []string
	links     map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[string]model.Document),
		texts:    make(map[string]string),
		pages:    make(map[string][]model.Page),
		chunks:   make(map[string][]model.Chunk),
		records:  make(map[string][]model.EmbeddingRecord),
		tags:     make(map[string]model.Tag),
		docTags:  make(map[string][]uint),
		noteTags: make(map[string][]uint),
		notes:    make(map[string]model.Note),
		links:    make(map[string][]string),
	}
}

func (f *fakeStore) Upsert(doc *model.Document) error {
	if _, ok := f.docs[doc.ID]; !ok {
		f.docOrder = append(f.docOrder, doc.ID)
	}
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeStore) Save(doc *model.Document) error { return f.Upsert(doc) }

func (f *fakeStore) GetByID(id string) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (f *fakeStore) List() ([]model.Document, error) {
	list := make([]model.Document, 0, len(f.docOrder))
	for _, id := range f.docOrder {
		list = append(list, f.docs[id])
	}
	return list, nil
}

func (f *fakeStore) ListByIDs(ids []string) ([]model.Document, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var list []model.Document
	for _, id := range f.docOrder {
		if _, ok := wanted[id]; ok {
			list = append(list, f.docs[id])
		}
	}
	return list, nil
}

func (f *fakeStore) DeleteByID(id string) error {
	delete(f.docs, id)
	for i, existing := range f.docOrder {
		if existing == id {
			f.docOrder = append(f.docOrder[:i], f.docOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) UpsertText(text *model.DocumentText) error {
	f.texts[text.DocumentID] = text.FullText
	return nil
}

func (f *fakeStore) GetText(documentID string) (string, error) {
	return f.texts[documentID], nil
}

func (f *fakeStore) TextsByDocumentIDs(ids []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, id := range ids {
		if text, ok := f.texts[id]; ok {
			result[id] = text
		}
	}
	return result, nil
}

func (f *fakeStore) DeleteTextByDocumentID(documentID string) error {
	delete(f.texts, documentID)
	return nil
}

func (f *fakeStore) CreateBatch(pages []model.Page) error {
	for _, p := range pages {
		f.pages[p.DocumentID] = append(f.pages[p.DocumentID], p)
	}
	return nil
}

func (f *fakeStore) ListByDocumentID(documentID string) ([]model.Page, error) {
	return f.pages[documentID], nil
}

func (f *fakeStore) MapByDocumentIDs(ids []string) (map[string][]model.Page, error) {
	result := make(map[string][]model.Page)
	for _, id := range ids {
		if pages, ok := f.pages[id]; ok {
			result[id] = pages
		}
	}
	return result, nil
}

func (f *fakeStore) DeleteByDocumentID(documentID string) error {
	delete(f.pages, documentID)
	return nil
}

// chunkStore / embeddingStore adapters: the shared method names above collide,
// so these live on small views into the fake.

type fakeChunkStore struct{ f *fakeStore }

func (c fakeChunkStore) CreateBatch(chunks []model.Chunk) error {
	for _, ch := range chunks {
		c.f.chunks[ch.DocumentID] = append(c.f.chunks[ch.DocumentID], ch)
	}
	return nil
}

func (c fakeChunkStore) ListByDocumentID(documentID string) ([]model.Chunk, error) {
	return c.f.chunks[documentID], nil
}

func (c fakeChunkStore) DeleteByDocumentID(documentID string) error {
	delete(c.f.chunks, documentID)
	return nil
}

type fakeEmbeddingStore struct{ f *fakeStore }

func (e fakeEmbeddingStore) CreateBatch(records []model.EmbeddingRecord) error {
	for _, rec := range records {
		e.f.records[rec.DocumentID] = append(e.f.records[rec.DocumentID], rec)
	}
	return nil
}

func (e fakeEmbeddingStore) DeleteByDocumentID(documentID string) error {
	delete(e.f.records, documentID)
	return nil
}

type fakeTagStore struct{ f *fakeStore }

func (t fakeTagStore) GetOrCreateByNames(names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, ok := t.f.tags[name]
		if !ok {
			t.f.nextTagID++
			tag = model.Tag{ID: t.f.nextTagID, Name: name}
			t.f.tags[name] = tag
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (t fakeTagStore) GetByNames(names []string) ([]model.Tag, error) {
	var tags []model.Tag
	for _, name := range names {
		if tag, ok := t.f.tags[name]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (t fakeTagStore) ListWithUsage() ([]model.TagUsage, error) {
	var usage []model.TagUsage
	for _, tag := range t.f.tags {
		count := int64(0)
		for _, tagIDs := range t.f.docTags {
			for _, id := range tagIDs {
				if id == tag.ID {
					count++
				}
			}
		}
		usage = append(usage, model.TagUsage{ID: tag.ID, Name: tag.Name, DocumentCount: count})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Name < usage[j].Name })
	return usage, nil
}

func (t fakeTagStore) DocumentIDsWithAllTags(tagIDs []uint) ([]string, error) {
	var ids []string
	for _, docID := range t.f.docOrder {
		have := make(map[uint]struct{})
		for _, id := range t.f.docTags[docID] {
			have[id] = struct{}{}
		}
		matched := true
		for _, id := range tagIDs {
			if _, ok := have[id]; !ok {
				matched = false
				break
			}
		}
		if matched {
			ids = append(ids, docID)
		}
	}
	return ids, nil
}

func (t fakeTagStore) NamesByDocumentIDs(ids []string) (map[string][]string, error) {
	result := make(map[string][]string)
	for _, docID := range ids {
		for _, tagID := range t.f.docTags[docID] {
			for name, tag := range t.f.tags {
				if tag.ID == tagID {
					result[docID] = append(result[docID], name)
				}
			}
		}
	}
	return result, nil
}

func (t fakeTagStore) NamesByNoteID(noteID string) ([]string, error) {
	var names []string
	for _, tagID := range t.f.noteTags[noteID] {
		for name, tag := range t.f.tags {
			if tag.ID == tagID {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (t fakeTagStore) ReplaceDocumentTags(documentID string, tagIDs []uint) error {
	t.f.docTags[documentID] = tagIDs
	return nil
}

func (t fakeTagStore) ReplaceNoteTags(noteID string, tagIDs []uint) error {
	t.f.noteTags[noteID] = tagIDs
	return nil
}

func (t fakeTagStore) DeleteByDocumentID(documentID string) error {
	delete(t.f.docTags, documentID)
	return nil
}

func (t fakeTagStore) DeleteByNoteID(noteID string) error {
	delete(t.f.noteTags, noteID)
	return nil
}

type fakeNoteStore struct{ f *fakeStore }

func (n fakeNoteStore) Create(note *model.Note) error {
	n.f.notes[note.ID] = *note
	n.f.noteOrder = append(n.f.noteOrder, note.ID)
	return nil
}

func (n fakeNoteStore) Save(note *model.Note) error {
	n.f.notes[note.ID] = *note
	return nil
}

func (n fakeNoteStore) GetByID(id string) (*model.Note, error) {
	note, ok := n.f.notes[id]
	if !ok {
		return nil, nil
	}
	return &note, nil
}

func (n fakeNoteStore) ListByDocumentID(documentID string) ([]model.Note, error) {
	var notes []model.Note
	for _, id := range n.f.noteOrder {
		if note, ok := n.f.notes[id]; ok && note.DocumentID == documentID {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func (n fakeNoteStore) IDsByDocumentID(documentID string) ([]string, error) {
	var ids []string
	for _, id := range n.f.noteOrder {
		if note, ok := n.f.notes[id]; ok && note.DocumentID == documentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (n fakeNoteStore) DeleteByID(id string) error {
	delete(n.f.notes, id)
	return nil
}

func (n fakeNoteStore) ReplaceLinks(noteID string, targetIDs []string) error {
	n.f.links[noteID] = targetIDs
	return nil
}

func (n fakeNoteStore) LinkTargetsByNoteID(noteID string) ([]string, error) {
	return n.f.links[noteID], nil
}

func (n fakeNoteStore) DeleteLinksByTargetDocumentID(documentID string) error {
	for noteID, targets := range n.f.links {
		var kept []string
		for _, target := range targets {
			if target != documentID {
				kept = append(kept, target)
			}
		}
		n.f.links[noteID] = kept
	}
	return nil
}

func (n fakeNoteStore) DeleteLinksByNoteID(noteID string) error {
	delete(n.f.links, noteID)
	return nil
}

// fakeEmbedder returns a canned vector per exact text, or a default.
type fakeEmbedder struct {
	vectors map[string][]float32
	def     []float32
	calls   int
	err     error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return e.def, nil
}

func (e *fakeEmbedder) Model() string { return "fake-embed" }

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) PublishDocumentEvent(ctx context.Context, eventType, documentID string) error {
	p.events = append(p.events, eventType+":"+documentID)
	return nil
}

// downIndex fails every operation, for exercising the degradation branch.
type downIndex struct{}

var errIndexDown = errors.New("connection refused")

func (downIndex) HealthCheck(ctx context.Context) error { return errIndexDown }

func (downIndex) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metas []vector.ChunkMeta) error {
	return errIndexDown
}

func (downIndex) Query(ctx context.Context, vec []float32, limit int, documentID string) (*vector.QueryResult, error) {
	return nil, errIndexDown
}

func (downIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	return errIndexDown
}
