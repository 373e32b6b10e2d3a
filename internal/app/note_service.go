package app

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"paperbase/internal/model"
)

// mentionPattern matches @[label](doc:<uuid>) mentions in note markdown.
var mentionPattern = regexp.MustCompile(`@\[[^\]]*\]\(doc:([0-9a-fA-F-]{36})\)`)

// NoteService manages markdown notes anchored to document pages, their tags,
// and the note -> document links derived from in-text mentions.
type NoteService struct {
	noteStore NoteStore
	docStore  DocumentStore
	tagStore  TagStore
}

func NewNoteService(noteStore NoteStore, docStore DocumentStore, tagStore TagStore) *NoteService {
	return &NoteService{noteStore: noteStore, docStore: docStore, tagStore: tagStore}
}

type CreateNoteInput struct {
	DocumentID string
	PageNumber int
	Quote      string
	Rects      []model.Rect
	ContentMD  string
	TagNames   []string
	// LinkedDocumentIDs are merged with IDs scanned from the markdown.
	LinkedDocumentIDs []string
}

type NoteDetail struct {
	Note      model.Note   `json:"note"`
	Rects     []model.Rect `json:"rects"`
	Tags      []string     `json:"tags"`
	LinkedIDs []string     `json:"linked_document_ids"`
}

func (s *NoteService) Create(input CreateNoteInput) (*NoteDetail, error) {
	content := strings.TrimSpace(input.ContentMD)
	if input.DocumentID == "" || content == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docStore.GetByID(input.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if input.PageNumber < 1 || input.PageNumber > doc.PageCount {
		return nil, ErrInvalidInput
	}
	for _, rect := range input.Rects {
		if !validRect(rect) {
			return nil, ErrInvalidInput
		}
	}

	note := &model.Note{
		ID:         uuid.NewString(),
		DocumentID: input.DocumentID,
		PageNumber: input.PageNumber,
		Quote:      input.Quote,
		ContentMD:  content,
		CreatedAt:  time.Now(),
	}
	note.SetRects(input.Rects)
	if err := s.noteStore.Create(note); err != nil {
		return nil, err
	}

	tags, err := s.replaceTags(note.ID, input.TagNames)
	if err != nil {
		return nil, err
	}
	linked, err := s.replaceLinks(note.ID, content, input.LinkedDocumentIDs)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *note, Rects: note.RectList(), Tags: tags, LinkedIDs: linked}, nil
}

func (s *NoteService) Get(id string) (*NoteDetail, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	note, err := s.noteStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	tags, err := s.tagStore.NamesByNoteID(id)
	if err != nil {
		return nil, err
	}
	linked, err := s.noteStore.LinkTargetsByNoteID(id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *note, Rects: note.RectList(), Tags: tags, LinkedIDs: linked}, nil
}

func (s *NoteService) ListByDocument(documentID string) ([]model.Note, error) {
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
	return s.noteStore.ListByDocumentID(documentID)
}

type UpdateNoteInput struct {
	ID                string
	ContentMD         string
	TagNames          []string
	LinkedDocumentIDs []string
}

// Update replaces the note content and rescans mentions; tag and link sets are
// swapped wholesale.
func (s *NoteService) Update(input UpdateNoteInput) (*NoteDetail, error) {
	content := strings.TrimSpace(input.ContentMD)
	if input.ID == "" || content == "" {
		return nil, ErrInvalidInput
	}
	note, err := s.noteStore.GetByID(input.ID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	note.ContentMD = content
	if err := s.noteStore.Save(note); err != nil {
		return nil, err
	}
	tags, err := s.replaceTags(note.ID, input.TagNames)
	if err != nil {
		return nil, err
	}
	linked, err := s.replaceLinks(note.ID, content, input.LinkedDocumentIDs)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *note, Rects: note.RectList(), Tags: tags, LinkedIDs: linked}, nil
}

func (s *NoteService) Delete(id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	note, err := s.noteStore.GetByID(id)
	if err != nil {
		return err
	}
	if note == nil {
		return ErrNoteNotFound
	}
	if err := s.noteStore.DeleteLinksByNoteID(id); err != nil {
		return err
	}
	if err := s.tagStore.DeleteByNoteID(id); err != nil {
		return err
	}
	return s.noteStore.DeleteByID(id)
}

func (s *NoteService) replaceTags(noteID string, tagNames []string) ([]string, error) {
	names := normalizeTagNames(tagNames)
	tags, err := s.tagStore.GetOrCreateByNames(names)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]uint, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}
	if err := s.tagStore.ReplaceNoteTags(noteID, tagIDs); err != nil {
		return nil, err
	}
	return names, nil
}

// replaceLinks unions scanned mentions with explicitly supplied IDs and drops
// any that do not reference an existing document.
func (s *NoteService) replaceLinks(noteID, content string, explicitIDs []string) ([]string, error) {
	candidates := ScanMentions(content)
	for _, id := range explicitIDs {
		if id != "" {
			candidates = append(candidates, id)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var targets []string
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		doc, err := s.docStore.GetByID(id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		targets = append(targets, id)
	}
	if err := s.noteStore.ReplaceLinks(noteID, targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// ScanMentions extracts document IDs from @[label](doc:ID) mentions, in order
// of appearance.
func ScanMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.ToLower(m[1]))
	}
	return ids
}

func validRect(r model.Rect) bool {
	inUnit := func(v float64) bool { return v >= 0 && v <= 1 }
	return inUnit(r.X) && inUnit(r.Y) && inUnit(r.W) && inUnit(r.H)
}
