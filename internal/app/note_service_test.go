package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperbase/internal/model"
)

const (
	docAlphaID = "11111111-1111-1111-1111-111111111111"
	docBetaID  = "22222222-2222-2222-2222-222222222222"
	docGoneID  = "99999999-9999-9999-9999-999999999999"
)

func newNoteService(f *fakeStore) *NoteService {
	return NewNoteService(fakeNoteStore{f}, f, fakeTagStore{f})
}

func seedNoteDocs(t *testing.T, f *fakeStore) {
	t.Helper()
	seedDoc(t, f, docAlphaID, "Alpha Paper", "", "page one text", "page two text")
	seedDoc(t, f, docBetaID, "Beta Paper", "", "only page")
}

func TestScanMentions(t *testing.T) {
	content := "See @[Alpha](doc:" + docAlphaID + ") and @[B](doc:" + docBetaID + ")." +
		" Not a mention: [plain link](doc:" + docAlphaID + ") or @[unclosed](doc:short)"
	assert.Equal(t, []string{docAlphaID, docBetaID}, ScanMentions(content))

	assert.Empty(t, ScanMentions("no mentions here"))
}

func TestScanMentionsLowercasesIDs(t *testing.T) {
	upper := "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"
	got := ScanMentions("@[Doc](doc:" + upper + ")")
	require.Len(t, got, 1)
	assert.Equal(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", got[0])
}

func TestCreateNoteLinksMentionsAndDropsUnknownTargets(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	detail, err := svc.Create(CreateNoteInput{
		DocumentID:        docAlphaID,
		PageNumber:        1,
		Quote:             "page one",
		ContentMD:         "Compare with @[Beta](doc:" + docBetaID + ") and the deleted @[Gone](doc:" + docGoneID + ").",
		LinkedDocumentIDs: []string{docBetaID},
	})
	require.NoError(t, err)

	// Mentioned and explicit targets merge and dedupe; unknown targets drop.
	assert.Equal(t, []string{docBetaID}, detail.LinkedIDs)
	assert.Equal(t, docAlphaID, detail.Note.DocumentID)
	assert.NotEmpty(t, detail.Note.ID)
}

func TestCreateNoteValidation(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	_, err := svc.Create(CreateNoteInput{DocumentID: docAlphaID, PageNumber: 1, ContentMD: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(CreateNoteInput{DocumentID: docGoneID, PageNumber: 1, ContentMD: "text"})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = svc.Create(CreateNoteInput{DocumentID: docAlphaID, PageNumber: 3, ContentMD: "text"})
	assert.ErrorIs(t, err, ErrInvalidInput, "page beyond the document's page count")

	_, err = svc.Create(CreateNoteInput{
		DocumentID: docAlphaID,
		PageNumber: 1,
		ContentMD:  "text",
		Rects:      []model.Rect{{X: 0.2, Y: 0.1, W: 1.5, H: 0.1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "rect coordinates must stay in the unit square")
}

func TestCreateNoteStoresRectsAndTags(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	rects := []model.Rect{{X: 0.1, Y: 0.2, W: 0.3, H: 0.05}}
	detail, err := svc.Create(CreateNoteInput{
		DocumentID: docAlphaID,
		PageNumber: 2,
		Quote:      "page two",
		Rects:      rects,
		ContentMD:  "highlight",
		TagNames:   []string{" Methods ", "methods", "TODO-check"},
	})
	require.NoError(t, err)

	assert.Equal(t, rects, detail.Rects)
	assert.Equal(t, []string{"methods", "todo-check"}, detail.Tags)

	got, err := svc.Get(detail.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, rects, got.Rects)
	assert.ElementsMatch(t, []string{"methods", "todo-check"}, got.Tags)
}

func TestUpdateNoteRescansMentions(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	detail, err := svc.Create(CreateNoteInput{
		DocumentID: docAlphaID,
		PageNumber: 1,
		ContentMD:  "links to @[Beta](doc:" + docBetaID + ")",
	})
	require.NoError(t, err)
	require.Equal(t, []string{docBetaID}, detail.LinkedIDs)

	updated, err := svc.Update(UpdateNoteInput{
		ID:        detail.Note.ID,
		ContentMD: "no more mentions",
	})
	require.NoError(t, err)
	assert.Empty(t, updated.LinkedIDs)
	assert.Equal(t, "no more mentions", updated.Note.ContentMD)
}

func TestDeleteNoteRemovesTagsAndLinks(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	detail, err := svc.Create(CreateNoteInput{
		DocumentID: docAlphaID,
		PageNumber: 1,
		ContentMD:  "see @[Beta](doc:" + docBetaID + ")",
		TagNames:   []string{"followup"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(detail.Note.ID))

	_, err = svc.Get(detail.Note.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Empty(t, f.noteTags[detail.Note.ID])
	assert.Empty(t, f.links[detail.Note.ID])

	assert.ErrorIs(t, svc.Delete(detail.Note.ID), ErrNoteNotFound)
}

func TestListNotesByDocument(t *testing.T) {
	f := newFakeStore()
	seedNoteDocs(t, f)
	svc := newNoteService(f)

	for _, content := range []string{"first", "second"} {
		_, err := svc.Create(CreateNoteInput{DocumentID: docAlphaID, PageNumber: 1, ContentMD: content})
		require.NoError(t, err)
	}
	_, err := svc.Create(CreateNoteInput{DocumentID: docBetaID, PageNumber: 1, ContentMD: "other doc"})
	require.NoError(t, err)

	notes, err := svc.ListByDocument(docAlphaID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].ContentMD)
	assert.Equal(t, "second", notes[1].ContentMD)

	_, err = svc.ListByDocument(docGoneID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
