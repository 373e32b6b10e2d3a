package model

import (
	"encoding/json"
	"time"
)

// Rect is a selection region in page-relative coordinates, each field in [0,1].
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Note is a markdown annotation anchored to a document page, optionally with
// the quoted source text and the selection rectangles it was taken from.
// Rects are stored as a JSON array for portability.
type Note struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	Quote      string    `gorm:"type:text" json:"quote"`
	Rects      string    `gorm:"type:text" json:"-"`
	ContentMD  string    `gorm:"type:text;not null" json:"content_md"`
	CreatedAt  time.Time `json:"created_at"`
}

// RectList returns the parsed selection rectangles; empty on parse error.
func (n *Note) RectList() []Rect {
	if n.Rects == "" {
		return nil
	}
	var rects []Rect
	_ = json.Unmarshal([]byte(n.Rects), &rects)
	return rects
}

// SetRects stores the selection rectangles as JSON.
func (n *Note) SetRects(rects []Rect) {
	if len(rects) == 0 {
		n.Rects = ""
		return
	}
	b, _ := json.Marshal(rects)
	n.Rects = string(b)
}

// NoteLink is a directed note -> document association derived from
// @[label](doc:ID) mentions in the note markdown plus explicitly supplied IDs.
type NoteLink struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	NoteID           string `gorm:"size:36;not null;uniqueIndex:idx_note_link,priority:1" json:"note_id"`
	TargetDocumentID string `gorm:"size:36;not null;uniqueIndex:idx_note_link,priority:2;index" json:"target_document_id"`
}
