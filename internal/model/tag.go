package model

import "time"

// Tag names are normalized (trimmed, lower-cased) before persisting; tags are
// created lazily on first use and never deleted.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagUsage is the read model for tag listings.
type TagUsage struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	DocumentCount int64  `json:"document_count"`
}

type DocumentTag struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocumentID string `gorm:"size:36;not null;uniqueIndex:idx_doc_tag,priority:1" json:"document_id"`
	TagID      uint   `gorm:"not null;uniqueIndex:idx_doc_tag,priority:2;index" json:"tag_id"`
}

type NoteTag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NoteID string `gorm:"size:36;not null;uniqueIndex:idx_note_tag,priority:1" json:"note_id"`
	TagID  uint   `gorm:"not null;uniqueIndex:idx_note_tag,priority:2;index" json:"tag_id"`
}
