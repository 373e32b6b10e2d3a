package model

import "time"

type Document struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	SourceName    string    `gorm:"size:256;not null" json:"source_name"`
	PageCount     int       `gorm:"not null" json:"page_count"`
	WordCount     int       `gorm:"not null" json:"word_count"`
	ByteSize      int64     `gorm:"not null" json:"byte_size"`
	MimeType      string    `gorm:"size:128;not null" json:"mime_type"`
	DescriptionMD string    `gorm:"type:text" json:"description_md"`
	FilePath      string    `gorm:"size:512" json:"file_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DocumentText holds the full extracted text of a document, kept apart from
// the Document row so listings stay cheap.
type DocumentText struct {
	DocumentID string `gorm:"primaryKey;size:36" json:"document_id"`
	FullText   string `gorm:"type:longtext" json:"full_text"`
}
