package model

import "time"

// Chunk is a bounded word window over one or more consecutive pages, the unit
// of embedding and semantic retrieval. The ID is derived from the document ID
// plus the chunk index, so re-ingesting the same pages reproduces the same IDs.
type Chunk struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	PageStart  int       `gorm:"not null" json:"page_start"`
	PageEnd    int       `gorm:"not null" json:"page_end"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingRecord is bookkeeping for a chunk's vector: the vector itself lives
// in the external index under the chunk ID.
type EmbeddingRecord struct {
	ChunkID    string    `gorm:"primaryKey;size:64" json:"chunk_id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Model      string    `gorm:"size:128;not null" json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}
