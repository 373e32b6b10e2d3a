package model

// Page stores the extracted raw text of a single document page. Rows are
// written once at ingestion and never updated.
type Page struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocumentID string `gorm:"size:36;not null;uniqueIndex:idx_page_doc_num,priority:1" json:"document_id"`
	PageNumber int    `gorm:"not null;uniqueIndex:idx_page_doc_num,priority:2" json:"page_number"`
	Text       string `gorm:"type:longtext" json:"text"`
}
