package repository

import (
	"fmt"

	"gorm.io/gorm"

	"paperbase/internal/model"
)

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

func (r *EmbeddingRepository) CreateBatch(records []model.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.db.Create(&records).Error; err != nil {
		return fmt.Errorf("create embedding records batch failed: %w", err)
	}
	return nil
}

func (r *EmbeddingRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.EmbeddingRecord{}).Error; err != nil {
		return fmt.Errorf("delete embedding records by document failed: %w", err)
	}
	return nil
}
