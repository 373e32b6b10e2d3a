package repository

import (
	"fmt"

	"gorm.io/gorm"

	"paperbase/internal/model"
)

type PageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) CreateBatch(pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	if err := r.db.Create(&pages).Error; err != nil {
		return fmt.Errorf("create pages batch failed: %w", err)
	}
	return nil
}

func (r *PageRepository) ListByDocumentID(documentID string) ([]model.Page, error) {
	var pages []model.Page
	if err := r.db.Where("document_id = ?", documentID).Order("page_number ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("list pages failed: %w", err)
	}
	return pages, nil
}

func (r *PageRepository) MapByDocumentIDs(ids []string) (map[string][]model.Page, error) {
	result := make(map[string][]model.Page, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var pages []model.Page
	if err := r.db.Where("document_id IN ?", ids).Order("page_number ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("list pages by document ids failed: %w", err)
	}
	for _, p := range pages {
		result[p.DocumentID] = append(result[p.DocumentID], p)
	}
	return result, nil
}

func (r *PageRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Page{}).Error; err != nil {
		return fmt.Errorf("delete pages by document failed: %w", err)
	}
	return nil
}
