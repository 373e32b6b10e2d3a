package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paperbase/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert inserts the document or fully replaces the existing row with the
// same ID, so re-ingestion converges.
func (r *DocumentRepository) Upsert(doc *model.Document) error {
	if err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(doc).Error; err != nil {
		return fmt.Errorf("upsert document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Save(doc *model.Document) error {
	if err := r.db.Save(doc).Error; err != nil {
		return fmt.Errorf("save document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) List() ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) ListByIDs(ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Document
	if err := r.db.Where("id IN ?", ids).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents by ids failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) UpsertText(text *model.DocumentText) error {
	if err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(text).Error; err != nil {
		return fmt.Errorf("upsert document text failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetText(documentID string) (string, error) {
	var text model.DocumentText
	if err := r.db.Where("document_id = ?", documentID).First(&text).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get document text failed: %w", err)
	}
	return text.FullText, nil
}

func (r *DocumentRepository) TextsByDocumentIDs(ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var texts []model.DocumentText
	if err := r.db.Where("document_id IN ?", ids).Find(&texts).Error; err != nil {
		return nil, fmt.Errorf("list document texts failed: %w", err)
	}
	for _, t := range texts {
		result[t.DocumentID] = t.FullText
	}
	return result, nil
}

func (r *DocumentRepository) DeleteTextByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentText{}).Error; err != nil {
		return fmt.Errorf("delete document text failed: %w", err)
	}
	return nil
}
