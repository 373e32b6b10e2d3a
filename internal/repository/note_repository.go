package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"paperbase/internal/model"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(note *model.Note) error {
	if err := r.db.Create(note).Error; err != nil {
		return fmt.Errorf("create note failed: %w", err)
	}
	return nil
}

func (r *NoteRepository) Save(note *model.Note) error {
	if err := r.db.Save(note).Error; err != nil {
		return fmt.Errorf("save note failed: %w", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(id string) (*model.Note, error) {
	var note model.Note
	if err := r.db.Where("id = ?", id).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note failed: %w", err)
	}
	return &note, nil
}

func (r *NoteRepository) ListByDocumentID(documentID string) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.Where("document_id = ?", documentID).Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes failed: %w", err)
	}
	return notes, nil
}

// IDsByDocumentID returns note IDs for a document (for cascade delete).
func (r *NoteRepository) IDsByDocumentID(documentID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.Note{}).Where("document_id = ?", documentID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list note ids by document failed: %w", err)
	}
	return ids, nil
}

func (r *NoteRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Note{}).Error; err != nil {
		return fmt.Errorf("delete note failed: %w", err)
	}
	return nil
}

// ReplaceLinks swaps the note's outgoing document links wholesale.
func (r *NoteRepository) ReplaceLinks(noteID string, targetIDs []string) error {
	if err := r.db.Where("note_id = ?", noteID).Delete(&model.NoteLink{}).Error; err != nil {
		return fmt.Errorf("clear note links failed: %w", err)
	}
	if len(targetIDs) == 0 {
		return nil
	}
	links := make([]model.NoteLink, len(targetIDs))
	for i, target := range targetIDs {
		links[i] = model.NoteLink{NoteID: noteID, TargetDocumentID: target}
	}
	if err := r.db.Create(&links).Error; err != nil {
		return fmt.Errorf("create note links failed: %w", err)
	}
	return nil
}

func (r *NoteRepository) LinkTargetsByNoteID(noteID string) ([]string, error) {
	var targets []string
	if err := r.db.Model(&model.NoteLink{}).Where("note_id = ?", noteID).Pluck("target_document_id", &targets).Error; err != nil {
		return nil, fmt.Errorf("list note link targets failed: %w", err)
	}
	return targets, nil
}

// DeleteLinksByTargetDocumentID removes links pointing at a document being
// deleted.
func (r *NoteRepository) DeleteLinksByTargetDocumentID(documentID string) error {
	if err := r.db.Where("target_document_id = ?", documentID).Delete(&model.NoteLink{}).Error; err != nil {
		return fmt.Errorf("delete note links by target failed: %w", err)
	}
	return nil
}

func (r *NoteRepository) DeleteLinksByNoteID(noteID string) error {
	if err := r.db.Where("note_id = ?", noteID).Delete(&model.NoteLink{}).Error; err != nil {
		return fmt.Errorf("delete note links failed: %w", err)
	}
	return nil
}
