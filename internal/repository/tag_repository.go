package repository

import (
	"fmt"

	"gorm.io/gorm"

	"paperbase/internal/model"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetOrCreateByNames resolves tags for the given normalized names, creating
// any that do not exist yet. Tags are never deleted.
func (r *TagRepository) GetOrCreateByNames(names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		var tag model.Tag
		if err := r.db.Where(model.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("get or create tag %q failed: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *TagRepository) GetByNames(names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := r.db.Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags by names failed: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) ListWithUsage() ([]model.TagUsage, error) {
	var usage []model.TagUsage
	err := r.db.Model(&model.Tag{}).
		Select("tags.id, tags.name, COUNT(document_tags.id) AS document_count").
		Joins("LEFT JOIN document_tags ON document_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("tags.name ASC").
		Scan(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("list tag usage failed: %w", err)
	}
	return usage, nil
}

// DocumentIDsWithAllTags returns documents carrying every one of the given
// tags (AND semantics).
func (r *TagRepository) DocumentIDsWithAllTags(tagIDs []uint) ([]string, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.Model(&model.DocumentTag{}).
		Where("tag_id IN ?", tagIDs).
		Group("document_id").
		Having("COUNT(DISTINCT tag_id) = ?", len(tagIDs)).
		Pluck("document_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list documents with all tags failed: %w", err)
	}
	return ids, nil
}

func (r *TagRepository) NamesByDocumentIDs(ids []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []struct {
		DocumentID string
		Name       string
	}
	err := r.db.Model(&model.DocumentTag{}).
		Select("document_tags.document_id, tags.name").
		Joins("JOIN tags ON tags.id = document_tags.tag_id").
		Where("document_tags.document_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list tag names by document ids failed: %w", err)
	}
	for _, row := range rows {
		result[row.DocumentID] = append(result[row.DocumentID], row.Name)
	}
	return result, nil
}

func (r *TagRepository) NamesByNoteID(noteID string) ([]string, error) {
	var names []string
	err := r.db.Model(&model.NoteTag{}).
		Select("tags.name").
		Joins("JOIN tags ON tags.id = note_tags.tag_id").
		Where("note_tags.note_id = ?", noteID).
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list tag names by note failed: %w", err)
	}
	return names, nil
}

// ReplaceDocumentTags swaps the document's tag set wholesale
// (delete-then-insert, not an incremental diff).
func (r *TagRepository) ReplaceDocumentTags(documentID string, tagIDs []uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentTag{}).Error; err != nil {
		return fmt.Errorf("clear document tags failed: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	joins := make([]model.DocumentTag, len(tagIDs))
	for i, tagID := range tagIDs {
		joins[i] = model.DocumentTag{DocumentID: documentID, TagID: tagID}
	}
	if err := r.db.Create(&joins).Error; err != nil {
		return fmt.Errorf("create document tags failed: %w", err)
	}
	return nil
}

// ReplaceNoteTags swaps the note's tag set wholesale.
func (r *TagRepository) ReplaceNoteTags(noteID string, tagIDs []uint) error {
	if err := r.db.Where("note_id = ?", noteID).Delete(&model.NoteTag{}).Error; err != nil {
		return fmt.Errorf("clear note tags failed: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	joins := make([]model.NoteTag, len(tagIDs))
	for i, tagID := range tagIDs {
		joins[i] = model.NoteTag{NoteID: noteID, TagID: tagID}
	}
	if err := r.db.Create(&joins).Error; err != nil {
		return fmt.Errorf("create note tags failed: %w", err)
	}
	return nil
}

func (r *TagRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentTag{}).Error; err != nil {
		return fmt.Errorf("delete document tags failed: %w", err)
	}
	return nil
}

func (r *TagRepository) DeleteByNoteID(noteID string) error {
	if err := r.db.Where("note_id = ?", noteID).Delete(&model.NoteTag{}).Error; err != nil {
		return fmt.Errorf("delete note tags failed: %w", err)
	}
	return nil
}
