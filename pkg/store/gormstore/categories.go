package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *GormStore) GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]any{
		"name":       category.Name,
		"color":      category.Color,
		"icon":       category.Icon,
		"sort_order": category.SortOrder,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %s not found", category.ID)
	}
	return nil
}

// DeleteCategory removes the category and nulls the reference on dependent
// notes in the same transaction. Notes survive their category.
func (s *GormStore) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.noteEvents.broadcast()
	return nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories := []*models.Category{}
	err := s.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// RefreshCategoryNoteCounts recomputes the denormalized note count of every
// category from the notes table. The count is advisory and drifts between
// refreshes; it is never maintained transactionally.
func (s *GormStore) RefreshCategoryNoteCounts(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(
		`UPDATE categories SET note_count = (
			SELECT COUNT(*) FROM notes WHERE notes.category_id = categories.id
		)`,
	).Error
	if err != nil {
		return fmt.Errorf("failed to refresh category note counts: %w", err)
	}
	return nil
}
