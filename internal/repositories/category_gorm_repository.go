package repositories

import (
	"errors"
	"fmt"

	"katalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{
		db: db,
	}
}

// GetAll retrieves every category in insertion order.
func (r *GORMCategoryRepository) GetAll() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("created_at, id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a single category by its ID.
func (r *GORMCategoryRepository) GetByID(id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %s: %w", id, err)
	}
	return &category, nil
}

// Create creates a new category in the database.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.Images == nil {
		category.Images = []string{}
	}
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update writes every field of category and recomputes the levels of its
// descendants in the same transaction.
func (r *GORMCategoryRepository) Update(category *models.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(category).Select("*").Omit("created_at").Updates(category)
		if res.Error != nil {
			return fmt.Errorf("failed to update category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category with ID %s: %w", category.ID, ErrNotFound)
		}
		return relevelDescendants(tx, category.ID, category.Level)
	})
}

// Delete removes a category. Its direct children become roots at level 0 and
// the detached subtrees are re-leveled.
func (r *GORMCategoryRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category with ID %s: %w", id, ErrNotFound)
		}

		var childIDs []string
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Pluck("id", &childIDs).Error; err != nil {
			return fmt.Errorf("failed to list children of %s: %w", id, err)
		}
		if len(childIDs) == 0 {
			return nil
		}
		err := tx.Model(&models.Category{}).
			Where("parent_id = ?", id).
			Updates(map[string]interface{}{"parent_id": nil, "level": 0}).Error
		if err != nil {
			return fmt.Errorf("failed to detach children of %s: %w", id, err)
		}
		for _, childID := range childIDs {
			if err := relevelDescendants(tx, childID, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// relevelDescendants walks the subtree below rootID breadth first and sets
// each node's level to its parent's level plus one.
func relevelDescendants(tx *gorm.DB, rootID string, rootLevel int) error {
	type item struct {
		id    string
		level int
	}
	queue := []item{{rootID, rootLevel}}
	seen := map[string]bool{rootID: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var childIDs []string
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", cur.id).Pluck("id", &childIDs).Error; err != nil {
			return fmt.Errorf("failed to list children of %s: %w", cur.id, err)
		}
		if len(childIDs) == 0 {
			continue
		}
		err := tx.Model(&models.Category{}).Where("parent_id = ?", cur.id).Update("level", cur.level+1).Error
		if err != nil {
			return fmt.Errorf("failed to relevel children of %s: %w", cur.id, err)
		}
		for _, childID := range childIDs {
			if seen[childID] {
				continue
			}
			seen[childID] = true
			queue = append(queue, item{childID, cur.level + 1})
		}
	}
	return nil
}
