package services

import (
	"fmt"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    string
	Images      []string
}

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo   repositories.CategoryRepository
	events EventPublisher
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository, events EventPublisher) *CategoryService {
	return &CategoryService{
		repo:   repo,
		events: events,
	}
}

// List returns every category as a flat list.
func (s *CategoryService) List() ([]models.Category, error) {
	return s.repo.GetAll()
}

// Tree returns the categories nested under their parents.
func (s *CategoryService) Tree() ([]*models.CategoryNode, error) {
	categories, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	return BuildTree(categories), nil
}

// Create stores a new category below the optional parent.
func (s *CategoryService) Create(in CategoryInput) (*models.Category, error) {
	if in.Name == "" {
		return nil, invalid("name is required")
	}
	category := &models.Category{
		Name:        in.Name,
		Description: in.Description,
		Images:      in.Images,
	}
	if err := s.placeUnder(category, in.ParentID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Update rewrites a category. An empty ParentID makes it a root. Empty name,
// description and images keep their stored values.
func (s *CategoryService) Update(id string, in CategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	if in.ParentID != "" {
		if err := s.checkNoCycle(id, in.ParentID); err != nil {
			return nil, err
		}
	}

	if in.Name != "" {
		category.Name = in.Name
	}
	if in.Description != "" {
		category.Description = in.Description
	}
	if len(in.Images) > 0 {
		category.Images = in.Images
	}
	if err := s.placeUnder(category, in.ParentID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(category); err != nil {
		return nil, notFound(err, "category")
	}
	return category, nil
}

// Delete removes a category and promotes its children to roots.
func (s *CategoryService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, "category")
	}
	publish(s.events, EventCategoryDeleted, map[string]interface{}{"id": id})
	return nil
}

// placeUnder sets the parent reference and derives the level from it.
func (s *CategoryService) placeUnder(category *models.Category, parentID string) error {
	if parentID == "" {
		category.ParentID = nil
		category.Level = 0
		return nil
	}
	parent, err := s.repo.GetByID(parentID)
	if err != nil {
		if isNotFound(err) {
			return invalid("parent category not found")
		}
		return err
	}
	category.ParentID = &parent.ID
	category.Level = parent.Level + 1
	return nil
}

// checkNoCycle rejects a parent that is the category itself or one of its
// descendants.
func (s *CategoryService) checkNoCycle(id, parentID string) error {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == id {
			return invalid("category cannot be placed under itself or its descendants")
		}
		if seen[cur] {
			return fmt.Errorf("category hierarchy already contains a cycle at %s", cur)
		}
		seen[cur] = true
		node, err := s.repo.GetByID(cur)
		if err != nil {
			if isNotFound(err) {
				// placeUnder reports the missing parent.
				return nil
			}
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		cur = *node.ParentID
	}
	return nil
}

// BuildTree nests the flat categories under their parents. Roots and
// children keep the order of the input. A category whose parent is not in
// the input is left out of the result.
func BuildTree(categories []models.Category) []*models.CategoryNode {
	nodes := make(map[string]*models.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
	}

	roots := []*models.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}
