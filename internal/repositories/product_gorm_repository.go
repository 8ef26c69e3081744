package repositories

import (
	"errors"
	"fmt"

	"katalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products with their categories populated.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	if err := r.populateCategories(products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID retrieves a single product by its ID with its categories populated.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	product, err := r.find(id)
	if err != nil {
		return nil, err
	}
	products := []models.Product{*product}
	if err := r.populateCategories(products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Likes == nil {
		product.Likes = []string{}
	}
	if product.Carts == nil {
		product.Carts = []string{}
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateFields writes only the named columns of product. It does not guard
// against concurrent writers of the same columns.
func (r *GORMProductRepository) UpdateFields(product *models.Product, fields ...string) error {
	res := r.db.Model(product).Select(append(fields, "updated_at")).Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// AddRating folds rating into the running average in a single statement, so
// concurrent submissions cannot overwrite each other.
func (r *GORMProductRepository) AddRating(id string, rating float64) (*models.Product, error) {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"rating":       gorm.Expr("(rating * rating_count + ?) / (rating_count + 1)", rating),
		"rating_count": gorm.Expr("rating_count + 1"),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to rate product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return r.find(id)
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) find(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// populateCategories resolves the three category references of every product
// with one lookup. References to missing categories stay nil.
func (r *GORMProductRepository) populateCategories(products []models.Product) error {
	seen := make(map[string]bool)
	var ids []string
	for i := range products {
		for _, id := range products[i].CategoryIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var categories []models.Category
	if err := r.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return fmt.Errorf("failed to populate product categories: %w", err)
	}
	byID := make(map[string]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	lookup := func(id *string) *models.Category {
		if id == nil {
			return nil
		}
		return byID[*id]
	}
	for i := range products {
		products[i].Category = lookup(products[i].CategoryID)
		products[i].InnerCategory = lookup(products[i].InnerCategoryID)
		products[i].ExtraInnerCategory = lookup(products[i].ExtraInnerCategoryID)
	}
	return nil
}
