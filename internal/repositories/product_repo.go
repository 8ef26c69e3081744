package repositories

import (
	"katalog/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	UpdateFields(product *models.Product, fields ...string) error
	AddRating(id string, rating float64) (*models.Product, error)
	Delete(id string) error
}
