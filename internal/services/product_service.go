package services

import (
	"math"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name                 string
	Price                float64
	Description          string
	CategoryID           string
	InnerCategoryID      string
	ExtraInnerCategoryID string
	Discount             float64
	Images               []string
}

// ToggleResult reports the membership of the caller after a toggle.
type ToggleResult struct {
	Count  int
	Active bool
}

// RatingResult is the running average after a new rating.
type RatingResult struct {
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{}
	in.applyTo(product)
	product.Images = in.Images
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	publish(s.events, EventProductCreated, map[string]interface{}{"id": product.ID, "name": product.Name, "price": product.Price})
	return product, nil
}

// UpdateProduct replaces the editable fields of a product. Images are only
// replaced when new ones are supplied.
func (s *ProductService) UpdateProduct(id string, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	in.applyTo(product)
	fields := []string{"name", "price", "description", "category_id", "inner_category_id", "extra_inner_category_id", "discount"}
	if len(in.Images) > 0 {
		product.Images = in.Images
		fields = append(fields, "images")
	}
	if err := s.repo.UpdateFields(product, fields...); err != nil {
		return nil, notFound(err, "product")
	}
	return s.GetProductByID(id)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return notFound(err, "product")
	}
	publish(s.events, EventProductDeleted, map[string]interface{}{"id": id})
	return nil
}

// ToggleLike adds userID to the likes of a product, or removes it when
// already present.
func (s *ProductService) ToggleLike(id, userID string) (*ToggleResult, error) {
	product, err := s.find(id)
	if err != nil {
		return nil, err
	}
	var active bool
	product.Likes, active = toggleMember(product.Likes, userID)
	if err := s.repo.UpdateFields(product, "likes"); err != nil {
		return nil, notFound(err, "product")
	}
	return &ToggleResult{Count: len(product.Likes), Active: active}, nil
}

// ToggleCart adds userID to the carts of a product, or removes it when
// already present.
func (s *ProductService) ToggleCart(id, userID string) (*ToggleResult, error) {
	product, err := s.find(id)
	if err != nil {
		return nil, err
	}
	var active bool
	product.Carts, active = toggleMember(product.Carts, userID)
	if err := s.repo.UpdateFields(product, "carts"); err != nil {
		return nil, notFound(err, "product")
	}
	return &ToggleResult{Count: len(product.Carts), Active: active}, nil
}

// ToggleReturned flips the returned flag and returns its new value.
func (s *ProductService) ToggleReturned(id string) (bool, error) {
	product, err := s.find(id)
	if err != nil {
		return false, err
	}
	product.Returned = !product.Returned
	if err := s.repo.UpdateFields(product, "returned"); err != nil {
		return false, notFound(err, "product")
	}
	return product.Returned, nil
}

// RateProduct folds rating into the running average of a product. Any
// non-zero finite number is accepted.
func (s *ProductService) RateProduct(id string, rating float64) (*RatingResult, error) {
	if rating == 0 || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return nil, invalid("rating required")
	}
	product, err := s.repo.AddRating(id, rating)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &RatingResult{Rating: product.Rating, RatingCount: product.RatingCount}, nil
}

// find loads a product without resolving its categories.
func (s *ProductService) find(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return product, nil
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return invalid("name is required")
	}
	if in.Price < 0 || math.IsNaN(in.Price) {
		return invalid("price must be a non-negative number")
	}
	return nil
}

func (in ProductInput) applyTo(p *models.Product) {
	p.Name = in.Name
	p.Price = in.Price
	p.Description = in.Description
	p.CategoryID = optional(in.CategoryID)
	p.InnerCategoryID = optional(in.InnerCategoryID)
	p.ExtraInnerCategoryID = optional(in.ExtraInnerCategoryID)
	p.Discount = in.Discount
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// toggleMember removes id from list when present and appends it otherwise.
// It reports whether id is a member afterwards.
func toggleMember(list []string, id string) ([]string, bool) {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, v := range list {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if found {
		return out, false
	}
	return append(out, id), true
}
