package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product in the store.
//
// The three category ids are independent, optional references; they are not
// a parent chain. Likes and Carts hold user ids, each at most once.
type Product struct {
	ID                   string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name                 string    `json:"name" gorm:"type:varchar(255);not null"`
	Price                float64   `json:"price" gorm:"not null"`
	Description          string    `json:"description"`
	Images               []string  `json:"images" gorm:"serializer:json;type:text"`
	CategoryID           *string   `json:"categoryId" gorm:"index;type:varchar(36)"`
	InnerCategoryID      *string   `json:"innerCategoryId" gorm:"index;type:varchar(36)"`
	ExtraInnerCategoryID *string   `json:"extraInnerCategoryId" gorm:"index;type:varchar(36)"`
	Likes                []string  `json:"likes" gorm:"serializer:json;type:text"`
	Carts                []string  `json:"carts" gorm:"serializer:json;type:text"`
	Returned             bool      `json:"returned" gorm:"not null;default:false"`
	Discount             float64   `json:"discount" gorm:"not null;default:0"`
	Rating               float64   `json:"rating" gorm:"not null;default:0"`
	RatingCount          int       `json:"ratingCount" gorm:"not null;default:0"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`

	// Populated at query time, never stored.
	Category           *Category `json:"category" gorm:"-"`
	InnerCategory      *Category `json:"innerCategory" gorm:"-"`
	ExtraInnerCategory *Category `json:"extraInnerCategory" gorm:"-"`
}

// AfterFind normalizes empty JSON columns so they render as [] rather than null.
func (p *Product) AfterFind(tx *gorm.DB) error {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Carts == nil {
		p.Carts = []string{}
	}
	return nil
}

// CategoryIDs returns the non-nil category references of the product.
func (p *Product) CategoryIDs() []string {
	ids := make([]string, 0, 3)
	for _, id := range []*string{p.CategoryID, p.InnerCategoryID, p.ExtraInnerCategoryID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}
