package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a node of the catalog hierarchy. A nil ParentID marks a root.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description"`
	Images      []string  `json:"images" gorm:"serializer:json;type:text"`
	ParentID    *string   `json:"parentId" gorm:"index;type:varchar(36)"`
	Level       int       `json:"level" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryNode is a category together with its nested children.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// AfterFind normalizes a NULL images column to an empty list.
func (c *Category) AfterFind(tx *gorm.DB) error {
	if c.Images == nil {
		c.Images = []string{}
	}
	return nil
}
