package models

import (
	"time"
)

// Product represents a catalog product in the store and in the listing cache
type Product struct {
	ID          string    `json:"_id" bson:"_id"` // UUID as string
	Name        string    `json:"name" bson:"name"`
	Price       float64   `json:"price" bson:"price"`
	Image       string    `json:"image" bson:"image"` // relative URL under /uploads
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// ProductCSV represents a product row as read from a catalog import file
// with the columns name, price, image and description.
type ProductCSV struct {
	Name        string
	Price       string // parsed and validated by the product service
	Image       string
	Description string
}

// ProductSummary is the part of a product shown next to an order line.
type ProductSummary struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
