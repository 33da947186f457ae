package models

import "time"

// OrderItem is one line of an order: a product reference and a quantity.
type OrderItem struct {
	Product  string `json:"product" bson:"product"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// Order is immutable once stored. Customer and Items[].Product are
// non-owning references.
type Order struct {
	ID        string      `json:"_id" bson:"_id"`
	Customer  string      `json:"customer" bson:"customer"`
	Items     []OrderItem `json:"items" bson:"items"`
	Total     float64     `json:"total" bson:"total"`
	Tax       float64     `json:"tax" bson:"tax"`
	Discount  float64     `json:"discount" bson:"discount"`
	Shipping  float64     `json:"shipping" bson:"shipping"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}

// OrderItemView is an order line with its product expanded. ProductDetails
// is nil when the product no longer exists.
type OrderItemView struct {
	OrderItem
	ProductDetails *ProductSummary `json:"productDetails"`
}

// OrderView is an order as returned by listings.
type OrderView struct {
	ID              string           `json:"_id"`
	Customer        string           `json:"customer"`
	CustomerDetails *CustomerSummary `json:"customerDetails"`
	Items           []OrderItemView  `json:"items"`
	Total           float64          `json:"total"`
	Tax             float64          `json:"tax"`
	Discount        float64          `json:"discount"`
	Shipping        float64          `json:"shipping"`
	CreatedAt       time.Time        `json:"createdAt"`
}
