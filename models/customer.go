package models

import "time"

// Customer is a registered storefront customer. Email is unique.
type Customer struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone" bson:"phone"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// CustomerSummary is the part of a customer shown on an order listing.
type CustomerSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
