package models

import "time"

// Product is a snackshop item.
type Product struct {
	ID            string    `bson:"id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description" json:"description"`
	Price         float64   `bson:"price" json:"price"`
	Category      string    `bson:"category" json:"category"`
	StockQuantity int       `bson:"stock_quantity" json:"stock_quantity"`
	IsActive      bool      `bson:"is_active" json:"is_active"`
	ImageURL      string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	InStock       bool      `bson:"-" json:"in_stock"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Available reports whether the product can be sold at all.
func (p *Product) Available() bool {
	return p.IsActive && p.StockQuantity > 0
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category string
	InStock  *bool
}
