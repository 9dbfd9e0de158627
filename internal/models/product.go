// Package models contains data structures for the application's domain models.
package models

import "time"

// ProductCategory classifies a marketplace listing.
type ProductCategory string

const (
	ProductCategoryElectronics ProductCategory = "electronics"
	ProductCategoryFashion     ProductCategory = "fashion"
	ProductCategoryHome        ProductCategory = "home"
	ProductCategorySports      ProductCategory = "sports"
	ProductCategoryBooks       ProductCategory = "books"
	ProductCategoryVehicles    ProductCategory = "vehicles"
	ProductCategoryOther       ProductCategory = "other"
)

// ProductCondition describes the wear state of a listed item.
type ProductCondition string

const (
	ProductConditionNew      ProductCondition = "new"
	ProductConditionLikeNew  ProductCondition = "like_new"
	ProductConditionGood     ProductCondition = "good"
	ProductConditionFair     ProductCondition = "fair"
	ProductConditionForParts ProductCondition = "for_parts"
)

// ProductStatus is the sale state of a listing.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusReserved  ProductStatus = "reserved"
)

// ValidProductCategory reports whether c is a known category.
func ValidProductCategory(c ProductCategory) bool {
	switch c {
	case ProductCategoryElectronics, ProductCategoryFashion, ProductCategoryHome,
		ProductCategorySports, ProductCategoryBooks, ProductCategoryVehicles, ProductCategoryOther:
		return true
	}
	return false
}

// ValidProductCondition reports whether c is a known condition.
func ValidProductCondition(c ProductCondition) bool {
	switch c {
	case ProductConditionNew, ProductConditionLikeNew, ProductConditionGood,
		ProductConditionFair, ProductConditionForParts:
		return true
	}
	return false
}

// ValidProductStatus reports whether s is a known status.
func ValidProductStatus(s ProductStatus) bool {
	switch s {
	case ProductStatusAvailable, ProductStatusSold, ProductStatusReserved:
		return true
	}
	return false
}

// Product represents a marketplace listing.
type Product struct {
	ID          string           `json:"id"`
	Seller      UserSnapshot     `json:"seller"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Category    ProductCategory  `json:"category"`
	Condition   ProductCondition `json:"condition"`
	Status      ProductStatus    `json:"status"`
	Images      []string         `json:"images,omitempty"`
	Location    string           `json:"location,omitempty"`
	Likes       int64            `json:"likes"`
	CreatedAt   time.Time        `json:"created_at"`
}
