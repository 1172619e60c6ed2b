package domain

import (
	"strings"
	"time"
)

// Category is one of the fixed jewelry categories the store sells
type Category string

const (
	CategoryRings     Category = "rings"
	CategoryNecklaces Category = "necklaces"
	CategoryEarrings  Category = "earrings"
	CategoryBracelets Category = "bracelets"
)

// Categories lists every valid category in display order
var Categories = []Category{CategoryRings, CategoryNecklaces, CategoryEarrings, CategoryBracelets}

// ParseCategory accepts singular or plural, any case ("Ring", "necklaces").
// Returns false for anything outside the fixed set.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	for _, c := range Categories {
		if s == string(c) || s == strings.TrimSuffix(string(c), "s") {
			return c, true
		}
	}
	return "", false
}

// CatalogItem is a single product in the catalog. Read-only for the AI layer.
type CatalogItem struct {
	ID             string            `json:"_id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	Price          float64           `json:"price"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Featured       bool              `json:"featured"`
	InStock        bool              `json:"inStock"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt,omitempty"`
}

// Spec returns a specification value or "" when absent
func (c CatalogItem) Spec(key string) string {
	if c.Specifications == nil {
		return ""
	}
	return c.Specifications[key]
}

// ProductFilter mirrors the query parameters of the product listing endpoint
type ProductFilter struct {
	Category Category `form:"category"`
	Featured bool     `form:"featured"`
	MinPrice float64  `form:"minPrice"`
	MaxPrice float64  `form:"maxPrice"`
	Search   string   `form:"search"`
	Limit    int      `form:"limit"`
}

// DefaultProductLimit is the page size used when a filter does not set one
const DefaultProductLimit = 20

// EffectiveLimit returns the filter limit, defaulting to DefaultProductLimit
func (f ProductFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultProductLimit
	}
	return f.Limit
}
