// internal/domain/product/entity.go
package product

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Status is the catalog visibility of a product
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDraft    Status = "DRAFT"
	StatusArchived Status = "ARCHIVED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDraft, StatusArchived:
		return true
	}
	return false
}

// ParseStatus parses a status, accepting any case
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown product status %q", s)
	}
	return st, nil
}

// Variant represents a purchasable option of a product (size, color)
type Variant struct {
	ID             string `json:"id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Size           string `json:"size,omitempty"`
	Color          string `json:"color,omitempty"`
	Price          int64  `json:"price"` // Price in cents
	CompareAtPrice int64  `json:"compareAtPrice,omitempty"`
	Stock          int    `json:"stock"`
}

// Product represents a product as the store and admin dashboards see it
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description,omitempty"`
	Price          int64     `json:"price"`                    // Price in cents
	CompareAtPrice int64     `json:"compareAtPrice,omitempty"` // Original price for discounts
	Stock          int       `json:"stock"`
	Status         Status    `json:"status"`
	StoreID        string    `json:"storeId"`
	StoreName      string    `json:"storeName,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Key implements store.Entity
func (p Product) Key() string { return p.ID }

// TotalStock sums variant stock, falling back to the product stock
func (p Product) TotalStock() int {
	if len(p.Variants) == 0 {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// OnSale reports whether the product is discounted
func (p Product) OnSale() bool {
	return p.CompareAtPrice > p.Price
}

// LowStock reports whether stock is at or below threshold
func (p Product) LowStock(threshold int) bool {
	return p.TotalStock() <= threshold
}

var (
	// ErrEmptyUpdate is returned when an update changes nothing
	ErrEmptyUpdate = errors.New("update has no fields")
	// ErrInvalidUpdate wraps field validation failures
	ErrInvalidUpdate = errors.New("invalid product update")
)

// UpdateRequest is the body of PATCH /products/:id. Nil fields are left alone.
type UpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Price          *int64  `json:"price,omitempty"`
	CompareAtPrice *int64  `json:"compareAtPrice,omitempty"`
	Stock          *int    `json:"stock,omitempty"`
	Status         *Status `json:"status,omitempty"`
}

// Validate checks the fields that are set
func (r UpdateRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.Price == nil &&
		r.CompareAtPrice == nil && r.Stock == nil && r.Status == nil {
		return ErrEmptyUpdate
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUpdate)
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidUpdate)
	}
	if r.CompareAtPrice != nil && *r.CompareAtPrice < 0 {
		return fmt.Errorf("%w: compare-at price cannot be negative", ErrInvalidUpdate)
	}
	if r.Stock != nil && *r.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidUpdate)
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, *r.Status)
	}
	return nil
}

// ApplyTo returns p with the set fields overwritten
func (r UpdateRequest) ApplyTo(p Product) Product {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.CompareAtPrice != nil {
		p.CompareAtPrice = *r.CompareAtPrice
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	return p
}

// Query narrows GET /products
type Query struct {
	Search    string
	Status    Status
	StoreID   string
	SortBy    string // name, price, created_at
	SortOrder string // asc, desc
	Page      int
	Limit     int
}

// Values encodes q as URL query parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.StoreID != "" {
		v.Set("storeId", q.StoreID)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// sameFilter reports whether two queries select the same collection
func (q Query) sameFilter(o Query) bool {
	return q.Search == o.Search && q.Status == o.Status && q.StoreID == o.StoreID &&
		q.SortBy == o.SortBy && q.SortOrder == o.SortOrder
}

// ListResult is one page of products
type ListResult struct {
	Products   []Product
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
