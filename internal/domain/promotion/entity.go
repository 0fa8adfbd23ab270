// internal/domain/promotion/entity.go
package promotion

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Type is how a voucher discounts an order
type Type string

const (
	TypePercentage   Type = "PERCENTAGE"
	TypeFixedAmount  Type = "FIXED_AMOUNT"
	TypeFreeShipping Type = "FREE_SHIPPING"
)

// Valid reports whether t is a known voucher type
func (t Type) Valid() bool {
	switch t {
	case TypePercentage, TypeFixedAmount, TypeFreeShipping:
		return true
	}
	return false
}

// Label returns the dashboard wording
func (t Type) Label() string {
	switch t {
	case TypePercentage:
		return "Percentage"
	case TypeFixedAmount:
		return "Fixed amount"
	case TypeFreeShipping:
		return "Free shipping"
	}
	return string(t)
}

var (
	// ErrBelowMinSpend is returned when the subtotal is below the voucher minimum
	ErrBelowMinSpend = errors.New("minimum spend not reached")
	// ErrVoucherInactive is returned outside the voucher's validity window
	ErrVoucherInactive = errors.New("voucher is not active")
	// ErrVoucherExhausted is returned once the usage limit is used up
	ErrVoucherExhausted = errors.New("voucher usage limit reached")
)

// Voucher represents a store or platform discount code
type Voucher struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Type        Type       `json:"type"`
	Value       int64      `json:"value"`                 // Percent for PERCENTAGE, cents for FIXED_AMOUNT
	MinSpend    int64      `json:"minSpend"`              // Minimum subtotal in cents
	MaxDiscount int64      `json:"maxDiscount,omitempty"` // Cap for PERCENTAGE, 0 means none
	UsageLimit  int        `json:"usageLimit,omitempty"`  // 0 means unlimited
	UsedCount   int        `json:"usedCount"`
	StoreID     string     `json:"storeId,omitempty"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
}

// Key implements store.Entity
func (v Voucher) Key() string { return v.ID }

// Active reports whether now falls in the validity window
func (v Voucher) Active(now time.Time) bool {
	if now.Before(v.StartsAt) {
		return false
	}
	return v.EndsAt == nil || now.Before(*v.EndsAt)
}

// Exhausted reports whether the usage limit is used up
func (v Voucher) Exhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

// Remaining returns the uses left, or -1 when unlimited
func (v Voucher) Remaining() int {
	if v.UsageLimit == 0 {
		return -1
	}
	if v.Exhausted() {
		return 0
	}
	return v.UsageLimit - v.UsedCount
}

// Discount previews the discount on subtotal in cents. The server computes
// the real discount at checkout; this only drives the dashboard preview.
// Free shipping vouchers discount nothing from the subtotal.
func (v Voucher) Discount(subtotal int64, now time.Time) (int64, error) {
	if !v.Active(now) {
		return 0, ErrVoucherInactive
	}
	if v.Exhausted() {
		return 0, ErrVoucherExhausted
	}
	if subtotal < v.MinSpend {
		return 0, fmt.Errorf("%w: spend %d more", ErrBelowMinSpend, v.MinSpend-subtotal)
	}

	var amount int64
	switch v.Type {
	case TypePercentage:
		amount = subtotal * v.Value / 100
		if v.MaxDiscount > 0 && amount > v.MaxDiscount {
			amount = v.MaxDiscount
		}
	case TypeFixedAmount:
		amount = v.Value
	}
	if amount > subtotal {
		amount = subtotal
	}
	return amount, nil
}

// Describe returns a one-line summary of the voucher's value
func (v Voucher) Describe() string {
	switch v.Type {
	case TypePercentage:
		if v.MaxDiscount > 0 {
			return fmt.Sprintf("%d%% off, up to %d.%02d", v.Value, v.MaxDiscount/100, v.MaxDiscount%100)
		}
		return fmt.Sprintf("%d%% off", v.Value)
	case TypeFixedAmount:
		return fmt.Sprintf("%d.%02d off", v.Value/100, v.Value%100)
	case TypeFreeShipping:
		return "Free shipping"
	}
	return string(v.Type)
}

// Filter narrows GET /vouchers
type Filter struct {
	StoreID    string
	ActiveOnly bool
	Page       int
	Limit      int
}

// Values encodes f as URL query parameters
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.StoreID != "" {
		v.Set("storeId", f.StoreID)
	}
	if f.ActiveOnly {
		v.Set("active", "true")
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// ListResult is one page of vouchers
type ListResult struct {
	Vouchers   []Voucher
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
