// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"
)

// Status represents the order status. The server owns every transition.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

// ParseStatus parses a status, case-sensitively
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Label returns the customer-facing wording
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Awaiting payment"
	case StatusPaid:
		return "Paid"
	case StatusShipped:
		return "On its way"
	case StatusDelivered:
		return "Delivered"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	case StatusRefunded:
		return "Refunded"
	}
	return string(s)
}

// IsTerminal reports whether no further change is expected
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Item is a purchased line
type Item struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	VariantID    string `json:"variantId,omitempty"`
	Name         string `json:"name"`
	VariantTitle string `json:"variantTitle,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"` // Price per unit in cents
}

// Total returns price times quantity
func (i Item) Total() int64 {
	return i.Price * int64(i.Quantity)
}

// Order is a read-only projection of a server order
type Order struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"orderNumber"`
	Status         Status    `json:"status"`
	TotalAmount    int64     `json:"totalAmount"`
	Currency       string    `json:"currency,omitempty"`
	Items          []Item    `json:"items"`
	StoreName      string    `json:"storeName,omitempty"`
	CustomerName   string    `json:"customerName,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Key implements store.Entity
func (o Order) Key() string { return o.ID }

// FormattedTotal returns the total in major units
func (o Order) FormattedTotal() string {
	currency := o.Currency
	if currency == "" {
		currency = "USD"
	}
	return FormatAmount(o.TotalAmount, currency)
}

// FormatAmount renders cents as a decimal amount
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, currency, cents/100, cents%100)
}

// Filter narrows GET /orders
type Filter struct {
	Status Status
	Page   int
	Limit  int
}

// StatusChangeRequest is the body of PATCH /orders/:id/status
type StatusChangeRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}
