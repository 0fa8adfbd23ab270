// internal/domain/notification/entity.go
package notification

import "time"

// Type is the closed set of notification kinds
type Type string

const (
	TypeOrderUpdate Type = "ORDER_UPDATE"
	TypePromotion   Type = "PROMOTION"
	TypeReviewReply Type = "REVIEW_REPLY"
	TypeStockAlert  Type = "STOCK_ALERT"
	TypeSystem      Type = "SYSTEM"
)

// Types lists every notification type
var Types = []Type{TypeOrderUpdate, TypePromotion, TypeReviewReply, TypeStockAlert, TypeSystem}

// Valid reports whether t is a known type
func (t Type) Valid() bool {
	switch t {
	case TypeOrderUpdate, TypePromotion, TypeReviewReply, TypeStockAlert, TypeSystem:
		return true
	}
	return false
}

// Label returns the short display name
func (t Type) Label() string {
	switch t {
	case TypeOrderUpdate:
		return "Order"
	case TypePromotion:
		return "Promo"
	case TypeReviewReply:
		return "Review"
	case TypeStockAlert:
		return "Stock"
	case TypeSystem:
		return "System"
	}
	return "Other"
}

// Notification is an in-app message for the signed-in user
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      Type      `json:"type"`
	IsRead    bool      `json:"isRead"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Key implements store.Entity
func (n Notification) Key() string { return n.ID }

// CountUnread counts notifications with IsRead false
func CountUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// ListResult is a page of notifications
type ListResult struct {
	Items      []Notification
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
