// internal/domain/order/query.go
package order

import (
	"sort"
	"strings"
)

// SortField selects the ordering of the orders page
type SortField string

const (
	SortByDate  SortField = "date"
	SortByTotal SortField = "total"
)

// Query is what the orders page lets the user narrow and order by
type Query struct {
	Search     string
	Status     Status
	Sort       SortField
	Descending bool
}

// Search keeps orders whose number, store, customer or item names contain term
func Search(orders []Order, term string) []Order {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return orders
	}
	var out []Order
	for _, o := range orders {
		if matches(o, term) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o Order, term string) bool {
	fields := []string{o.OrderNumber, o.StoreName, o.CustomerName, o.TrackingNumber}
	for _, item := range o.Items {
		fields = append(fields, item.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterByStatus keeps orders with status; an empty status keeps everything
func FilterByStatus(orders []Order, status Status) []Order {
	if status == "" {
		return orders
	}
	var out []Order
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// Sort returns a sorted copy. Ties keep their original order.
func Sort(orders []Order, field SortField, descending bool) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)

	less := func(a, b Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	if field == SortByTotal {
		less = func(a, b Order) bool { return a.TotalAmount < b.TotalAmount }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Apply runs search, status filter and sort in that order
func (q Query) Apply(orders []Order) []Order {
	out := Search(orders, q.Search)
	out = FilterByStatus(out, q.Status)
	field := q.Sort
	if field == "" {
		field = SortByDate
	}
	return Sort(out, field, q.Descending)
}
