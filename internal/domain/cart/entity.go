// internal/domain/cart/entity.go
package cart

// ProductSummary is the product data embedded in a variant
type ProductSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ImageURL  string `json:"imageUrl,omitempty"`
	StoreID   string `json:"storeId,omitempty"`
	StoreName string `json:"storeName,omitempty"`
}

// Variant is the purchasable SKU a cart item points at. Prices are in cents.
type Variant struct {
	ID             string         `json:"id"`
	Price          int64          `json:"price"`
	CompareAtPrice int64          `json:"compareAtPrice,omitempty"`
	Size           string         `json:"size,omitempty"`
	Color          string         `json:"color,omitempty"`
	Stock          int            `json:"stock"`
	Product        ProductSummary `json:"product"`
}

// CartItem is one line of the cart. Quantity is always at least 1.
type CartItem struct {
	ID        string  `json:"id"`
	VariantID string  `json:"variantId"`
	Variant   Variant `json:"variant"`
	Quantity  int     `json:"quantity"`
}

// Key implements store.Entity
func (i CartItem) Key() string { return i.ID }

// LineTotal returns price times quantity
func (i CartItem) LineTotal() int64 {
	return i.Variant.Price * int64(i.Quantity)
}

// MaxQuantity returns the stock ceiling, or 0 when stock is not tracked
func (i CartItem) MaxQuantity() int {
	return i.Variant.Stock
}

// Cart is the wire shape of GET /cart
type Cart struct {
	Items []CartItem `json:"items"`
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount         int   `json:"itemCount"`     // Number of unique items
	TotalQuantity     int   `json:"totalQuantity"` // Sum of all quantities
	Subtotal          int64 `json:"subtotal"`
	CompareAtSubtotal int64 `json:"compareAtSubtotal"`
	Savings           int64 `json:"savings"`
}

// CalculateTotals derives totals from items
func CalculateTotals(items []CartItem) Totals {
	var t Totals
	for _, item := range items {
		t.ItemCount++
		t.TotalQuantity += item.Quantity
		t.Subtotal += item.LineTotal()

		compareAt := item.Variant.CompareAtPrice
		if compareAt < item.Variant.Price {
			compareAt = item.Variant.Price
		}
		t.CompareAtSubtotal += compareAt * int64(item.Quantity)
	}
	t.Savings = t.CompareAtSubtotal - t.Subtotal
	return t
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// UpdateItemRequest is the body of PATCH /cart/items/:variantId
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// State is the cart store snapshot
type State struct {
	Items   []CartItem
	Loaded  bool
	Loading bool
	// Stale is set when Items came from a saved snapshot instead of the API
	Stale bool
}
