// internal/infrastructure/database/postgres/models.go
package postgres

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/domain/review"
	"gorm.io/gorm"
)

// Base carries the string primary key and timestamps shared by every table
type Base struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// BeforeCreate assigns a random id when none was set
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// User is a sandbox account
type User struct {
	Base
	Name         string `gorm:"not null;size:255"`
	Email        string `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string `gorm:"not null;size:255"`
	Role         string `gorm:"not null;size:20;default:CUSTOMER"`
	StoreID      string `gorm:"size:36;index"`
}

// BeforeSave keeps emails lowercase
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// Account returns the wire shape of the user
func (u User) Account() auth.User {
	return auth.User{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    auth.Role(u.Role),
		StoreID: u.StoreID,
	}
}

// Store is a seller on the marketplace
type Store struct {
	Base
	Name    string `gorm:"not null;size:255"`
	Slug    string `gorm:"uniqueIndex;not null;size:255"`
	OwnerID string `gorm:"size:36;index"`
}

// Product is a catalog entry owned by a store
type Product struct {
	Base
	StoreID        string `gorm:"not null;size:36;index"`
	Name           string `gorm:"not null;size:255"`
	Slug           string `gorm:"uniqueIndex;not null;size:255"`
	Description    string `gorm:"type:text"`
	ImageURL       string `gorm:"size:500"`
	Price          int64  `gorm:"not null"` // Price in cents
	CompareAtPrice int64  // Original price for discounts
	Stock          int    `gorm:"default:0"`
	Status         string `gorm:"not null;size:20;default:ACTIVE;index"`

	// Relationships
	Store    Store            `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (p Product) toDomain() product.Product {
	out := product.Product{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Stock:          p.Stock,
		Status:         product.Status(p.Status),
		StoreID:        p.StoreID,
		StoreName:      p.Store.Name,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, product.Variant{
			ID:             v.ID,
			SKU:            v.SKU,
			Name:           v.Name,
			Size:           v.Size,
			Color:          v.Color,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
			Stock:          v.Stock,
		})
	}
	return out
}

// ProductVariant is a purchasable SKU of a product
type ProductVariant struct {
	Base
	ProductID      string `gorm:"not null;size:36;index"`
	SKU            string `gorm:"uniqueIndex;not null;size:100"`
	Name           string `gorm:"size:255"`
	Size           string `gorm:"size:50"`
	Color          string `gorm:"size:50"`
	Price          int64  `gorm:"not null"`
	CompareAtPrice int64
	Stock          int `gorm:"default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Title is the variant's display name, e.g. "M / Black"
func (v ProductVariant) Title() string {
	var parts []string
	for _, s := range []string{v.Size, v.Color} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return v.Name
	}
	return strings.Join(parts, " / ")
}

// CartItem is one line of a user's cart
type CartItem struct {
	Base
	UserID    string `gorm:"not null;size:36;uniqueIndex:idx_cart_items_user_variant"`
	VariantID string `gorm:"not null;size:36;uniqueIndex:idx_cart_items_user_variant"`
	Quantity  int    `gorm:"not null"`

	Variant ProductVariant `gorm:"foreignKey:VariantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (i CartItem) toDomain() cart.CartItem {
	out := cart.CartItem{
		ID:        i.ID,
		VariantID: i.VariantID,
		Quantity:  i.Quantity,
		Variant: cart.Variant{
			ID:             i.Variant.ID,
			Price:          i.Variant.Price,
			CompareAtPrice: i.Variant.CompareAtPrice,
			Size:           i.Variant.Size,
			Color:          i.Variant.Color,
			Stock:          i.Variant.Stock,
		},
	}
	if p := i.Variant.Product; p != nil {
		out.Variant.Product = cart.ProductSummary{
			ID:        p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			ImageURL:  p.ImageURL,
			StoreID:   p.StoreID,
			StoreName: p.Store.Name,
		}
	}
	return out
}

// Order is a placed order. Sandbox orders belong to exactly one store.
type Order struct {
	Base
	OrderNumber    string `gorm:"uniqueIndex;not null;size:50"`
	UserID         string `gorm:"not null;size:36;index"`
	StoreID        string `gorm:"not null;size:36;index"`
	Status         string `gorm:"not null;size:20;index"`
	TotalAmount    int64  `gorm:"not null"`
	Currency       string `gorm:"size:3;default:USD"`
	TrackingNumber string `gorm:"size:100"`

	User    User                 `gorm:"foreignKey:UserID"`
	Store   Store                `gorm:"foreignKey:StoreID"`
	Items   []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	History []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (o Order) toDomain() order.Order {
	out := order.Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         order.Status(o.Status),
		TotalAmount:    o.TotalAmount,
		Currency:       o.Currency,
		StoreName:      o.Store.Name,
		CustomerName:   o.User.Name,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, order.Item{
			ID:           item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Name:         item.Name,
			VariantTitle: item.VariantTitle,
			Quantity:     item.Quantity,
			Price:        item.Price,
		})
	}
	return out
}

// OrderItem is a purchased line, denormalized at order time
type OrderItem struct {
	Base
	OrderID      string `gorm:"not null;size:36;index"`
	ProductID    string `gorm:"size:36;index"`
	VariantID    string `gorm:"size:36"`
	Name         string `gorm:"not null;size:255"`
	VariantTitle string `gorm:"size:255"`
	Quantity     int    `gorm:"not null"`
	Price        int64  `gorm:"not null"`
}

// OrderStatusHistory records every status change of an order
type OrderStatusHistory struct {
	Base
	OrderID   string `gorm:"not null;size:36;index"`
	From      string `gorm:"size:20"`
	To        string `gorm:"not null;size:20"`
	Note      string `gorm:"size:500"`
	ChangedBy string `gorm:"size:36"`
}

// Notification is an in-app message
type Notification struct {
	Base
	UserID string `gorm:"not null;size:36;index"`
	Title  string `gorm:"not null;size:255"`
	Body   string `gorm:"type:text"`
	Type   string `gorm:"not null;size:20"`
	IsRead bool   `gorm:"default:false;index"`
	Link   string `gorm:"size:500"`
}

func (n Notification) toDomain() notification.Notification {
	return notification.Notification{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      notification.Type(n.Type),
		IsRead:    n.IsRead,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

// Review is a customer's rating of a product
type Review struct {
	Base
	ProductID string     `gorm:"not null;size:36;index"`
	UserID    string     `gorm:"not null;size:36;index"`
	Rating    int        `gorm:"not null"`
	Comment   string     `gorm:"type:text"`
	Images    []string   `gorm:"serializer:json;type:text"`
	EditCount int        `gorm:"default:0"`
	ReplyText string     `gorm:"type:text"`
	RepliedAt *time.Time

	Product Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User    User    `gorm:"foreignKey:UserID"`
}

func (r Review) toDomain() review.Review {
	out := review.Review{
		ID:          r.ID,
		ProductID:   r.ProductID,
		ProductName: r.Product.Name,
		StoreID:     r.Product.StoreID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		Images:      r.Images,
		EditCount:   r.EditCount,
		Author:      review.Author{ID: r.UserID, Name: r.User.Name},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.RepliedAt != nil {
		out.Reply = &review.Reply{Text: r.ReplyText, CreatedAt: *r.RepliedAt}
	}
	return out
}

// Voucher is a discount code, store-scoped or marketplace-wide
type Voucher struct {
	Base
	Code        string `gorm:"uniqueIndex;not null;size:50"`
	Type        string `gorm:"not null;size:20"`
	Value       int64  `gorm:"not null"`
	MinSpend    int64
	MaxDiscount int64
	UsageLimit  int
	UsedCount   int       `gorm:"default:0"`
	StoreID     string    `gorm:"size:36;index"`
	StartsAt    time.Time `gorm:"not null"`
	EndsAt      *time.Time
}

func (v Voucher) toDomain() promotion.Voucher {
	return promotion.Voucher{
		ID:          v.ID,
		Code:        v.Code,
		Type:        promotion.Type(v.Type),
		Value:       v.Value,
		MinSpend:    v.MinSpend,
		MaxDiscount: v.MaxDiscount,
		UsageLimit:  v.UsageLimit,
		UsedCount:   v.UsedCount,
		StoreID:     v.StoreID,
		StartsAt:    v.StartsAt,
		EndsAt:      v.EndsAt,
	}
}
