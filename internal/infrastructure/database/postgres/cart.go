// internal/infrastructure/database/postgres/cart.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-client/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) cartQuery(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variant.Product.Store").
		Where("user_id = ?", userID)
}

// CartItems returns the user's cart lines in the order they were added
func (r *Repository) CartItems(ctx context.Context, userID string) ([]cart.CartItem, error) {
	var rows []CartItem
	if err := r.cartQuery(ctx, userID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items := make([]cart.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

// AddCartItem adds quantity of a variant to the cart, merging with an
// existing line for the same variant
func (r *Repository) AddCartItem(ctx context.Context, userID, variantID string, quantity int) error {
	if quantity < 1 {
		return invalidf("quantity must be at least 1")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variant ProductVariant
		if err := tx.First(&variant, "id = ?", variantID).Error; err != nil {
			return notFound(err, "variant")
		}

		var item CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND variant_id = ?", userID, variantID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = CartItem{UserID: userID, VariantID: variantID}
		case err != nil:
			return fmt.Errorf("failed to load cart item: %w", err)
		}

		item.Quantity += quantity
		if variant.Stock > 0 && item.Quantity > variant.Stock {
			return invalidf("only %d in stock", variant.Stock)
		}
		return tx.Save(&item).Error
	})
}

// SetCartQuantity sets the quantity of the line for variantID
func (r *Repository) SetCartQuantity(ctx context.Context, userID, variantID string, quantity int) (*cart.CartItem, error) {
	if quantity < 1 {
		return nil, invalidf("quantity must be at least 1")
	}

	var item CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Variant").
			Where("user_id = ? AND variant_id = ?", userID, variantID).
			First(&item).Error; err != nil {
			return notFound(err, "cart item")
		}
		if item.Variant.Stock > 0 && quantity > item.Variant.Stock {
			return invalidf("only %d in stock", item.Variant.Stock)
		}
		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}

	if err := r.cartQuery(ctx, userID).First(&item, "id = ?", item.ID).Error; err != nil {
		return nil, notFound(err, "cart item")
	}
	out := item.toDomain()
	return &out, nil
}

// RemoveCartItem deletes the line for variantID
func (r *Repository) RemoveCartItem(ctx context.Context, userID, variantID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Delete(&CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %w", ErrNotFound)
	}
	return nil
}

// ClearCart deletes every line of the user's cart
func (r *Repository) ClearCart(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
