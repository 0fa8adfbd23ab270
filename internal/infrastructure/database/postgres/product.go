// internal/infrastructure/database/postgres/product.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/storefront-client/internal/domain/product"
	"gorm.io/gorm"
)

// productSortColumns maps the API's sortBy values to columns
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
}

// productOrder builds a safe ORDER BY clause from the query
func productOrder(q product.Query) string {
	column, ok := productSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction + ", id ASC"
}

// Products returns one page of the catalog matching q
func (r *Repository) Products(ctx context.Context, q product.Query) ([]product.Product, int64, error) {
	db := r.db.WithContext(ctx).Model(&Product{})
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}
	if q.Status != "" {
		db = db.Where("status = ?", string(q.Status))
	}
	if q.StoreID != "" {
		db = db.Where("store_id = ?", q.StoreID)
	}

	var rows []Product
	total, err := paginate(db, NewPage(q.Page, q.Limit), productOrder(q), &rows, "Store", "Variants")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]product.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, total, nil
}

// Product loads one product with its variants
func (r *Repository) Product(ctx context.Context, id string) (*product.Product, error) {
	var row Product
	if err := r.db.WithContext(ctx).Preload("Store").Preload("Variants").First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product")
	}
	out := row.toDomain()
	return &out, nil
}

// UpdateProduct applies a partial update to a product the scope manages
func (r *Repository) UpdateProduct(ctx context.Context, scope Scope, id string, req product.UpdateRequest) (*product.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Product
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "product")
		}
		if !scope.OwnsStore(row.StoreID) {
			return fmt.Errorf("%w: product belongs to another store", ErrForbidden)
		}

		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.CompareAtPrice != nil {
			updates["compare_at_price"] = *req.CompareAtPrice
		}
		if req.Stock != nil {
			updates["stock"] = *req.Stock
		}
		if req.Status != nil {
			updates["status"] = string(*req.Status)
		}
		return tx.Model(&row).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Product(ctx, id)
}

// DeleteProduct removes a product the scope manages
func (r *Repository) DeleteProduct(ctx context.Context, scope Scope, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Product
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "product")
		}
		if !scope.OwnsStore(row.StoreID) {
			return fmt.Errorf("%w: product belongs to another store", ErrForbidden)
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductVariant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
		return tx.Delete(&row).Error
	})
}
