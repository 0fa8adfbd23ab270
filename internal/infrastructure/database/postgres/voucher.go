// internal/infrastructure/database/postgres/voucher.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/storefront-client/internal/domain/promotion"
	"gorm.io/gorm"
)

// Vouchers returns one page of vouchers matching f, newest first
func (r *Repository) Vouchers(ctx context.Context, f promotion.Filter) ([]promotion.Voucher, int64, error) {
	q := r.db.WithContext(ctx).Model(&Voucher{})
	if f.StoreID != "" {
		q = q.Where("store_id = ?", f.StoreID)
	}
	if f.ActiveOnly {
		now := time.Now().UTC()
		q = q.Where("starts_at <= ? AND (ends_at IS NULL OR ends_at > ?)", now, now).
			Where("usage_limit = 0 OR used_count < usage_limit")
	}

	var rows []Voucher
	total, err := paginate(q, NewPage(f.Page, f.Limit), "created_at DESC, id DESC", &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vouchers: %w", err)
	}

	vouchers := make([]promotion.Voucher, 0, len(rows))
	for _, row := range rows {
		vouchers = append(vouchers, row.toDomain())
	}
	return vouchers, total, nil
}

// DeleteVoucher removes a voucher. Marketplace-wide vouchers are admin only.
func (r *Repository) DeleteVoucher(ctx context.Context, scope Scope, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Voucher
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "voucher")
		}
		if !scope.OwnsStore(row.StoreID) {
			return fmt.Errorf("%w: voucher belongs to another store", ErrForbidden)
		}
		return tx.Delete(&row).Error
	})
}
