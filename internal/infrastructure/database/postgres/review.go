// internal/infrastructure/database/postgres/review.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/review"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reviews returns one page of reviews matching f, newest first. Mine is
// resolved against scope.
func (r *Repository) Reviews(ctx context.Context, scope Scope, f review.Filter) ([]review.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&Review{})
	if f.ProductID != "" {
		q = q.Where("reviews.product_id = ?", f.ProductID)
	}
	if f.StoreID != "" {
		q = q.Where("reviews.product_id IN (?)",
			r.db.Model(&Product{}).Select("id").Where("store_id = ?", f.StoreID))
	}
	if f.Mine {
		q = q.Where("reviews.user_id = ?", scope.UserID)
	}
	if f.Rating > 0 {
		q = q.Where("reviews.rating = ?", f.Rating)
	}

	var rows []Review
	total, err := paginate(q, NewPage(f.Page, f.Limit), "created_at DESC, id DESC", &rows, "Product", "User")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toDomain())
	}
	return reviews, total, nil
}

func (r *Repository) review(ctx context.Context, id string) (*review.Review, error) {
	var row Review
	if err := r.db.WithContext(ctx).Preload("Product").Preload("User").First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "review")
	}
	out := row.toDomain()
	return &out, nil
}

// EditReview rewrites the author's review and counts the edit. A review can
// be edited at most review.MaxEdits times.
func (r *Repository) EditReview(ctx context.Context, scope Scope, id string, req review.EditRequest) (*review.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalidf("rating must be between 1 and 5")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Review
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "review")
		}
		if row.UserID != scope.UserID {
			return fmt.Errorf("%w: only the author can edit a review", ErrForbidden)
		}
		if row.EditCount >= review.MaxEdits {
			return conflictf("review was already edited %d times", row.EditCount)
		}

		row.Rating = req.Rating
		row.Comment = req.Comment
		row.Images = req.Images
		row.EditCount++
		return tx.Select("rating", "comment", "images", "edit_count", "updated_at").Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return r.review(ctx, id)
}

// ReplyToReview stores the store owner's one reply and notifies the author
func (r *Repository) ReplyToReview(ctx context.Context, scope Scope, id, text string) (*review.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("reply cannot be empty")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Review
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Product").First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "review")
		}
		if !scope.OwnsStore(row.Product.StoreID) {
			return fmt.Errorf("%w: only the store can reply", ErrForbidden)
		}
		if row.RepliedAt != nil {
			return conflictf("review already has a reply")
		}

		now := time.Now().UTC()
		if err := tx.Model(&row).Updates(map[string]any{
			"reply_text": text,
			"replied_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to save reply: %w", err)
		}

		return r.notify(tx, row.UserID, Notification{
			Title: "The store replied to your review of " + row.Product.Name,
			Body:  text,
			Type:  string(notification.TypeReviewReply),
			Link:  "/products/" + row.Product.Slug,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.review(ctx, id)
}

// DeleteReview removes a review. Authors may delete their own, admins any.
func (r *Repository) DeleteReview(ctx context.Context, scope Scope, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Review
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "review")
		}
		if row.UserID != scope.UserID && !scope.Admin() {
			return fmt.Errorf("%w: only the author can delete a review", ErrForbidden)
		}
		return tx.Delete(&row).Error
	})
}
