// internal/infrastructure/database/postgres/notification.go
package postgres

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-client/internal/domain/notification"
)

// Notifications returns one page of the user's notifications, newest first
func (r *Repository) Notifications(ctx context.Context, userID string, page Page) ([]notification.Notification, int64, error) {
	var rows []Notification
	q := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	total, err := paginate(q, page, "created_at DESC, id DESC", &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	items := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, total, nil
}

// MarkNotificationRead flags one notification as read
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %w", ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of the user as read
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteNotification removes one of the user's notifications
func (r *Repository) DeleteNotification(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %w", ErrNotFound)
	}
	return nil
}
