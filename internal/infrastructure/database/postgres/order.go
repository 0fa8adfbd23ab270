// internal/infrastructure/database/postgres/order.go
package postgres

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderTransitions lists the statuses an order may move to from each status
var orderTransitions = map[order.Status][]order.Status{
	order.StatusPending:   {order.StatusPaid, order.StatusCancelled},
	order.StatusPaid:      {order.StatusShipped, order.StatusCancelled, order.StatusRefunded},
	order.StatusShipped:   {order.StatusDelivered},
	order.StatusDelivered: {order.StatusCompleted, order.StatusRefunded},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to order.Status) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (r *Repository) scopedOrders(ctx context.Context, scope Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Order{})
	switch {
	case scope.Admin():
	case scope.Role == auth.RoleStoreOwner:
		q = q.Where("store_id = ?", scope.StoreID)
	default:
		q = q.Where("user_id = ?", scope.UserID)
	}
	return q
}

// Orders returns one page of the orders visible to scope, newest first
func (r *Repository) Orders(ctx context.Context, scope Scope, status order.Status, page Page) ([]order.Order, int64, error) {
	q := r.scopedOrders(ctx, scope)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []Order
	total, err := paginate(q, page, "created_at DESC, id DESC", &rows, "Items", "Store", "User")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]order.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}
	return orders, total, nil
}

// Order loads one order visible to scope
func (r *Repository) Order(ctx context.Context, scope Scope, id string) (*order.Order, error) {
	var row Order
	err := r.scopedOrders(ctx, scope).
		Preload("Items").Preload("Store").Preload("User").
		First(&row, "orders.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "order")
	}
	out := row.toDomain()
	return &out, nil
}

// ChangeOrderStatus moves an order along its lifecycle, records the change
// and notifies the customer
func (r *Repository) ChangeOrderStatus(ctx context.Context, scope Scope, id string, req order.StatusChangeRequest) (*order.Order, error) {
	if !req.Status.Valid() {
		return nil, invalidf("unknown status %q", req.Status)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "order")
		}
		if !scope.OwnsStore(row.StoreID) {
			if row.UserID == scope.UserID {
				return fmt.Errorf("%w: only the store can change an order's status", ErrForbidden)
			}
			return fmt.Errorf("order %w", ErrNotFound)
		}

		from := order.Status(row.Status)
		if !CanTransition(from, req.Status) {
			return conflictf("cannot move an order from %s to %s", from, req.Status)
		}

		if err := tx.Model(&row).Update("status", string(req.Status)).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if err := tx.Create(&OrderStatusHistory{
			OrderID:   row.ID,
			From:      string(from),
			To:        string(req.Status),
			Note:      req.Note,
			ChangedBy: scope.UserID,
		}).Error; err != nil {
			return fmt.Errorf("failed to record status change: %w", err)
		}

		return r.notify(tx, row.UserID, Notification{
			Title: fmt.Sprintf("Order %s: %s", row.OrderNumber, req.Status.Label()),
			Body:  req.Note,
			Type:  string(notification.TypeOrderUpdate),
			Link:  "/orders/" + row.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return r.Order(ctx, Scope{Role: auth.RoleAdmin}, id)
}
