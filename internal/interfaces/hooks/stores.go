// internal/interfaces/hooks/stores.go
package hooks

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/domain/review"
)

// UseCart binds the cart store
func UseCart(ctx context.Context, session Session, s *cart.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "cart"))
}

// UseNotifications binds the notification store
func UseNotifications(ctx context.Context, session Session, s *notification.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "notifications"))
}

// UseOrders binds the order store
func UseOrders(ctx context.Context, session Session, s *order.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "orders"))
}

// UseReviews binds the review store
func UseReviews(ctx context.Context, session Session, s *review.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "reviews"))
}

// UseProducts binds the product store
func UseProducts(ctx context.Context, session Session, s *product.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "products"))
}

// UsePromotions binds the promotion store
func UsePromotions(ctx context.Context, session Session, s *promotion.Store, logger logrus.FieldLogger) (*Binding, error) {
	return Mount(ctx, session, s, logger.WithField("hook", "promotions"))
}
