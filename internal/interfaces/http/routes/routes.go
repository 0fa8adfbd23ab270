// internal/interfaces/http/routes/routes.go
package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/auth"
	"github.com/your-org/storefront-client/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
	authtoken "github.com/your-org/storefront-client/internal/pkg/auth"
)

// Repository is everything the sandbox handlers read and write
type Repository interface {
	handlers.UserRepository
	handlers.CartRepository
	handlers.NotificationRepository
	handlers.OrderRepository
	handlers.ProductRepository
	handlers.ReviewRepository
	handlers.VoucherRepository
}

// Tokens issues and validates access tokens
type Tokens interface {
	handlers.TokenIssuer
	middleware.TokenValidator
}

// Dependencies wires the route handlers
type Dependencies struct {
	Repo      Repository
	Tokens    Tokens
	Passwords handlers.PasswordVerifier
	Invoices  handlers.InvoiceRenderer
	// Idempotency stores replayable mutation responses. Nil disables replay.
	Idempotency    middleware.KeyValue
	IdempotencyTTL time.Duration
	Logger         logrus.FieldLogger
}

var staffRoles = []auth.Role{auth.RoleStoreOwner, auth.RoleAdmin, auth.RoleSuperAdmin}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Repo, deps.Tokens, deps.Passwords, deps.Logger)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)

		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/me", authHandler.Me)
		}
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, deps Dependencies) {
	productHandler := handlers.NewProductHandler(deps.Repo, deps.Logger)

	products := rg.Group("/products")
	{
		public := products.Group("")
		public.Use(middleware.OptionalAuthMiddleware(deps.Tokens))
		{
			public.GET("", productHandler.GetProducts)
			public.GET("/:id", productHandler.GetProduct)
		}

		staff := products.Group("")
		staff.Use(middleware.AuthMiddleware(deps.Tokens), middleware.RequireRole(staffRoles...), idempotent(deps))
		{
			staff.PATCH("/:id", productHandler.UpdateProduct)
			staff.DELETE("/:id", productHandler.DeleteProduct)
		}
	}
}

// SetupCartRoutes sets up the signed-in customer's cart routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Repo)

	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(deps.Tokens), idempotent(deps))
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PATCH("/items/:variantId", cartHandler.UpdateItem)
		cart.DELETE("/items/:variantId", cartHandler.RemoveItem)
	}
}

// SetupOrderRoutes sets up order and invoice routes
func SetupOrderRoutes(rg *gin.RouterGroup, deps Dependencies) {
	orderHandler := handlers.NewOrderHandler(deps.Repo, deps.Logger)
	invoiceHandler := handlers.NewInvoiceHandler(deps.Repo, deps.Invoices, deps.Logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/invoice", invoiceHandler.GenerateInvoice)
		orders.GET("/:id/invoice/html", invoiceHandler.PreviewInvoice)
		orders.PATCH("/:id/status", middleware.RequireRole(staffRoles...), idempotent(deps), orderHandler.UpdateStatus)
	}
}

// SetupNotificationRoutes sets up notification routes
func SetupNotificationRoutes(rg *gin.RouterGroup, deps Dependencies) {
	notificationHandler := handlers.NewNotificationHandler(deps.Repo)

	notifications := rg.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(deps.Tokens), idempotent(deps))
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		notifications.DELETE("/:id", notificationHandler.Delete)
	}
}

// SetupReviewRoutes sets up review routes
func SetupReviewRoutes(rg *gin.RouterGroup, deps Dependencies) {
	reviewHandler := handlers.NewReviewHandler(deps.Repo, deps.Logger)

	reviews := rg.Group("/reviews")
	{
		reviews.GET("", middleware.OptionalAuthMiddleware(deps.Tokens), reviewHandler.GetReviews)

		protected := reviews.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens), idempotent(deps))
		{
			protected.PATCH("/:id", reviewHandler.EditReview)
			protected.DELETE("/:id", reviewHandler.DeleteReview)
			protected.POST("/:id/reply", middleware.RequireRole(staffRoles...), reviewHandler.Reply)
		}
	}
}

// SetupVoucherRoutes sets up voucher routes
func SetupVoucherRoutes(rg *gin.RouterGroup, deps Dependencies) {
	voucherHandler := handlers.NewVoucherHandler(deps.Repo, deps.Logger)

	vouchers := rg.Group("/vouchers")
	{
		vouchers.GET("", voucherHandler.GetVouchers)
		vouchers.DELETE("/:id",
			middleware.AuthMiddleware(deps.Tokens),
			middleware.RequireRole(staffRoles...),
			idempotent(deps),
			voucherHandler.DeleteVoucher,
		)
	}
}

// SetupRoutes sets up all sandbox API routes
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	SetupAuthRoutes(rg, deps)
	SetupProductRoutes(rg, deps)
	SetupCartRoutes(rg, deps)
	SetupOrderRoutes(rg, deps)
	SetupNotificationRoutes(rg, deps)
	SetupReviewRoutes(rg, deps)
	SetupVoucherRoutes(rg, deps)
}

func idempotent(deps Dependencies) gin.HandlerFunc {
	return middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Logger)
}

var _ Tokens = (*authtoken.JWTManager)(nil)
