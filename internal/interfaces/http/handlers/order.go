// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/order"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
)

// OrderRepository reads and transitions orders
type OrderRepository interface {
	Orders(ctx context.Context, scope postgres.Scope, status order.Status, page postgres.Page) ([]order.Order, int64, error)
	Order(ctx context.Context, scope postgres.Scope, id string) (*order.Order, error)
	ChangeOrderStatus(ctx context.Context, scope postgres.Scope, id string, req order.StatusChangeRequest) (*order.Order, error)
}

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	repo   OrderRepository
	logger logrus.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(repo OrderRepository, logger logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{repo: repo, logger: logger}
}

// GetOrders handles GET /orders?status&page&limit
func (h *OrderHandler) GetOrders(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	status := order.Status(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
		return
	}

	page := pageFromQuery(c)
	orders, total, err := h.repo.Orders(c.Request.Context(), scope, status, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, orders, page, total)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	o, err := h.repo.Order(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", o)
}

// UpdateStatus handles PATCH /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req order.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}
	req.Status = order.Status(strings.ToUpper(string(req.Status)))

	o, err := h.repo.ChangeOrderStatus(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
		"user_id":  scope.UserID,
	}).Info("order status changed")
	respond(c, http.StatusOK, "Order status updated", o)
}
