// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-client/internal/domain/cart"
)

// CartRepository stores cart lines per user
type CartRepository interface {
	CartItems(ctx context.Context, userID string) ([]cart.CartItem, error)
	AddCartItem(ctx context.Context, userID, variantID string, quantity int) error
	SetCartQuantity(ctx context.Context, userID, variantID string, quantity int) (*cart.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, variantID string) error
	ClearCart(ctx context.Context, userID string) error
}

// CartHandler handles cart-related HTTP requests
type CartHandler struct {
	repo CartRepository
}

// NewCartHandler creates a new cart handler
func NewCartHandler(repo CartRepository) *CartHandler {
	return &CartHandler{repo: repo}
}

type addItemBody struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateItemBody struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *CartHandler) respondCart(c *gin.Context, status int, message, userID string) {
	items, err := h.repo.CartItems(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, status, message, cart.Cart{Items: items})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	h.respondCart(c, http.StatusOK, "", scope.UserID)
}

// AddItem handles POST /cart/items and returns the whole cart
func (h *CartHandler) AddItem(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req addItemBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	if err := h.repo.AddCartItem(c.Request.Context(), scope.UserID, req.VariantID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	h.respondCart(c, http.StatusCreated, "Item added to cart", scope.UserID)
}

// UpdateItem handles PATCH /cart/items/:variantId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req updateItemBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	item, err := h.repo.SetCartQuantity(c.Request.Context(), scope.UserID, c.Param("variantId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart item updated", item)
}

// RemoveItem handles DELETE /cart/items/:variantId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	if err := h.repo.RemoveCartItem(c.Request.Context(), scope.UserID, c.Param("variantId")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Item removed from cart")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	if err := h.repo.ClearCart(c.Request.Context(), scope.UserID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Cart cleared")
}
