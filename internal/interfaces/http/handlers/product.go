// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/product"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
)

// ProductRepository reads and manages the catalog
type ProductRepository interface {
	Products(ctx context.Context, q product.Query) ([]product.Product, int64, error)
	Product(ctx context.Context, id string) (*product.Product, error)
	UpdateProduct(ctx context.Context, scope postgres.Scope, id string, req product.UpdateRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, scope postgres.Scope, id string) error
}

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	repo   ProductRepository
	logger logrus.FieldLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(repo ProductRepository, logger logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

// optionalScope returns the caller's scope when a valid token was sent
func optionalScope(c *gin.Context) postgres.Scope {
	p, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return postgres.Scope{}
	}
	return postgres.Scope{UserID: p.UserID, StoreID: p.StoreID, Role: p.Role}
}

// GetProducts handles GET /products. Only store staff see unpublished
// products, and only for stores they manage.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	q := product.Query{
		Search:    c.Query("search"),
		StoreID:   c.Query("storeId"),
		SortBy:    c.DefaultQuery("sortBy", "created_at"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
		Page:      page,
		Limit:     limit,
	}
	if raw := c.Query("status"); raw != "" {
		status, err := product.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.Status = status
	}

	scope := optionalScope(c)
	if !scope.Admin() && (q.StoreID == "" || !scope.OwnsStore(q.StoreID)) {
		q.Status = product.StatusActive
	}

	products, total, err := h.repo.Products(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, products, postgres.NewPage(q.Page, q.Limit), total)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.repo.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p.Status != product.StatusActive && !optionalScope(c).OwnsStore(p.StoreID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	respond(c, http.StatusOK, "", p)
}

// UpdateProduct handles PATCH /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	p, err := h.repo.UpdateProduct(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"product_id": p.ID, "user_id": scope.UserID}).Info("product updated")
	respond(c, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.repo.DeleteProduct(c.Request.Context(), scope, id); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"product_id": id, "user_id": scope.UserID}).Info("product deleted")
	respondMessage(c, http.StatusOK, "Product deleted successfully")
}
