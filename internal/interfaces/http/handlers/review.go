// internal/interfaces/http/handlers/review.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/review"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
)

// ReviewRepository reads, edits and answers product reviews
type ReviewRepository interface {
	Reviews(ctx context.Context, scope postgres.Scope, f review.Filter) ([]review.Review, int64, error)
	EditReview(ctx context.Context, scope postgres.Scope, id string, req review.EditRequest) (*review.Review, error)
	ReplyToReview(ctx context.Context, scope postgres.Scope, id, text string) (*review.Review, error)
	DeleteReview(ctx context.Context, scope postgres.Scope, id string) error
}

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	repo   ReviewRepository
	logger logrus.FieldLogger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(repo ReviewRepository, logger logrus.FieldLogger) *ReviewHandler {
	return &ReviewHandler{repo: repo, logger: logger}
}

// GetReviews handles GET /reviews?productId&storeId&mine&rating
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	scope := optionalScope(c)

	rating, _ := strconv.Atoi(c.Query("rating"))
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	f := review.Filter{
		ProductID: c.Query("productId"),
		StoreID:   c.Query("storeId"),
		Mine:      c.Query("mine") == "true",
		Rating:    rating,
		Page:      page,
		Limit:     limit,
	}
	if f.Mine && scope.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	reviews, total, err := h.repo.Reviews(c.Request.Context(), scope, f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, reviews, postgres.NewPage(f.Page, f.Limit), total)
}

// EditReview handles PATCH /reviews/:id
func (h *ReviewHandler) EditReview(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req review.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	r, err := h.repo.EditReview(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Review updated successfully", r)
}

// Reply handles POST /reviews/:id/reply
func (h *ReviewHandler) Reply(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req review.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	r, err := h.repo.ReplyToReview(c.Request.Context(), scope, c.Param("id"), req.Reply)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"review_id": r.ID, "user_id": scope.UserID}).Info("review answered")
	respond(c, http.StatusOK, "Reply posted", r)
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteReview(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Review deleted successfully")
}
