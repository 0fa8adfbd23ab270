// internal/interfaces/http/handlers/notification.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-client/internal/domain/notification"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
)

// NotificationRepository stores in-app notifications
type NotificationRepository interface {
	Notifications(ctx context.Context, userID string, page postgres.Page) ([]notification.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	repo NotificationRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(repo NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// GetNotifications handles GET /notifications?page&limit
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	page := pageFromQuery(c)
	items, total, err := h.repo.Notifications(c.Request.Context(), scope.UserID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items, page, total)
}

// MarkRead handles PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	if err := h.repo.MarkNotificationRead(c.Request.Context(), scope.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Notification marked as read")
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	updated, err := h.repo.MarkAllNotificationsRead(c.Request.Context(), scope.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

// Delete handles DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteNotification(c.Request.Context(), scope.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Notification deleted")
}
