package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

const defaultNotificationLimit = 50

// NotificationReader defines the interface for reading stored notifications
type NotificationReader interface {
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, id, recipientID string) error
}

// NotificationHandler handles in-app notification API endpoints
type NotificationHandler struct {
	store NotificationReader
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(store NotificationReader) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.store.ListForRecipient(c.Request.Context(), user.ID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseData: notifications})
}

// MarkRead handles POST /api/notifications/:notificationId/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID := c.Param("notificationId")
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	if err := h.store.MarkAsRead(c.Request.Context(), notificationID, user.ID); err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData: gin.H{"success": true},
	})
}
