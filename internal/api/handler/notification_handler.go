package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TekupDK/tekup-sub000/internal/api/dto"
	"github.com/TekupDK/tekup-sub000/internal/api/service"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	logger        *slog.Logger
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(deps *Dependencies) *NotificationHandler {
	return &NotificationHandler{
		logger:        deps.Logger,
		notifications: deps.Notifications,
	}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	identity := IdentityFrom(c)

	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	notifications, err := h.notifications.List(c.Request.Context(), identity.UserID, identity.TenantID, req.Limit, req.UnreadOnly)
	if err != nil {
		h.logger.Error("Failed to list notifications", slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	response := make([]dto.NotificationDTO, len(notifications))
	for i, n := range notifications {
		response[i] = dto.NewNotificationDTO(n)
	}

	c.JSON(http.StatusOK, dto.ListNotificationsResponse{Notifications: response})
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	identity := IdentityFrom(c)

	count, err := h.notifications.UnreadCount(c.Request.Context(), identity.UserID, identity.TenantID)
	if err != nil {
		h.logger.Error("Failed to count unread notifications", slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// MarkRead handles POST /api/v1/notifications/:notification_id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity := IdentityFrom(c)

	notificationID := c.Param("notification_id")
	if _, err := uuid.Parse(notificationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "notification_id must be a valid UUID",
		})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), notificationID, identity.UserID); err != nil {
		h.logger.Error("Failed to mark notification read",
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		writeDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity := IdentityFrom(c)

	if err := h.notifications.MarkAllRead(c.Request.Context(), identity.UserID, identity.TenantID); err != nil {
		h.logger.Error("Failed to mark all notifications read", slog.String("error", err.Error()))
		writeDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
