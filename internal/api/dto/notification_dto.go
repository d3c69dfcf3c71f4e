package dto

import (
	"encoding/json"
	"time"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

type ListNotificationsRequest struct {
	Limit      int  `form:"limit"`
	UnreadOnly bool `form:"unread_only"`
}

type NotificationDTO struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt string          `json:"created_at"`
}

type ListNotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type BroadcastRequest struct {
	Event   string         `json:"event" binding:"required"`
	Payload map[string]any `json:"payload"`

	// Exactly one target is set.
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Tenant bool   `json:"tenant"`
}

// NewNotificationDTO maps a domain notification onto the wire
// representation.
func NewNotificationDTO(n domain.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
