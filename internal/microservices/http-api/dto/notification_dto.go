package dto

import (
	"encoding/json"
	"time"

	"agrimarket/internal/microservices/http-api/models"
	"agrimarket/internal/microservices/http-api/service"
)

// ListNotificationsQuery binds GET /api/vendor/notifications query params
type ListNotificationsQuery struct {
	Page       int  `form:"page" binding:"omitempty,min=1"`
	Limit      int  `form:"limit" binding:"omitempty,min=1"`
	UnreadOnly bool `form:"unreadOnly"`
}

// NotificationResponse is a stored notification plus its rendered age
type NotificationResponse struct {
	ID         string                  `json:"id"`
	Type       models.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Data       json.RawMessage         `json:"data"`
	Priority   models.Priority         `json:"priority"`
	ActionURL  string                  `json:"actionUrl,omitempty"`
	ActionText string                  `json:"actionText,omitempty"`
	IsRead     bool                    `json:"isRead"`
	CreatedAt  time.Time               `json:"createdAt"`
	Age        string                  `json:"age"`
}

// FromModelToNotificationResponse converts a Notification model to its response DTO
func FromModelToNotificationResponse(n *models.Notification, now time.Time) NotificationResponse {
	data := json.RawMessage(n.Data)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Data:       data,
		Priority:   n.Priority,
		ActionURL:  n.ActionURL,
		ActionText: n.ActionText,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
		Age:        n.Age(now),
	}
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Pagination    service.Pagination     `json:"pagination"`
	UnreadCount   int64                  `json:"unreadCount"`
}

func NewNotificationListResponse(page *service.NotificationPage, now time.Time) *NotificationListResponse {
	items := make([]NotificationResponse, 0, len(page.Notifications))
	for i := range page.Notifications {
		items = append(items, FromModelToNotificationResponse(&page.Notifications[i], now))
	}
	return &NotificationListResponse{
		Notifications: items,
		Pagination:    page.Pagination,
		UnreadCount:   page.UnreadCount,
	}
}
