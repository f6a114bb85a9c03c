package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"agrimarket/internal/microservices/http-api/dto"
	"agrimarket/internal/microservices/http-api/middleware"
	"agrimarket/internal/microservices/http-api/repository"
	"agrimarket/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

type NotificationHandler struct {
	svc service.NotificationInbox
	now func() time.Time
}

func NewNotificationHandler(svc service.NotificationInbox) *NotificationHandler {
	return &NotificationHandler{svc: svc, now: time.Now}
}

// RegisterRoutes registers the vendor inbox routes; rg must already run middleware.VendorAuth
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/count", h.UnreadCount)
	// PATCH is what existing web clients send
	rg.PUT("/read-all", h.MarkAllAsRead)
	rg.PATCH("/read-all", h.MarkAllAsRead)
	rg.PUT("/:id/read", h.MarkAsRead)
	rg.PATCH("/:id/read", h.MarkAsRead)
	rg.DELETE("/:id", h.Delete)
}

// List returns a page of the vendor's notifications, newest first
// GET /api/vendor/notifications?page=&limit=&unreadOnly=
func (h *NotificationHandler) List(c *gin.Context) {
	vendorID, ok := vendorFromContext(c)
	if !ok {
		return
	}

	var query dto.ListNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page, err := h.svc.GetNotifications(ctx, vendorID, service.ListOptions{
		Page:       query.Page,
		Limit:      query.Limit,
		UnreadOnly: query.UnreadOnly,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, dto.NewNotificationListResponse(page, h.now()))
}

// UnreadCount returns the number of unread notifications
// GET /api/vendor/notifications/count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	vendorID, ok := vendorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	count, err := h.svc.UnreadCount(ctx, vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkAsRead marks one notification as read
// PUT /api/vendor/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	vendorID, ok := vendorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	notification, err := h.svc.MarkAsRead(ctx, c.Param("id"), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification as read"})
		return
	}
	if notification == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToNotificationResponse(notification, h.now()))
}

// MarkAllAsRead marks every unread notification of the vendor as read
// PUT /api/vendor/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	vendorID, ok := vendorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	modified, err := h.svc.MarkAllAsRead(ctx, vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Marked %d notifications as read", modified),
		"modifiedCount": modified,
	})
}

// Delete removes one notification
// DELETE /api/vendor/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	vendorID, ok := vendorFromContext(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeleteNotification(ctx, c.Param("id"), vendorID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

func vendorFromContext(c *gin.Context) (string, bool) {
	vendorID := c.GetString(middleware.VendorIDKey)
	if vendorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "vendor not authenticated"})
		return "", false
	}
	return vendorID, true
}
