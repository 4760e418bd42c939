package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
	apperrors "github.com/pushp314/socialhub-backend/pkg/errors"
)

// GetNotifications GET /notifications
func GetNotifications(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var notifications []models.Notification
	if err := database.DB.Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(50).
		Find(&notifications).Error; err != nil {
		c.Error(apperrors.Internal("Failed to fetch notifications"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount GET /notifications/unread-count
func GetUnreadCount(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var count int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count)

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkNotificationRead PUT /notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	notificationID := c.Param("id")

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		c.Error(apperrors.Internal("Failed to update notification"))
		return
	}
	if result.RowsAffected == 0 {
		c.Error(apperrors.NotFound("Notification not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MarkAllNotificationsRead PUT /notifications/read-all
func MarkAllNotificationsRead(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		c.Error(apperrors.Internal("Failed to update notifications"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
