package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/middleware"
	"github.com/pushp314/socialhub-backend/internal/models"
)

// Routes run behind the error middleware so handler failures pushed through
// c.Error map to the right status.
func newNotificationsRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	r.GET("/notifications", GetNotifications)
	r.GET("/notifications/unread-count", GetUnreadCount)
	r.PUT("/notifications/:id/read", MarkNotificationRead)
	r.PUT("/notifications/read-all", MarkAllNotificationsRead)
	return r
}

func TestMarkNotificationReadUnknownID(t *testing.T) {
	SetupTestDB()
	createUser(t, "u_notif404", false)
	router := newNotificationsRouter("u_notif404")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/notifications/no-such-id/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Notification not found", response["error"])
}

func TestNotificationsListAndUnreadCount(t *testing.T) {
	SetupTestDB()
	createUser(t, "u_notif", false)
	createUser(t, "actor_notif", false)
	router := newNotificationsRouter("u_notif")

	for i := 0; i < 2; i++ {
		notification := models.Notification{
			UserID:  "u_notif",
			ActorID: "actor_notif",
			Type:    models.NotificationTypeMessage,
			Message: "You have a new message",
		}
		assert.NoError(t, database.DB.Create(&notification).Error)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var listResponse struct {
		Notifications []models.Notification `json:"notifications"`
	}
	json.Unmarshal(w.Body.Bytes(), &listResponse)
	assert.Len(t, listResponse.Notifications, 2)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/notifications/unread-count", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var countResponse struct {
		Count int64 `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &countResponse)
	assert.Equal(t, int64(2), countResponse.Count)

	// Mark one explicitly, then the rest in bulk.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/notifications/"+listResponse.Notifications[0].ID+"/read", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/notifications/read-all", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", "u_notif", false).
		Count(&unread)
	assert.Equal(t, int64(0), unread)
}
