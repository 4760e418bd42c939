package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
)

func TestGetMessagesHistoryAfterOfflineSend(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	// A sent while B was offline; B later fetches history and sees the
	// message, still unread.
	relay, _, _ := newTestRelay()
	Relay = relay
	createUser(t, "a_hist", false)
	createUser(t, "b_hist", false)

	relay.SendMessage("a_hist", map[string]interface{}{
		"receiverId": "b_hist",
		"content":    "hello",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/messages?userId=a_hist", nil)
	c.Set("userId", "b_hist")

	GetMessages(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Messages []models.Message `json:"messages"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Len(t, response.Messages, 1)
	assert.Equal(t, "hello", response.Messages[0].Content)
	assert.False(t, response.Messages[0].IsRead)
}

func TestGetConversationsOrderAndUnread(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	createUser(t, "me_conv", false)
	createUser(t, "u1_conv", false)
	createUser(t, "u2_conv", false)

	// u1 wrote long ago, u2 recently; both unread.
	database.DB.Create(&models.Message{ID: "m1_conv", SenderID: "u1_conv", ReceiverID: "me_conv", Content: "Old", CreatedAt: time.Now().Add(-2 * time.Hour)})
	database.DB.Create(&models.Message{ID: "m2_conv", SenderID: "u2_conv", ReceiverID: "me_conv", Content: "Recent", CreatedAt: time.Now().Add(-1 * time.Minute)})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/conversations", nil)
	c.Set("userId", "me_conv")

	GetConversations(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Conversations []struct {
			User        models.User    `json:"user"`
			LastMessage models.Message `json:"lastMessage"`
			UnreadCount int64          `json:"unreadCount"`
		} `json:"conversations"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Len(t, response.Conversations, 2)
	if len(response.Conversations) >= 2 {
		assert.Equal(t, "u2_conv", response.Conversations[0].User.ID)
		assert.Equal(t, "u1_conv", response.Conversations[1].User.ID)
		assert.Equal(t, int64(1), response.Conversations[0].UnreadCount)
	}
}

func TestSendMessageRESTDeliversThroughRelay(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	relay, emitter, store := newTestRelay()
	Relay = relay
	createUser(t, "a_rest", false)
	createUser(t, "b_rest", false)
	store.Register("b_rest", "sock-b")

	body, _ := json.Marshal(map[string]string{"receiverId": "b_rest", "content": "via rest"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/messages", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userId", "a_rest")

	SendMessage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, emitter.count("b_rest", "message-received"))
	assert.Equal(t, 1, emitter.count("a_rest", "message-sent"))
}

func TestReactToMessageUnknownMessage(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	createUser(t, "reactor_404", false)

	body, _ := json.Marshal(map[string]string{"emoji": "❤️"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/messages/nope/reactions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "no-such-id"}}
	c.Set("userId", "reactor_404")

	ReactToMessage(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadMessageCreatesPrebuiltFileMessage(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	createUser(t, "a_up", false)
	createUser(t, "b_up", false)

	body, _ := json.Marshal(map[string]interface{}{
		"receiverId":  "b_up",
		"fileUrl":     "https://cdn.example.com/doc.pdf",
		"fileName":    "doc.pdf",
		"fileSize":    2048,
		"messageType": "file",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/upload", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userId", "a_up")

	UploadMessage(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var msg models.Message
	assert.NoError(t, database.DB.First(&msg, "sender_id = ? AND receiver_id = ?", "a_up", "b_up").Error)
	assert.Equal(t, models.MessageTypeFile, msg.MessageType)
	assert.Equal(t, "doc.pdf", msg.FileName)
	assert.Equal(t, int64(2048), msg.FileSize)
}

func TestMarkReadREST(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)

	relay, emitter, store := newTestRelay()
	Relay = relay
	createUser(t, "a_mr", false)
	createUser(t, "b_mr", false)
	store.Register("a_mr", "sock-a")

	database.DB.Create(&models.Message{SenderID: "a_mr", ReceiverID: "b_mr", Content: "unread"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/read/a_mr", nil)
	c.Params = gin.Params{{Key: "senderId", Value: "a_mr"}}
	c.Set("userId", "b_mr")

	MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, emitter.count("a_mr", "messages-read"))
}
