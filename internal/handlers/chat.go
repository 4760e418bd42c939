package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
	"github.com/pushp314/socialhub-backend/pkg/logger"
)

// GetConversations returns one entry per chat partner with the latest
// message and the unread count, most recent first.
func GetConversations(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	var messages []models.Message
	err := database.DB.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc").
		Preload("Sender").Preload("Receiver").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	type conversation struct {
		User        models.User    `json:"user"`
		LastMessage models.Message `json:"lastMessage"`
		UnreadCount int64          `json:"unreadCount"`
		IsOnline    bool           `json:"isOnline"`
	}

	latest := make(map[string]conversation)
	for _, msg := range messages {
		partner := msg.Sender
		if msg.SenderID == userID {
			partner = msg.Receiver
		}
		if _, seen := latest[partner.ID]; seen {
			continue // messages are ordered newest first
		}
		latest[partner.ID] = conversation{User: partner, LastMessage: msg}
	}

	conversations := make([]conversation, 0, len(latest))
	for partnerID, conv := range latest {
		database.DB.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", partnerID, userID, false).
			Count(&conv.UnreadCount)
		conv.IsOnline = IsUserOnline(partnerID)
		conversations = append(conversations, conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the full DM history with one other user. This is how
// an offline receiver catches up on messages it missed live.
func GetMessages(c *gin.Context) {
	currentUserID := c.MustGet("userId").(string)
	otherUserID := c.Query("userId")

	if otherUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	var messages []models.Message
	err := database.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		currentUserID, otherUserID, otherUserID, currentUserID,
	).Order("created_at asc").
		Preload("Sender").Preload("Receiver").Preload("Reactions.User").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage persists a text message and fans it out through the same
// relay the socket path uses.
func SendMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)
	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	content, err := SanitizeMessageContent(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := models.Message{
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Content:     content,
		MessageType: models.MessageTypeText,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		logger.Error().Err(err).Msg("failed to persist message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	if err := database.DB.Preload("Sender").Preload("Receiver").First(&msg, "id = ?", msg.ID).Error; err != nil {
		logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to load message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if Relay != nil {
		Relay.DeliverMessage(&msg)
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// UploadMessage records an already-uploaded attachment as a pre-built
// message. The client relays it afterwards via new-message {message}, so no
// second persist happens on the socket path.
func UploadMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)
	var req struct {
		ReceiverID  string `json:"receiverId" binding:"required"`
		FileURL     string `json:"fileUrl" binding:"required"`
		FileName    string `json:"fileName"`
		FileSize    int64  `json:"fileSize"`
		MessageType string `json:"messageType"`
		Content     string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	messageType := req.MessageType
	if !ValidateMessageType(messageType) || messageType == models.MessageTypeText {
		messageType = models.MessageTypeFile
	}

	msg := models.Message{
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: messageType,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		logger.Error().Err(err).Msg("failed to persist file message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save attachment"})
		return
	}
	if err := database.DB.Preload("Sender").Preload("Receiver").First(&msg, "id = ?", msg.ID).Error; err != nil {
		logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to load file message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save attachment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ReactToMessage appends a reaction. Nothing deduplicates per
// (message, user): stacking reactions is allowed.
func ReactToMessage(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	messageID := c.Param("id")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var msg models.Message
	if err := database.DB.First(&msg, "id = ?", messageID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	reaction := models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     req.Emoji,
		CreatedAt: time.Now(),
	}
	if err := database.DB.Create(&reaction).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add reaction"})
		return
	}

	// Counterparty from the reactor's point of view.
	counterparty := msg.SenderID
	if msg.SenderID == userID {
		counterparty = msg.ReceiverID
	}
	if Relay != nil {
		Relay.SyncReaction(userID, messageID, counterparty)
	}

	c.JSON(http.StatusOK, gin.H{"reaction": reaction})
}

// MarkRead marks all unread messages from a sender as read.
func MarkRead(c *gin.Context) {
	currentUserID := c.MustGet("userId").(string)
	senderID := c.Param("senderId")

	var marked int64
	if Relay != nil {
		marked = Relay.MarkMessagesRead(currentUserID, senderID)
	}
	c.JSON(http.StatusOK, gin.H{"markedRead": marked})
}
