package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
	"github.com/pushp314/socialhub-backend/internal/presence"
	"github.com/pushp314/socialhub-backend/internal/services"
	"github.com/pushp314/socialhub-backend/pkg/logger"
)

// RoomEmitter is the slice of the socket server the relay pushes through.
// *socketio.Server satisfies it; tests substitute a recorder.
type RoomEmitter interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// ChatRelay routes message, reaction, read-state and call-signaling intents
// between sessions. Each pipeline persists first, then routes to the
// receiver's room when a binding exists, then acknowledges the sender. The
// sender always gets either the success echo or a scoped error event.
type ChatRelay struct {
	emit      RoomEmitter
	store     presence.Store
	responder *services.Responder

	// Typing throttle: minimum interval between typing events per sender.
	lastTypingEmit map[string]time.Time
	lastTypingMu   sync.Mutex
}

const typingThrottleDuration = 3 * time.Second

func NewChatRelay(emit RoomEmitter, store presence.Store, responder *services.Responder) *ChatRelay {
	return &ChatRelay{
		emit:           emit,
		store:          store,
		responder:      responder,
		lastTypingEmit: make(map[string]time.Time),
	}
}

// SendMessage handles the new-message intent. The payload carries either
// {receiverId, content} for a fresh text message, or {message: {id}} for a
// message some collaborator (e.g. the upload handler) already persisted.
func (r *ChatRelay) SendMessage(senderID string, payload map[string]interface{}) {
	msg, err := r.resolveOutgoing(senderID, payload)
	if err != nil {
		logger.Warn().Err(err).Str("sender_id", senderID).Msg("message send failed")
		r.emit.BroadcastToRoom("/", senderID, "message-error", map[string]interface{}{
			"message": "Failed to send message",
		})
		return
	}

	r.DeliverMessage(msg)
}

// DeliverMessage fans out an already-persisted message: receiver first (if
// online), then the unconditional echo to the sender, then the bot check.
func (r *ChatRelay) DeliverMessage(msg *models.Message) {
	if _, online := r.store.Lookup(msg.ReceiverID); online {
		r.emit.BroadcastToRoom("/", msg.ReceiverID, "message-received", msg)
	} else if !msg.Receiver.IsAIBot {
		// Receiver picks the message up from history; leave a notification.
		r.notifyOffline(msg)
	}

	r.emit.BroadcastToRoom("/", msg.SenderID, "message-sent", msg)

	// Bot accounts do not rely on presence, so this check runs
	// regardless of whether the receiver was online.
	if msg.Receiver.IsAIBot && r.responder != nil {
		r.responder.Schedule(msg.ReceiverID, msg.SenderID, msg.Content)
	}
}

func (r *ChatRelay) resolveOutgoing(senderID string, payload map[string]interface{}) (*models.Message, error) {
	var msg models.Message

	if raw, ok := payload["message"].(map[string]interface{}); ok {
		// Pre-built form: the message exists; re-read it instead of
		// trusting the client payload, and do not persist again.
		id, _ := raw["id"].(string)
		if id == "" {
			return nil, errors.New("message id required")
		}
		if err := database.DB.Preload("Sender").Preload("Receiver").Preload("Reactions").First(&msg, "id = ?", id).Error; err != nil {
			return nil, err
		}
		// Only the author may relay a persisted message.
		if msg.SenderID != senderID {
			return nil, errors.New("message does not belong to sender")
		}
		return &msg, nil
	}

	receiverID, _ := payload["receiverId"].(string)
	content, _ := payload["content"].(string)
	if receiverID == "" || content == "" {
		return nil, errors.New("receiverId and content required")
	}
	content, err := SanitizeMessageContent(content)
	if err != nil {
		return nil, err
	}

	msg = models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: models.MessageTypeText,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Preload("Sender").Preload("Receiver").First(&msg, "id = ?", msg.ID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ChatRelay) notifyOffline(msg *models.Message) {
	notification := models.Notification{
		UserID:  msg.ReceiverID,
		ActorID: msg.SenderID,
		Type:    models.NotificationTypeMessage,
		Message: "You have a new message",
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		logger.Warn().Err(err).Str("user_id", msg.ReceiverID).Msg("failed to create message notification")
		return
	}

	// Push to the self room anyway: a session that reconnected between the
	// registry miss and now still gets the badge update.
	SendNotificationToUser(msg.ReceiverID, map[string]interface{}{
		"type":    string(models.NotificationTypeMessage),
		"actorId": msg.SenderID,
		"message": notification.Message,
	})
}

// SyncReaction handles the message-reaction intent: re-fetch the message
// with reactions hydrated, push it to the counterparty if active, and always
// echo to the caller so the caller's UI converges on the stored state.
func (r *ChatRelay) SyncReaction(callerID, messageID, receiverID string) {
	var msg models.Message
	err := database.DB.
		Preload("Sender").
		Preload("Receiver").
		Preload("Reactions.User").
		First(&msg, "id = ?", messageID).Error
	if err != nil {
		logger.Warn().Err(err).Str("message_id", messageID).Msg("reaction sync failed")
		r.emit.BroadcastToRoom("/", callerID, "reaction-error", map[string]interface{}{
			"message": "Failed to update reaction",
		})
		return
	}

	if receiverID != "" && receiverID != callerID {
		if _, online := r.store.Lookup(receiverID); online {
			r.emit.BroadcastToRoom("/", receiverID, "message-reaction-updated", msg)
		}
	}
	r.emit.BroadcastToRoom("/", callerID, "message-reaction-updated", msg)
}

// MarkMessagesRead marks everything senderID sent to readerID as read and
// tells the sender who read it. Re-invoking with nothing unread changes no
// rows and emits nothing. Returns the number of messages transitioned.
func (r *ChatRelay) MarkMessagesRead(readerID, senderID string) int64 {
	result := database.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		logger.Error().Err(result.Error).Str("reader_id", readerID).Str("sender_id", senderID).Msg("failed to mark messages read")
		return 0
	}

	if result.RowsAffected > 0 {
		if _, online := r.store.Lookup(senderID); online {
			r.emit.BroadcastToRoom("/", senderID, "messages-read", map[string]interface{}{
				"readBy": readerID,
			})
		}
	}
	return result.RowsAffected
}

// Typing forwards a typing indicator, throttled per sender.
func (r *ChatRelay) Typing(senderID, receiverID string) {
	if receiverID == "" {
		return
	}

	r.lastTypingMu.Lock()
	last, seen := r.lastTypingEmit[senderID]
	if seen && time.Since(last) < typingThrottleDuration {
		r.lastTypingMu.Unlock()
		return
	}
	r.lastTypingEmit[senderID] = time.Now()
	r.lastTypingMu.Unlock()

	var sender models.User
	if err := database.DB.Select("id", "name").First(&sender, "id = ?", senderID).Error; err != nil {
		return
	}

	r.emit.BroadcastToRoom("/", receiverID, "typing", map[string]interface{}{
		"userId": senderID,
		"name":   sender.Name,
	})
}

func (r *ChatRelay) StopTyping(senderID, receiverID string) {
	if receiverID == "" {
		return
	}
	r.emit.BroadcastToRoom("/", receiverID, "stop-typing", map[string]interface{}{
		"userId": senderID,
	})
}

// Call signaling: offer/answer/hangup payloads pass through unread. When the
// target has no active session the intent is dropped without feedback to the
// initiator; known asymmetry with the message paths, kept as-is.

func (r *ChatRelay) CallUser(payload map[string]interface{}) {
	target, _ := payload["userToCall"].(string)
	from, _ := payload["from"].(string)
	if target == "" {
		return
	}
	if _, online := r.store.Lookup(target); !online {
		return
	}

	var caller models.User
	if err := database.DB.Select("id", "name").First(&caller, "id = ?", from).Error; err != nil {
		logger.Warn().Err(err).Str("user_id", from).Msg("call signaling: caller lookup failed")
	}

	r.emit.BroadcastToRoom("/", target, "call-made", map[string]interface{}{
		"signal":     payload["signalData"],
		"from":       from,
		"callerName": caller.Name,
	})
}

func (r *ChatRelay) AnswerCall(payload map[string]interface{}) {
	target, _ := payload["to"].(string)
	if target == "" {
		return
	}
	if _, online := r.store.Lookup(target); !online {
		return
	}
	r.emit.BroadcastToRoom("/", target, "call-accepted", payload["signal"])
}

func (r *ChatRelay) EndCall(payload map[string]interface{}) {
	target, _ := payload["to"].(string)
	if target == "" {
		return
	}
	if _, online := r.store.Lookup(target); !online {
		return
	}
	r.emit.BroadcastToRoom("/", target, "call-ended")
}
