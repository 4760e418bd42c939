package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/pushp314/socialhub-backend/internal/config"
	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
	"github.com/pushp314/socialhub-backend/internal/presence"
	"github.com/pushp314/socialhub-backend/internal/services"
	"github.com/pushp314/socialhub-backend/pkg/logger"
	"github.com/pushp314/socialhub-backend/pkg/utils"
)

var SocketServer *socketio.Server

// Presence is the connection registry behind all relay lookups.
var Presence presence.Store

// Relay routes chat intents; REST handlers reuse it for live fan-out.
var Relay *ChatRelay

// Every session joins this room so presence events reach all clients.
const presenceRoom = "presence"

// SendNotificationToUser pushes a server-initiated event to a user's own
// room, bypassing the message relay.
func SendNotificationToUser(userID string, notification map[string]interface{}) {
	if SocketServer != nil {
		SocketServer.BroadcastToRoom("/", userID, "notification", notification)
	}
}

// IsUserOnline reports whether the user currently has a bound session.
func IsUserOnline(userID string) bool {
	if Presence == nil {
		return false
	}
	_, online := Presence.Lookup(userID)
	return online
}

func InitSocketServer(store presence.Store, gen services.Generator) *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	responder := services.NewResponder(
		gen,
		store,
		server,
		time.Duration(config.AppConfig.BotReplyMinDelayMs)*time.Millisecond,
		time.Duration(config.AppConfig.BotReplyMaxDelayMs)*time.Millisecond,
	)

	Presence = store
	Relay = NewChatRelay(server, store, responder)

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		url := s.URL()

		token := url.Query().Get("token")
		if token == "" {
			token = url.Query().Get("auth_token") // Fallback
		}
		if token == "" {
			logger.Warn().Str("socket_id", s.ID()).Msg("socket connection rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			logger.Warn().Str("socket_id", s.ID()).Msg("socket connection rejected: invalid token")
			return fmt.Errorf("invalid token")
		}

		userID := claims.UserID
		s.SetContext(userID)

		store.Register(userID, s.ID())

		// Self room: delivery target for the relay, the responder and
		// any server-initiated push.
		s.Join(userID)

		s.Emit("connected")

		// Roster to the new session first, then the single-user event to
		// everyone already in the presence room, then the refreshed
		// roster to all. The roster broadcast duplicates the single-user
		// event on purpose; clients listen to one form or the other.
		s.Emit("online-users", store.ListActive())
		server.BroadcastToRoom("/", presenceRoom, "user-online", userID)
		s.Join(presenceRoom)
		server.BroadcastToRoom("/", presenceRoom, "online-users", store.ListActive())

		// Best effort: the registry is the source of truth.
		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
			Update("is_online", true).Error; err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("failed to mirror online state")
		}

		logger.Info().Str("socket_id", s.ID()).Str("user_id", userID).Msg("socket connected")
		return nil
	})

	server.OnEvent("/", "setup", func(s socketio.Conn) {
		if userID, _ := s.Context().(string); userID != "" {
			s.Join(userID)
		}
	})

	server.OnEvent("/", "join-chat", func(s socketio.Conn, roomID string) {
		if roomID != "" {
			s.Join(roomID)
		}
	})

	server.OnEvent("/", "get-online-users", func(s socketio.Conn) {
		s.Emit("online-users", store.ListActive())
	})

	server.OnEvent("/", "typing", func(s socketio.Conn, receiverID string) {
		if userID, _ := s.Context().(string); userID != "" {
			Relay.Typing(userID, receiverID)
		}
	})

	server.OnEvent("/", "stop-typing", func(s socketio.Conn, receiverID string) {
		if userID, _ := s.Context().(string); userID != "" {
			Relay.StopTyping(userID, receiverID)
		}
	})

	server.OnEvent("/", "new-message", func(s socketio.Conn, payload map[string]interface{}) {
		if userID, _ := s.Context().(string); userID != "" {
			Relay.SendMessage(userID, payload)
		}
	})

	server.OnEvent("/", "message-reaction", func(s socketio.Conn, payload map[string]interface{}) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		messageID, _ := payload["messageId"].(string)
		receiverID, _ := payload["receiverId"].(string)
		Relay.SyncReaction(userID, messageID, receiverID)
	})

	server.OnEvent("/", "message-read", func(s socketio.Conn, payload map[string]interface{}) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		senderID, _ := payload["senderId"].(string)
		if senderID != "" {
			Relay.MarkMessagesRead(userID, senderID)
		}
	})

	server.OnEvent("/", "call-user", func(s socketio.Conn, payload map[string]interface{}) {
		Relay.CallUser(payload)
	})

	server.OnEvent("/", "answer-call", func(s socketio.Conn, payload map[string]interface{}) {
		Relay.AnswerCall(payload)
	})

	server.OnEvent("/", "end-call", func(s socketio.Conn, payload map[string]interface{}) {
		Relay.EndCall(payload)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}

		// A reconnect may already have replaced this binding; only the
		// owning socket tears presence down.
		if !store.Unregister(userID, s.ID()) {
			return
		}

		now := time.Now()
		if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"is_online": false, "last_seen": &now}).Error; err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("failed to mirror offline state")
		}

		server.BroadcastToRoom("/", presenceRoom, "user-offline", userID)
		server.BroadcastToRoom("/", presenceRoom, "online-users", store.ListActive())

		logger.Info().Str("socket_id", s.ID()).Str("user_id", userID).Str("reason", reason).Msg("socket disconnected")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("socket error")
	})

	go server.Serve()
	SocketServer = server
	return server
}

// SocketHandler wraps the socket.io server for gin.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
