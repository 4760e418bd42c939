package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/models"
	"github.com/pushp314/socialhub-backend/internal/presence"
	"github.com/pushp314/socialhub-backend/pkg/logger"
)

// RoomEmitter is the slice of the socket server the responder needs to
// push its reply. *socketio.Server satisfies it.
type RoomEmitter interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// Responder injects a generated reply whenever a human messages a bot
// account. The whole sequence runs detached from the originating send: the
// sender's acknowledgment never waits on it, and a generation failure never
// reaches the sender.
type Responder struct {
	gen      Generator // may be nil: rule-based only
	store    presence.Store
	emit     RoomEmitter
	minDelay time.Duration
	maxDelay time.Duration
}

func NewResponder(gen Generator, store presence.Store, emit RoomEmitter, minDelay, maxDelay time.Duration) *Responder {
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Responder{gen: gen, store: store, emit: emit, minDelay: minDelay, maxDelay: maxDelay}
}

// Schedule fires the reply pipeline in its own goroutine: randomized
// "typing" delay, generate, persist bot->human, deliver if the human still
// has an active session. There is no cancellation on disconnect; the reply
// is persisted regardless and delivered only if the human is connected when
// it completes.
func (r *Responder) Schedule(botID, humanID, incoming string) {
	go func() {
		delay := r.minDelay
		if r.maxDelay > r.minDelay {
			delay += time.Duration(rand.Int63n(int64(r.maxDelay - r.minDelay)))
		}
		time.Sleep(delay)

		reply := r.generate(context.Background(), incoming)

		msg := models.Message{
			SenderID:    botID,
			ReceiverID:  humanID,
			Content:     reply,
			MessageType: models.MessageTypeText,
		}
		if err := database.DB.Create(&msg).Error; err != nil {
			logger.Error().Err(err).Str("bot_id", botID).Str("user_id", humanID).Msg("responder: failed to persist reply")
			return
		}
		if err := database.DB.Preload("Sender").Preload("Receiver").First(&msg, "id = ?", msg.ID).Error; err != nil {
			logger.Error().Err(err).Str("message_id", msg.ID).Msg("responder: failed to load reply")
			return
		}

		if _, online := r.store.Lookup(humanID); online {
			r.emit.BroadcastToRoom("/", humanID, "message-received", msg)
		}
	}()
}

// generate prefers the configured LLM and falls back to the rule-based
// responder, so every incoming message gets some reply.
func (r *Responder) generate(ctx context.Context, incoming string) string {
	if r.gen != nil {
		reply, err := r.gen.Reply(ctx, incoming)
		if err == nil && reply != "" {
			return reply
		}
		logger.Warn().Err(err).Msg("responder: generation failed, using rule-based reply")
	}
	return RuleBasedReply(incoming)
}
