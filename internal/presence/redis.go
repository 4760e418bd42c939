package presence

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/pushp314/socialhub-backend/pkg/logger"
)

var ctx = context.Background()

const bindingsKey = "presence:bindings"

// Unregister must not remove a binding that another instance has already
// replaced, so the compare happens server-side.
var unregisterScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

// RedisStore keeps the registry in a shared Redis hash so multiple server
// instances can see each other's sessions. Failures are logged and treated
// as "not bound"; the durable message store is the source of truth anyway.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Register(userID, socketID string) {
	if err := s.client.HSet(ctx, bindingsKey, userID, socketID).Err(); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("presence: register failed")
	}
}

func (s *RedisStore) Unregister(userID, socketID string) bool {
	removed, err := unregisterScript.Run(ctx, s.client, []string{bindingsKey}, userID, socketID).Int()
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("presence: unregister failed")
		return false
	}
	return removed == 1
}

func (s *RedisStore) Lookup(userID string) (string, bool) {
	socketID, err := s.client.HGet(ctx, bindingsKey, userID).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("presence: lookup failed")
		return "", false
	}
	return socketID, true
}

func (s *RedisStore) ListActive() []string {
	users, err := s.client.HKeys(ctx, bindingsKey).Result()
	if err != nil {
		logger.Error().Err(err).Msg("presence: roster query failed")
		return nil
	}
	return users
}
