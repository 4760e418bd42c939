package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/pushp314/socialhub-backend/internal/config"
)

var Redis *redis.Client
var Ctx = context.Background()

// InitRedis connects the shared Redis client. Redis is optional: without it
// the presence registry falls back to the in-process store and rate limiting
// stays in-memory.
func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	if _, err := Redis.Ping(Ctx).Result(); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Shared presence will be unavailable.", err)
	} else {
		log.Println("Connected to Redis successfully")
	}
}
