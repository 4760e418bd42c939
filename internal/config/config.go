package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Redis (rate limiting; shared presence registry when enabled)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// "memory" (default) or "redis" for multi-instance deployments
	PresenceBackend string `mapstructure:"PRESENCE_BACKEND"`

	// Responder / text generation
	OpenRouterAPIKey  string `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterModel   string `mapstructure:"OPENROUTER_MODEL"`
	OpenRouterBaseURL string `mapstructure:"OPENROUTER_BASE_URL"`

	// Simulated typing latency before a bot reply, in milliseconds
	BotReplyMinDelayMs int `mapstructure:"BOT_REPLY_MIN_DELAY_MS"`
	BotReplyMaxDelayMs int `mapstructure:"BOT_REPLY_MAX_DELAY_MS"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PRESENCE_BACKEND", "memory")
	viper.SetDefault("BOT_REPLY_MIN_DELAY_MS", 1000)
	viper.SetDefault("BOT_REPLY_MAX_DELAY_MS", 3000)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
