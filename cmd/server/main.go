package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/socialhub-backend/internal/config"
	"github.com/pushp314/socialhub-backend/internal/database"
	"github.com/pushp314/socialhub-backend/internal/handlers"
	"github.com/pushp314/socialhub-backend/internal/middleware"
	"github.com/pushp314/socialhub-backend/internal/models"
	"github.com/pushp314/socialhub-backend/internal/presence"
	"github.com/pushp314/socialhub-backend/internal/routes"
	"github.com/pushp314/socialhub-backend/internal/services"
	"github.com/pushp314/socialhub-backend/pkg/logger"
)

func main() {
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting SocialHub Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Reaction{},
		&models.Notification{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ensureAssistantAccount()

	// Presence registry: process-local by default, shared Redis hash when
	// running more than one instance.
	var store presence.Store
	if strings.EqualFold(config.AppConfig.PresenceBackend, "redis") {
		store = presence.NewRedisStore(database.Redis)
		logger.Info().Msg("Using Redis presence registry")
	} else {
		store = presence.NewMemoryStore()
	}

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Long-polling transports trip IP rate limits, so socket.io is exempt.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		routes.RegisterAuthRoutes(auth)

		routes.RegisterChatRoutes(api)
		routes.RegisterNotificationRoutes(api)
	}

	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	// Responder bridge for bot accounts. Without an API key the rule-based
	// responder answers everything.
	var gen services.Generator
	if config.AppConfig.OpenRouterAPIKey != "" {
		gen = services.NewOpenRouterClient(
			config.AppConfig.OpenRouterBaseURL,
			config.AppConfig.OpenRouterAPIKey,
			config.AppConfig.OpenRouterModel,
		)
		logger.Info().Str("model", config.AppConfig.OpenRouterModel).Msg("LLM responder enabled")
	}

	socketServer := handlers.InitSocketServer(store, gen)
	defer socketServer.Close()

	r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
	r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))

	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

// ensureAssistantAccount provisions the built-in bot account once; the
// isAIBot flag never changes afterwards.
func ensureAssistantAccount() {
	assistant := models.User{
		Name:     "Aria",
		Email:    "aria@socialhub.local",
		Username: "aria",
		IsAIBot:  true,
	}
	if err := database.DB.Where(models.User{Username: "aria"}).
		FirstOrCreate(&assistant).Error; err != nil {
		logger.Warn().Err(err).Msg("Failed to provision assistant account")
	}
}
