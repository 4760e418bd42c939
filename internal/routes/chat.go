package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pushp314/socialhub-backend/internal/handlers"
	"github.com/pushp314/socialhub-backend/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/messages", handlers.GetMessages) // ?userId=...
		chat.POST("/messages", handlers.SendMessage)
		chat.POST("/messages/:id/reactions", handlers.ReactToMessage)
		chat.POST("/upload", handlers.UploadMessage)
		chat.POST("/read/:senderId", handlers.MarkRead)
	}
}
