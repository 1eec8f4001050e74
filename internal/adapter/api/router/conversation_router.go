package router

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", conversationHandler.CreateConversation)
	conversations.GET("/mine", conversationHandler.GetMyConversations)
	conversations.GET("/:id", conversationHandler.GetConversationByID)

	conversations.GET("/:conversationId/messages", messageHandler.GetMessages)
	conversations.POST("/:conversationId/messages", messageHandler.SendMessage)
}
