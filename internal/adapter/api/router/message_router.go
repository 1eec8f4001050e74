package router

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.GET("/unread-count", messageHandler.UnreadCount)
	messages.PUT("/:messageId/read", messageHandler.MarkAsRead)
}
