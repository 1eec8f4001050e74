package router

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.GetMyNotifications)
	notifications.DELETE("", notificationHandler.DeleteAllMyNotifications)
	notifications.GET("/unread-count", notificationHandler.CountUnread)
	notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
	notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
	notifications.DELETE("/:id", notificationHandler.DeleteNotification)

	notifications.POST("", notificationHandler.CreateNotification, middleware.StaffOnly)
}
