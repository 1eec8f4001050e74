package router

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)
	users.GET("/me", userHandler.GetMe)
	users.PUT("/me", userHandler.UpdateMe)

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.AdminOnly)
	admin.PUT("/users/:id/role", userHandler.SetRole)
	admin.GET("/users/:id/notifications", notificationHandler.GetUserNotifications)
}
