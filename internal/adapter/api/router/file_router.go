package router

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware, uploadDir string) {
	uploads := e.Group("/v1/uploads")
	uploads.Use(authMiddleware.Authenticate)
	uploads.POST("", fileHandler.UploadFile)

	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}
}
