package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/handler"
	"vetclinic/internal/adapter/api/middleware"
)

type Options struct {
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	// UploadDir is served under /uploads when attachments are stored on local disk.
	UploadDir string
}

func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, opts Options) {
	SetupHealthRouter(e, h.Health, opts.MetricsHandler)
	SetupConversationRouter(e, h.Conversation, h.Message, authMiddleware)
	SetupMessageRouter(e, h.Message, authMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupUserRouter(e, h.User, h.Notification, authMiddleware)
	SetupFileRouter(e, h.File, authMiddleware, opts.UploadDir)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	if h.DevToken != nil {
		SetupDevRouter(e, h.DevToken)
	}
}
