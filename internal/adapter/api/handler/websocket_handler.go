package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/middleware"
	ws "vetclinic/internal/infrastructure/websocket"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
	"vetclinic/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	upgrader  gorillaws.Upgrader
	// ctx outlives the upgrade request and is cancelled on shutdown.
	ctx context.Context
}

// NewWebSocketHandler accepts connections from any origin when allowedOrigins is empty.
func NewWebSocketHandler(ctx context.Context, wsManager *ws.Manager, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		wsManager: wsManager,
		ctx:       ctx,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logger.Warn("WebSocket: upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register(client)

	go client.ReadPump(h.ctx, h.wsManager)
	go client.WritePump()

	return nil
}
