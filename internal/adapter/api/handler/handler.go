package handler

import (
	"context"

	"vetclinic/internal/domain/repository"
	"vetclinic/internal/domain/service"
	"vetclinic/internal/infrastructure/auth"
	ws "vetclinic/internal/infrastructure/websocket"
	"vetclinic/internal/usecase"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Conversation *ConversationHandler
	Message      *MessageHandler
	Notification *NotificationHandler
	User         *UserHandler
	File         *FileHandler
	WebSocket    *WebSocketHandler
	Health       *HealthHandler
	// DevToken is nil unless local JWT auth runs in development.
	DevToken *DevTokenHandler
}

type Dependencies struct {
	ConversationUseCase *usecase.ConversationUseCase
	MessageUseCase      *usecase.MessageUseCase
	NotificationUseCase *usecase.NotificationUseCase
	UserUseCase         *usecase.UserUseCase

	FileService      service.FileUploadService
	FileMetadataRepo repository.FileMetadataRepository
	MaxUploadBytes   int64

	WSManager      *ws.Manager
	AllowedOrigins []string

	HealthChecks map[string]HealthCheck

	DevTokenIssuer *auth.JWTProvider
	UserRepo       repository.UserRepository
}

func Setup(ctx context.Context, deps Dependencies) *Handlers {
	h := &Handlers{
		Conversation: NewConversationHandler(deps.ConversationUseCase),
		Message:      NewMessageHandler(deps.MessageUseCase),
		Notification: NewNotificationHandler(deps.NotificationUseCase),
		User:         NewUserHandler(deps.UserUseCase),
		File:         NewFileHandler(deps.FileService, deps.FileMetadataRepo, deps.MaxUploadBytes),
		WebSocket:    NewWebSocketHandler(ctx, deps.WSManager, deps.AllowedOrigins),
		Health:       NewHealthHandler(deps.HealthChecks),
	}
	if deps.DevTokenIssuer != nil {
		h.DevToken = NewDevTokenHandler(deps.DevTokenIssuer, deps.UserRepo)
	}
	return h
}
