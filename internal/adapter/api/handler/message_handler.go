package handler

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/middleware"
	"vetclinic/internal/usecase"
	"vetclinic/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Content     string `json:"content" validate:"max=4000"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text image file"`
	FileURL     string `json:"file_url" validate:"omitempty,uri"`
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), middleware.UserID(c), usecase.SendMessageInput{
		ConversationID: c.Param("conversationId"),
		Content:        req.Content,
		MessageType:    req.MessageType,
		FileURL:        req.FileURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetMessages lists the conversation and marks what the caller received as read.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	messages, err := h.messageUseCase.GetMessagesInConversation(c.Request().Context(), c.Param("conversationId"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *MessageHandler) MarkAsRead(c echo.Context) error {
	message, err := h.messageUseCase.MarkMessageAsRead(c.Request().Context(), c.Param("messageId"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.messageUseCase.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"count": count})
}
