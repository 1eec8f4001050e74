package handler

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/middleware"
	"vetclinic/internal/usecase"
	"vetclinic/pkg/response"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type createConversationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

// CreateConversation returns the caller's conversation with the recipient, creating it on first contact.
func (h *ConversationHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := middleware.UserID(c)

	conversation, err := h.conversationUseCase.CreateOrGetConversation(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

func (h *ConversationHandler) GetMyConversations(c echo.Context) error {
	conversations, err := h.conversationUseCase.GetConversationsForUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ConversationHandler) GetConversationByID(c echo.Context) error {
	conversation, err := h.conversationUseCase.GetConversationByID(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}
