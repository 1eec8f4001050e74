package handler

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/adapter/api/middleware"
	"vetclinic/internal/usecase"
	"vetclinic/pkg/response"
	"vetclinic/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

type createNotificationRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Message   string `json:"message" validate:"required,max=2000"`
	Type      string `json:"type" validate:"omitempty,oneof=generic appointment_created appointment_approved appointment_cancelled appointment_rejected appointment_completed"`
	EntityID  string `json:"entity_id"`
}

func (h *NotificationHandler) GetMyNotifications(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationUseCase.GetMyNotifications(c.Request().Context(), middleware.UserID(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, notifications, total, params.Page, params.PageSize)
}

func (h *NotificationHandler) GetUserNotifications(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationUseCase.GetNotificationsByUser(
		c.Request().Context(),
		middleware.UserID(c),
		middleware.Role(c),
		c.Param("id"),
		params.PageSize,
		params.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, notifications, total, params.Page, params.PageSize)
}

func (h *NotificationHandler) CountUnread(c echo.Context) error {
	count, err := h.notificationUseCase.CountUnread(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notification, err := h.notificationUseCase.MarkAsRead(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, notification)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	count, err := h.notificationUseCase.MarkAllAsRead(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": count})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	if err := h.notificationUseCase.DeleteNotification(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Notification deleted"})
}

func (h *NotificationHandler) DeleteAllMyNotifications(c echo.Context) error {
	count, err := h.notificationUseCase.DeleteAllMyNotifications(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"deleted": count})
}

// CreateNotification lets staff notify a user directly.
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	notification, err := h.notificationUseCase.SendStaffNotification(c.Request().Context(), middleware.UserID(c), usecase.CreateNotificationInput{
		Recipient: req.Recipient,
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		EntityID:  req.EntityID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, notification)
}
