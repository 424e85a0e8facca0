package handler

import (
	"github.com/labstack/echo/v4"

	"stakemarket/internal/adapter/api/middleware"
	"stakemarket/internal/usecase"
	"stakemarket/pkg/response"
	"stakemarket/pkg/utils"
)

type NotificationHandler struct {
	notifications *usecase.NotificationUseCase
	chat          *usecase.ChatUseCase
}

func NewNotificationHandler(notifications *usecase.NotificationUseCase, chat *usecase.ChatUseCase) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, chat: chat}
}

func (h *NotificationHandler) List(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notifications.List(c.Request().Context(), principal.ID, params.ItemsPerPage, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, utils.Paginate(notifications, params.Page, total, params.ItemsPerPage))
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)

	if err := h.notifications.MarkAllRead(c.Request().Context(), principal.ID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"updated": true})
}

// UnreadMessages returns one has-unread boolean per conversation kind.
func (h *NotificationHandler) UnreadMessages(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)

	summary, err := h.chat.UnreadSummary(c.Request().Context(), principal.ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}
