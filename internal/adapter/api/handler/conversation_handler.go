package handler

import (
	"github.com/labstack/echo/v4"

	"stakemarket/internal/adapter/api/middleware"
	"stakemarket/internal/domain/entity"
	"stakemarket/internal/usecase"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/response"
	"stakemarket/pkg/utils"
)

type ConversationHandler struct {
	chat      *usecase.ChatUseCase
	reactions *usecase.ReactionUseCase
}

func NewConversationHandler(chat *usecase.ChatUseCase, reactions *usecase.ReactionUseCase) *ConversationHandler {
	return &ConversationHandler{chat: chat, reactions: reactions}
}

// List pages the caller's conversations of one kind.
func (h *ConversationHandler) List(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	params := utils.GetPaginationParams(c)

	kind := entity.ConversationKind(c.QueryParam("type"))
	if kind == "" {
		kind = entity.ConversationDirect
	}
	if !kind.Valid() {
		return response.Error(c, errors.BadRequest("Invalid conversation type", nil))
	}

	views, total, err := h.chat.ConversationList(c.Request().Context(), principal, kind, params.ItemsPerPage, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, utils.Paginate(views, params.Page, total, params.ItemsPerPage))
}

// DirectMessages pages a 1:1 history, resolving the conversation from the
// receiver when no conversationId is given.
func (h *ConversationHandler) DirectMessages(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	params := utils.GetPaginationParams(c)

	receiverID := c.QueryParam("receiver")
	conversationID := c.QueryParam("conversationId")
	if receiverID == "" && conversationID == "" {
		return response.Error(c, errors.BadRequest("receiver or conversationId is required", nil))
	}

	views, total, conv, err := h.chat.DirectHistory(c.Request().Context(), principal, receiverID, conversationID, params.ItemsPerPage, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation": conv,
		"messages":     utils.Paginate(views, params.Page, total, params.ItemsPerPage),
	})
}

// CommunityMessages pages a community or stake history by channel key.
func (h *ConversationHandler) CommunityMessages(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	params := utils.GetPaginationParams(c)

	channelKey := c.QueryParam("channelName")
	if channelKey == "" {
		return response.Error(c, errors.BadRequest("channelName is required", nil))
	}

	kind := entity.ConversationCommunity
	if c.QueryParam("type") == "stake" {
		kind = entity.ConversationStake
	}

	views, total, conv, err := h.chat.GroupHistory(c.Request().Context(), principal, channelKey, kind, params.ItemsPerPage, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation": conv,
		"messages":     utils.Paginate(views, params.Page, total, params.ItemsPerPage),
	})
}

// Reactions returns the reaction state of one message.
func (h *ConversationHandler) Reactions(c echo.Context) error {
	messageID := c.QueryParam("messageId")
	if messageID == "" {
		return response.Error(c, errors.BadRequest("messageId is required", nil))
	}

	message, err := h.reactions.GetReactions(c.Request().Context(), messageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"reaction":  message.Reaction,
		"reactions": message.Reactions,
	})
}
