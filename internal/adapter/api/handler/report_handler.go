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

type ReportHandler struct {
	moderation *usecase.ModerationUseCase
}

func NewReportHandler(moderation *usecase.ModerationUseCase) *ReportHandler {
	return &ReportHandler{moderation: moderation}
}

type createReportRequest struct {
	MessageID string `json:"messageId" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
	Details   string `json:"details"`
}

func (h *ReportHandler) Create(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)

	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.moderation.ReportMessage(c.Request().Context(), principal, req.MessageID, entity.ReportReason(req.Reason), req.Details)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, report)
}

func (h *ReportHandler) List(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	reports, total, err := h.moderation.ListReports(c.Request().Context(), params.ItemsPerPage, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, utils.Paginate(reports, params.Page, total, params.ItemsPerPage))
}

type blockRequest struct {
	PrincipalID   string `json:"principalId" validate:"required"`
	PrincipalType string `json:"principalType" validate:"omitempty,oneof=user admin"`
	Action        string `json:"action" validate:"omitempty,oneof=warning temporary_suspension permanent_ban"`
	Details       string `json:"details"`
}

// Block suspends the principal behind a report and evicts their session.
func (h *ReportHandler) Block(c echo.Context) error {
	admin := middleware.PrincipalFrom(c)
	reportID := c.Param("id")

	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	target := entity.Principal{ID: req.PrincipalID, Kind: entity.PrincipalKind(req.PrincipalType)}
	if !target.Kind.Valid() {
		target.Kind = entity.PrincipalUser
	}

	err := h.moderation.BlockPrincipal(c.Request().Context(), admin.ID, reportID, target, entity.ModerationAction(req.Action), req.Details)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"blocked": true})
}

func (h *ReportHandler) DeleteMessage(c echo.Context) error {
	admin := middleware.PrincipalFrom(c)
	messageID := c.Param("id")

	if err := h.moderation.DeleteMessage(c.Request().Context(), admin.ID, messageID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"deleted": true})
}

type unblockRequest struct {
	Details string `json:"details"`
}

func (h *ReportHandler) RequestUnblock(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)

	var req unblockRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := h.moderation.RequestUnblock(c.Request().Context(), principal, req.Details); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"requested": true})
}
