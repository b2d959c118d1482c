package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"job-order-system/internal/dto"
	"job-order-system/internal/services"
	"job-order-system/pkg/api"
	"job-order-system/pkg/utils"
)

type WasteManagementController struct {
	wasteService services.WasteManagementServiceInterface
	logger       *zap.Logger
}

func NewWasteManagementController(wasteService services.WasteManagementServiceInterface, logger *zap.Logger) *WasteManagementController {
	return &WasteManagementController{wasteService: wasteService, logger: logger}
}

// transition - общий обработчик для переходов без тела запроса.
func (c *WasteManagementController) transition(ctx echo.Context, fn func(context.Context, uint64) (*dto.JobOrderDTO, error)) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := fn(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, movedTo(res), res)
}

func (c *WasteManagementController) AssignAppraisers(ctx echo.Context) error {
	var payload dto.AssignAppraisersDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.wasteService.AssignAppraisers(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Appraisers assigned", res)
}

func (c *WasteManagementController) SubmitAppraisal(ctx echo.Context) error {
	var payload dto.SubmitAppraisalDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.transition(ctx, func(reqCtx context.Context, id uint64) (*dto.JobOrderDTO, error) {
		return c.wasteService.SubmitAppraisal(reqCtx, id, payload)
	})
}

func (c *WasteManagementController) SubmitProposal(ctx echo.Context) error {
	var payload dto.SubmitProposalDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.transition(ctx, func(reqCtx context.Context, id uint64) (*dto.JobOrderDTO, error) {
		return c.wasteService.SubmitProposal(reqCtx, id, payload)
	})
}

func (c *WasteManagementController) ApproveProposal(ctx echo.Context) error {
	return c.transition(ctx, c.wasteService.ApproveProposal)
}

func (c *WasteManagementController) AssignHaulingPersonnel(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.AssignHaulingPersonnelDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.wasteService.AssignHaulingPersonnel(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Hauling personnel assigned", res)
}

func (c *WasteManagementController) CompleteSafetyChecklist(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CompleteSafetyChecklistDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.wasteService.CompleteSafetyChecklist(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Safety checklist completed", res)
}

func (c *WasteManagementController) MarkInProgress(ctx echo.Context) error {
	return c.transition(ctx, c.wasteService.MarkInProgress)
}

func (c *WasteManagementController) Hold(ctx echo.Context) error {
	return c.transition(ctx, c.wasteService.Hold)
}

func (c *WasteManagementController) Resume(ctx echo.Context) error {
	return c.transition(ctx, c.wasteService.Resume)
}

func (c *WasteManagementController) Complete(ctx echo.Context) error {
	return c.transition(ctx, c.wasteService.Complete)
}
