package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"job-order-system/internal/dto"
	"job-order-system/internal/services"
	"job-order-system/pkg/api"
	"job-order-system/pkg/utils"
)

type ITServiceController struct {
	itService services.ITServiceServiceInterface
	logger    *zap.Logger
}

func NewITServiceController(itService services.ITServiceServiceInterface, logger *zap.Logger) *ITServiceController {
	return &ITServiceController{itService: itService, logger: logger}
}

func (c *ITServiceController) AssignTechnician(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.AssignTechnicianDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.itService.AssignTechnician(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Technician assigned", res)
}

func (c *ITServiceController) SubmitInitialReport(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.OnsiteReportDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.itService.SubmitInitialReport(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, movedTo(res), res)
}

func (c *ITServiceController) SubmitFinalReport(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.OnsiteReportDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.itService.SubmitFinalReport(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, movedTo(res), res)
}

type OtherServiceController struct {
	otherService services.OtherServiceServiceInterface
	logger       *zap.Logger
}

func NewOtherServiceController(otherService services.OtherServiceServiceInterface, logger *zap.Logger) *OtherServiceController {
	return &OtherServiceController{otherService: otherService, logger: logger}
}

func (c *OtherServiceController) Complete(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CompleteOtherServiceDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.otherService.Complete(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, movedTo(res), res)
}
