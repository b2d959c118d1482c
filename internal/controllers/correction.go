package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"job-order-system/internal/dto"
	"job-order-system/internal/services"
	"job-order-system/pkg/api"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/utils"
)

type CorrectionController struct {
	correctionService services.CorrectionServiceInterface
	logger            *zap.Logger
}

func NewCorrectionController(correctionService services.CorrectionServiceInterface, logger *zap.Logger) *CorrectionController {
	return &CorrectionController{correctionService: correctionService, logger: logger}
}

func (c *CorrectionController) GetCorrections(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.correctionService.GetCorrections(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "Corrections retrieved", list, total, filter)
}

// SubmitCorrection: :ticket - ticket code job order (JO-YYYYMMDD-XXXXXX).
func (c *CorrectionController) SubmitCorrection(ctx echo.Context) error {
	ticket := strings.TrimSpace(ctx.Param("ticket"))
	if ticket == "" {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "invalid ticket", nil, nil), c.logger)
	}
	var payload dto.SubmitCorrectionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.correctionService.SubmitCorrection(ctx.Request().Context(), ticket, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Correction submitted for approval", res)
}

func (c *CorrectionController) ResolveCorrection(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "correction")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ResolveCorrectionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.correctionService.ResolveCorrection(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Correction "+res.Status, res)
}
