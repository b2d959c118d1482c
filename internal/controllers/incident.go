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

type IncidentController struct {
	incidentService services.IncidentServiceInterface
	logger          *zap.Logger
}

func NewIncidentController(incidentService services.IncidentServiceInterface, logger *zap.Logger) *IncidentController {
	return &IncidentController{incidentService: incidentService, logger: logger}
}

func (c *IncidentController) GetIncidents(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.incidentService.GetIncidents(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "Incidents retrieved", list, total, filter)
}

func (c *IncidentController) CreateIncident(ctx echo.Context) error {
	var payload dto.CreateIncidentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.incidentService.CreateIncident(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Incident reported", res)
}

func (c *IncidentController) VerifyIncident(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.VerifyIncidentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.incidentService.VerifyIncident(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Incident marked as "+res.Status, res)
}
