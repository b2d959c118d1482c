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

// archiveAction - DELETE /:id и PATCH /:id/restore справочников.
func archiveAction(ctx echo.Context, logger *zap.Logger, message string, fn func(context.Context, uint64) error) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, logger)
	}
	if err := fn(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, logger)
	}
	return utils.SuccessResponse(ctx, nil, message, http.StatusOK)
}

type TruckController struct {
	truckService services.TruckServiceInterface
	logger       *zap.Logger
}

func NewTruckController(truckService services.TruckServiceInterface, logger *zap.Logger) *TruckController {
	return &TruckController{truckService: truckService, logger: logger}
}

func (c *TruckController) GetTrucks(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	list, total, err := c.truckService.GetTrucks(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "Trucks retrieved", list, total, filter)
}

func (c *TruckController) CreateTruck(ctx echo.Context) error {
	var payload dto.CreateTruckDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.truckService.CreateTruck(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Truck created", res)
}

func (c *TruckController) ArchiveTruck(ctx echo.Context) error {
	return archiveAction(ctx, c.logger, "Truck archived", c.truckService.ArchiveTruck)
}

func (c *TruckController) RestoreTruck(ctx echo.Context) error {
	return archiveAction(ctx, c.logger, "Truck restored", c.truckService.RestoreTruck)
}

type EmployeeController struct {
	employeeService services.EmployeeServiceInterface
	logger          *zap.Logger
}

func NewEmployeeController(employeeService services.EmployeeServiceInterface, logger *zap.Logger) *EmployeeController {
	return &EmployeeController{employeeService: employeeService, logger: logger}
}

func (c *EmployeeController) GetEmployees(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	list, total, err := c.employeeService.GetEmployees(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "Employees retrieved", list, total, filter)
}

func (c *EmployeeController) CreateEmployee(ctx echo.Context) error {
	var payload dto.CreateEmployeeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.employeeService.CreateEmployee(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Employee created", res)
}

func (c *EmployeeController) ArchiveEmployee(ctx echo.Context) error {
	return archiveAction(ctx, c.logger, "Employee archived", c.employeeService.ArchiveEmployee)
}

func (c *EmployeeController) RestoreEmployee(ctx echo.Context) error {
	return archiveAction(ctx, c.logger, "Employee restored", c.employeeService.RestoreEmployee)
}
