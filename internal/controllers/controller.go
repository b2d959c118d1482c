package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"job-order-system/internal/dto"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
)

// bindAndValidate разбирает тело запроса в payload и прогоняет валидатор echo.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Request body is not valid JSON", err, nil)
	}
	return ctx.Validate(payload)
}

// movedTo - текст ответа после перехода job order.
func movedTo(jo *dto.JobOrderDTO) string {
	return fmt.Sprintf("Job order %s moved to %s", jo.TicketCode, constants.Label(jo.Status))
}
