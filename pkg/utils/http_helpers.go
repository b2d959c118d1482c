package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/types"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Filter: make(map[string]string),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.ParseUint(limitStr, 10, 64); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.ParseUint(pageStr, 10, 64); err == nil && p > 0 {
			filterReq.Page = p
		}
	}
	filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit

	filterReq.Archived, _ = strconv.ParseBool(values.Get("archived"))
	filterReq.Search = strings.TrimSpace(values.Get("search"))
	filterReq.Sort = strings.TrimSpace(values.Get("sort"))

	for key, vals := range values {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field := key[7 : len(key)-1]
		for _, v := range vals {
			if v == "" {
				continue
			}
			if existing, ok := filterReq.Filter[field]; ok {
				filterReq.Filter[field] = existing + "," + v
			} else {
				filterReq.Filter[field] = v
			}
		}
	}

	return filterReq
}

// ParseIDParam читает числовой параметр пути.
func ParseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name), nil, nil)
	}
	return id, nil
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HTTPResponse{Status: true, Body: body, Message: message})
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil && httpErr.Code >= http.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}
		response := &HTTPResponse{Status: false, Message: httpErr.Message, Body: httpErr.Details}
		return c.JSON(httpErr.Code, response)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			fields[fe.Field()] = validationMessage(fe)
		}
		return c.JSON(http.StatusUnprocessableEntity, &HTTPResponse{Status: false, Message: "The given data was invalid.", Body: fields})
	}

	var fieldErr *apperrors.ValidationError
	if errors.As(err, &fieldErr) {
		return c.JSON(http.StatusUnprocessableEntity, &HTTPResponse{Status: false, Message: "The given data was invalid.", Body: fieldErr.Fields})
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return c.JSON(http.StatusBadRequest, &HTTPResponse{Status: false, Message: inputErr.Message})
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return c.JSON(echoErr.Code, &HTTPResponse{Status: false, Message: fmt.Sprint(echoErr.Message)})
	}

	if sentinel, code, ok := matchSentinel(err); ok {
		return c.JSON(code, &HTTPResponse{Status: false, Message: sentinel.Error()})
	}

	logger.Error("Unexpected Error", zap.Error(err), zap.String("path", c.Path()))
	return c.JSON(http.StatusInternalServerError, &HTTPResponse{
		Status:  false,
		Message: apperrors.ErrInternalServer.Error(),
	})
}

var sentinelCodes = []struct {
	err  error
	code int
}{
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrUserNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrInvalidTransition, http.StatusConflict},
	{apperrors.ErrAlreadyResolved, http.StatusConflict},
	{apperrors.ErrKindMismatch, http.StatusConflict},
	{apperrors.ErrArchived, http.StatusConflict},
	{apperrors.ErrConflict, http.StatusConflict},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

// StatusCodeFor возвращает HTTP код для известной ошибки приложения.
func StatusCodeFor(err error) (int, bool) {
	_, code, ok := matchSentinel(err)
	return code, ok
}

// matchSentinel: в ответ уходит текст самой sentinel-ошибки, без префиксов операций.
func matchSentinel(err error) (error, int, bool) {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.err, sc.code, true
		}
	}
	return nil, 0, false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("The %s field must be at least %s.", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("The %s field may not be greater than %s.", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", fe.Field())
	case "contact_number":
		return fmt.Sprintf("The %s field must be a valid phone number.", fe.Field())
	case "hhmm":
		return fmt.Sprintf("The %s field must be a time in HH:MM format.", fe.Field())
	case "job_status":
		return fmt.Sprintf("The selected %s is invalid.", fe.Field())
	case "cancelled_status":
		return fmt.Sprintf("The %s field must be one of: failed, dropped, closed.", fe.Field())
	}
	return fmt.Sprintf("The %s field failed on the '%s' rule.", fe.Field(), fe.Tag())
}
