package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")

	// Авторизация
	ErrEmptyAuthHeader    = errors.New("authorization header is missing")
	ErrInvalidAuthHeader  = errors.New("authorization header is malformed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("this action is unauthorized")

	// Контекст
	ErrUserNotFoundInContext = errors.New("user not found in request context")

	// Рабочий процесс
	ErrInvalidTransition = errors.New("job order is not in a status that allows this action")
	ErrAlreadyResolved   = errors.New("correction has already been resolved")
	ErrKindMismatch      = errors.New("job order does not belong to this service type")
	ErrArchived          = errors.New("job order is archived")

	// Общие
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("record conflicts with an existing one")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("something went wrong, please try again")
)

// HttpError несёт код ответа, сообщение для пользователя и исходную ошибку для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError - ошибки по полям (field -> сообщение).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
