package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/service"
	"job-order-system/pkg/utils"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	gate       *authz.Gatekeeper
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, gate *authz.Gatekeeper, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		gate:       gate,
		logger:     logger,
	}
}

// Auth проверяет Bearer токен и кладёт актора в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: Пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		actor := claims.Actor()
		c.SetRequest(c.Request().WithContext(utils.WithActor(c.Request().Context(), actor)))

		m.logger.Debug("AuthMiddleware: Пользователь аутентифицирован",
			zap.Uint64("userID", actor.ID), zap.String("role", actor.Role))

		return next(c)
	}
}

// AuthorizeAny пропускает, если у роли есть хотя бы одно из прав.
// Проверки владения (создатель, техник, бригадир) делают сервисы.
func (m *AuthMiddleware) AuthorizeAny(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := utils.GetActorFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, m.logger)
			}
			for _, p := range permissions {
				if m.gate.Can(actor, p) {
					return next(c)
				}
			}
			m.logger.Warn("AuthMiddleware: Доступ запрещён",
				zap.Uint64("userID", actor.ID),
				zap.String("role", actor.Role),
				zap.Strings("required", permissions))
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}
	}
}
