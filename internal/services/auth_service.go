package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/service"
	"job-order-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
	Me(ctx context.Context) (*dto.AuthUserDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	gate       *authz.Gatekeeper
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	jwtService service.JWTService,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, gate: gate, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Ошибка поиска пользователя", zap.Error(err))
			return nil, err
		}
		s.logger.Warn("Вход с неизвестным email", zap.String("email", email))
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.logger.Warn("Неверный пароль", zap.Uint64("user_id", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		s.logger.Error("Не удалось выпустить токен", zap.Uint64("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Пользователь вошёл в систему", zap.Uint64("user_id", user.ID), zap.String("role", user.Role))
	return &dto.LoginResponseDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:        s.userDTO(user),
	}, nil
}

func (s *AuthService) Me(ctx context.Context) (*dto.AuthUserDTO, error) {
	actor, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, nil, actor.ID)
	if err != nil {
		return nil, err
	}
	out := s.userDTO(user)
	return &out, nil
}

func (s *AuthService) userDTO(user *entities.User) dto.AuthUserDTO {
	out := dto.AuthUserDTO{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: s.gate.Permissions(user),
	}
	if user.EmployeeID.Valid {
		out.EmployeeID = utils.ToPtr(user.EmployeeID.Uint64)
	}
	return out
}
