package service

import (
	stderrors "errors"
	"time"

	"github.com/aarondl/null/v8"
	jwt "github.com/golang-jwt/jwt/v5"

	"job-order-system/internal/entities"
	"job-order-system/pkg/errors"
)

type JwtCustomClaim struct {
	UserID     uint64  `json:"userId"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	EmployeeID *uint64 `json:"employeeId,omitempty"`
	jwt.RegisteredClaims
}

// Actor восстанавливает пользователя из claims без похода в базу.
func (c *JwtCustomClaim) Actor() *entities.User {
	u := &entities.User{ID: c.UserID, Name: c.Name, Role: c.Role}
	if c.EmployeeID != nil {
		u.EmployeeID = null.Uint64From(*c.EmployeeID)
	}
	return u
}

type JWTService interface {
	GenerateToken(user *entities.User) (string, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	GetAccessTokenTTL() time.Duration
}

type jwtService struct {
	SecretKey      string
	AccessTokenExp time.Duration
	now            func() time.Time
}

func NewJWTService(secretKey string, accessTokenExp time.Duration) JWTService {
	return &jwtService{
		SecretKey:      secretKey,
		AccessTokenExp: accessTokenExp,
		now:            time.Now,
	}
}

func (s *jwtService) GenerateToken(user *entities.User) (string, error) {
	issuedAt := s.now()
	claims := &JwtCustomClaim{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.AccessTokenExp)),
		},
	}
	if user.EmployeeID.Valid {
		id := user.EmployeeID.Uint64
		claims.EmployeeID = &id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(s.SecretKey))
}

func (s *jwtService) GetAccessTokenTTL() time.Duration {
	return s.AccessTokenExp
}

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return []byte(s.SecretKey), nil
		default:
			return nil, errors.ErrInvalidSigningMethod
		}
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.ErrTokenExpired
		case stderrors.Is(err, errors.ErrInvalidSigningMethod):
			return nil, errors.ErrInvalidSigningMethod
		}
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
