package routes

import (
	"github.com/labstack/echo/v4"

	"job-order-system/internal/controllers"
	"job-order-system/pkg/middleware"
)

func runAuthRouter(api *echo.Group, ctrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	api.POST("/auth/login", ctrl.Login)
	api.GET("/auth/me", ctrl.Me, authMW.Auth)
}
