package routes

import (
	"github.com/labstack/echo/v4"

	"job-order-system/internal/authz"
	"job-order-system/internal/controllers"
	"job-order-system/pkg/middleware"
)

func runCorrectionRouter(secureGroup *echo.Group, ctrl *controllers.CorrectionController, authMW *middleware.AuthMiddleware) {
	corrections := secureGroup.Group("/job-orders/corrections")
	corrections.GET("", ctrl.GetCorrections, authMW.AuthorizeAny(authz.CorrectionView, authz.CorrectionCreate))
	corrections.POST("/:ticket", ctrl.SubmitCorrection, authMW.AuthorizeAny(authz.CorrectionCreate))
	corrections.PATCH("/:correction", ctrl.ResolveCorrection, authMW.AuthorizeAny(authz.CorrectionApprove))
}

func runIncidentRouter(secureGroup *echo.Group, ctrl *controllers.IncidentController, authMW *middleware.AuthMiddleware) {
	incidents := secureGroup.Group("/incidents")
	incidents.GET("", ctrl.GetIncidents, authMW.AuthorizeAny(authz.IncidentView, authz.IncidentCreate))
	incidents.POST("", ctrl.CreateIncident, authMW.AuthorizeAny(authz.IncidentCreate))
	incidents.PATCH("/:id/verify", ctrl.VerifyIncident, authMW.AuthorizeAny(authz.IncidentVerify))
}
