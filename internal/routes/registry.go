package routes

import (
	"github.com/labstack/echo/v4"

	"job-order-system/internal/authz"
	"job-order-system/internal/controllers"
	"job-order-system/pkg/middleware"
)

func runRegistryRouter(secureGroup *echo.Group, trucks *controllers.TruckController, employees *controllers.EmployeeController, authMW *middleware.AuthMiddleware) {
	manageTrucks := authMW.AuthorizeAny(authz.TruckManage)
	secureGroup.GET("/trucks", trucks.GetTrucks, authMW.AuthorizeAny(authz.TruckView))
	secureGroup.POST("/trucks", trucks.CreateTruck, manageTrucks)
	secureGroup.DELETE("/trucks/:id", trucks.ArchiveTruck, manageTrucks)
	secureGroup.PATCH("/trucks/:id/restore", trucks.RestoreTruck, manageTrucks)

	manageEmployees := authMW.AuthorizeAny(authz.EmployeeManage)
	secureGroup.GET("/employees", employees.GetEmployees, authMW.AuthorizeAny(authz.EmployeeView))
	secureGroup.POST("/employees", employees.CreateEmployee, manageEmployees)
	secureGroup.DELETE("/employees/:id", employees.ArchiveEmployee, manageEmployees)
	secureGroup.PATCH("/employees/:id/restore", employees.RestoreEmployee, manageEmployees)
}
