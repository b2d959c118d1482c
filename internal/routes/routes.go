package routes

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"job-order-system/internal/authz"
	"job-order-system/internal/controllers"
	"job-order-system/internal/repositories"
	"job-order-system/internal/services"
	"job-order-system/pkg/logger"
	"job-order-system/pkg/middleware"
	"job-order-system/pkg/service"
)

// Controllers - все HTTP обработчики приложения.
type Controllers struct {
	Auth            *controllers.AuthController
	JobOrder        *controllers.JobOrderController
	WasteManagement *controllers.WasteManagementController
	ITService       *controllers.ITServiceController
	OtherService    *controllers.OtherServiceController
	Correction      *controllers.CorrectionController
	Incident        *controllers.IncidentController
	Truck           *controllers.TruckController
	Employee        *controllers.EmployeeController
}

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, jwtSvc service.JWTService, gate *authz.Gatekeeper, loggers *logger.Loggers) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. РЕПОЗИТОРИИ ---
	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	jobOrderRepo := repositories.NewJobOrderRepository(dbConn, loggers.JobOrder)
	wasteRepo := repositories.NewWasteManagementRepository(dbConn)
	itRepo := repositories.NewITServiceRepository(dbConn)
	otherRepo := repositories.NewOtherServiceRepository(dbConn)
	haulingRepo := repositories.NewHaulingRepository(dbConn)
	cancelledRepo := repositories.NewCancelledJobOrderRepository(dbConn)
	correctionRepo := repositories.NewCorrectionRepository(dbConn)
	incidentRepo := repositories.NewIncidentRepository(dbConn)
	truckRepo := repositories.NewTruckRepository(dbConn)
	employeeRepo := repositories.NewEmployeeRepository(dbConn)

	// --- 2. СЕРВИСЫ ---
	registry := services.NewServiceableRegistry(wasteRepo, itRepo, otherRepo, haulingRepo)
	authService := services.NewAuthService(userRepo, jwtSvc, gate, loggers.Auth)
	jobOrderService := services.NewJobOrderService(txManager, jobOrderRepo, wasteRepo, itRepo, otherRepo,
		haulingRepo, cancelledRepo, employeeRepo, registry, gate, loggers.JobOrder)
	wasteService := services.NewWasteManagementService(txManager, jobOrderRepo, wasteRepo, haulingRepo,
		truckRepo, employeeRepo, gate, loggers.JobOrder)
	itService := services.NewITServiceService(txManager, jobOrderRepo, itRepo, employeeRepo, gate, loggers.JobOrder)
	otherService := services.NewOtherServiceService(txManager, jobOrderRepo, otherRepo, gate, loggers.JobOrder)
	correctionService := services.NewCorrectionService(txManager, jobOrderRepo, correctionRepo, registry, gate, loggers.Correction)
	incidentService := services.NewIncidentService(txManager, incidentRepo, jobOrderRepo, haulingRepo, gate, loggers.Main)
	truckService := services.NewTruckService(truckRepo, gate, loggers.Registry)
	employeeService := services.NewEmployeeService(employeeRepo, gate, loggers.Registry)

	// --- 3. КОНТРОЛЛЕРЫ ---
	ctrls := &Controllers{
		Auth:            controllers.NewAuthController(authService, loggers.Auth),
		JobOrder:        controllers.NewJobOrderController(jobOrderService, loggers.JobOrder),
		WasteManagement: controllers.NewWasteManagementController(wasteService, loggers.JobOrder),
		ITService:       controllers.NewITServiceController(itService, loggers.JobOrder),
		OtherService:    controllers.NewOtherServiceController(otherService, loggers.JobOrder),
		Correction:      controllers.NewCorrectionController(correctionService, loggers.Correction),
		Incident:        controllers.NewIncidentController(incidentService, loggers.Main),
		Truck:           controllers.NewTruckController(truckService, loggers.Registry),
		Employee:        controllers.NewEmployeeController(employeeService, loggers.Registry),
	}

	// --- 4. РОУТЕРЫ ---
	authMW := middleware.NewAuthMiddleware(jwtSvc, gate, loggers.Auth)
	RegisterRoutes(e.Group("/api"), authMW, ctrls)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}

// RegisterRoutes вешает обработчики на группу /api.
func RegisterRoutes(api *echo.Group, authMW *middleware.AuthMiddleware, c *Controllers) {
	runAuthRouter(api, c.Auth, authMW)

	secureGroup := api.Group("", authMW.Auth)
	runJobOrderRouter(secureGroup, c, authMW)
	runCorrectionRouter(secureGroup, c.Correction, authMW)
	runIncidentRouter(secureGroup, c.Incident, authMW)
	runRegistryRouter(secureGroup, c.Truck, c.Employee, authMW)
}
