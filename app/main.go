package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"job-order-system/internal/authz"
	"job-order-system/internal/jobs"
	"job-order-system/internal/repositories"
	"job-order-system/internal/routes"
	"job-order-system/pkg/config"
	"job-order-system/pkg/database/migrations"
	"job-order-system/pkg/database/postgresql"
	apperrors "job-order-system/pkg/errors"
	applogger "job-order-system/pkg/logger"
	appmiddleware "job-order-system/pkg/middleware"
	"job-order-system/pkg/service"
	"job-order-system/pkg/utils"
	"job-order-system/pkg/validation"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	baseLogger, err := applogger.NewLogger(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	loggers := applogger.NewLoggers(baseLogger)
	logger := loggers.Main

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Хранилища
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		if err := migrations.Up(ctx, dbConn); err != nil {
			logger.Fatal("не удалось применить миграции", zap.Error(err))
		}
		logger.Info("Миграции применены")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 2. Права и токены
	table, err := authz.LoadTable(cfg.Authz.PermissionsFile)
	if err != nil {
		logger.Fatal("не удалось загрузить таблицу прав", zap.Error(err))
	}
	gate := authz.NewGatekeeper(table)
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)

	// 3. HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, apperrors.ErrInternalServer.Error(), err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))
	e.Use(appmiddleware.RequestLogger(logger))

	routes.InitRouter(e, dbConn, jwtSvc, gate, loggers)

	// 4. Фоновые задачи
	scheduler, err := jobs.NewScheduler(cfg.Scheduler, repositories.NewRedisLockRepository(redisClient), loggers.Scheduler,
		jobs.NewLogCleanupJob(cfg.Log.Dir, cfg.Log.RetentionDays, loggers.Scheduler),
		jobs.NewStaleHaulingJob(repositories.NewHaulingRepository(dbConn), loggers.Scheduler),
	)
	if err != nil {
		logger.Fatal("не удалось создать планировщик", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Остановка сервера")
		return e.Shutdown(shutdownCtx)
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("Сервер завершился с ошибкой", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
}
