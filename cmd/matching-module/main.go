// main.go — точка входа Matching Module.
// Собирает все слои: config, logger, PostgreSQL (+миграции), репозитории,
// кэш, сервисы, JWT middleware, HTTP-сервер и мониторинг зависимостей.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/balliscan/matching-module/internal/api/handlers"
	"github.com/balliscan/matching-module/internal/api/middleware"
	"github.com/balliscan/matching-module/internal/config"
	"github.com/balliscan/matching-module/internal/database"
	"github.com/balliscan/matching-module/internal/export"
	"github.com/balliscan/matching-module/internal/repository"
	"github.com/balliscan/matching-module/internal/server"
	"github.com/balliscan/matching-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Matching Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	ctx := context.Background()

	// 3. Миграции и подключение к PostgreSQL
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		log.Fatalf("Миграции не применены: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		log.Fatalf("PostgreSQL недоступен: %v", err)
	}
	defer pool.Close()

	// 4. Репозитории
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	sampleRepo := repository.NewSampleRepository(pool)
	matchRepo := repository.NewMatchingRepository(pool)
	fileRepo := repository.NewArtifactFileRepository(pool)

	// 5. Кэш экзаменов и сервисы
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	matchingSvc := service.NewMatchingService(userRepo, examRepo, sampleRepo, matchRepo, cache, logger)

	archiver := export.NewArchiver(cfg.ExportDir, logger)
	renderer := export.NewTableRenderer(cfg.ExportDir, logger)
	exportSvc := service.NewExportService(userRepo, matchRepo, examRepo, sampleRepo, fileRepo, archiver, renderer, logger)

	// 6. Мониторинг зависимостей (topologymetrics)
	dephealthSvc := setupDephealth(ctx, cfg, pool, logger)
	if dephealthSvc != nil {
		defer dephealthSvc.Stop()
	}

	// 7. JWT middleware (опционально: пустой MM_JWKS_URL — dev-режим)
	var authMiddleware func(http.Handler) http.Handler
	var idpChecker handlers.ReadinessChecker
	if cfg.JWKSURL != "" {
		jwtAuth, err := middleware.NewJWTAuth(
			cfg.JWKSURL,
			cfg.JWKSCACertPath,
			cfg.JWTIssuer,
			cfg.JWKSClientTimeout,
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка инициализации JWT middleware", slog.String("error", err.Error()))
			log.Fatalf("JWT middleware не инициализирован: %v", err)
		}
		defer jwtAuth.Close()
		authMiddleware = jwtAuth.Middleware()

		// Доступность IdP входит в readiness, когда аутентификация настроена
		checker, err := middleware.NewIdPReadinessChecker(cfg.JWKSURL, cfg.JWKSCACertPath, cfg.JWKSClientTimeout)
		if err != nil {
			logger.Error("Ошибка инициализации проверки IdP", slog.String("error", err.Error()))
			log.Fatalf("Проверка IdP не инициализирована: %v", err)
		}
		idpChecker = checker
	} else {
		logger.Warn("MM_JWKS_URL не задан — JWT-аутентификация отключена (dev-режим)")
	}

	// 8. Handlers и HTTP-сервер
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), idpChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, matchingSvc, exportSvc, logger)

	srv := server.New(cfg, logger, apiHandler, authMiddleware,
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	)

	// 9. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Matching Module остановлен")
}

// setupDephealth запускает мониторинг зависимостей.
// Ошибка инициализации не фатальна: метрики зависимостей — вспомогательная
// функциональность, сервис продолжает работу без них.
func setupDephealth(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *service.DephealthService {
	db := stdlib.OpenDBFromPool(pool)

	svc, err := service.NewDephealthService(
		"matching-module",
		cfg.DephealthGroup,
		db,
		cfg.DatabaseDSN(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Warn("Мониторинг зависимостей не инициализирован", slog.String("error", err.Error()))
		return nil
	}

	if err := svc.Start(ctx); err != nil {
		logger.Warn("Мониторинг зависимостей не запущен", slog.String("error", err.Error()))
		return nil
	}
	return svc
}
