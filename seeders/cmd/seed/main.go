package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"job-order-system/internal/repositories"
	"job-order-system/pkg/config"
	"job-order-system/pkg/database/migrations"
	"job-order-system/pkg/database/postgresql"
	"job-order-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runMigrate := flag.Bool("migrate", false, "Применить миграции схемы")
	runUsers := flag.Bool("users", false, "Создать демо-пользователей для каждой роли")
	runAll := flag.Bool("all", false, "Запустить всё (эквивалентно -migrate -users)")
	flag.Parse()

	if !*runMigrate && !*runUsers && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -migrate")
		log.Println("  go run ./seeders/cmd/seed -all")
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	ctx := context.Background()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer dbPool.Close()

	if *runAll || *runMigrate {
		if err := migrations.Up(ctx, dbPool); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Println("✅ Миграции применены")
	}

	if *runAll || *runUsers {
		if err := seeders.SeedUsers(ctx, repositories.NewUserRepository(dbPool), cfg.Seeder.Password); err != nil {
			log.Fatalf("❌ Ошибка сидера пользователей: %v", err)
		}
	}

	log.Println("======================================================")
	log.Println("🎉 Готово")
}
