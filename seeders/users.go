package seeders

import (
	"context"
	"fmt"
	"log"
	"strings"

	"job-order-system/internal/authz"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/utils"
)

// UserEmail - адрес демо-пользователя роли, например headfrontliner@example.com.
func UserEmail(role string) string {
	return strings.ToLower(role) + "@example.com"
}

// SeedUsers создаёт по одному пользователю на каждую роль. Повторный запуск
// обновляет пароль и имя, дубликатов не появляется.
func SeedUsers(ctx context.Context, repo repositories.UserRepositoryInterface, password string) error {
	log.Println("▶️  Запуск сидера пользователей...")
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("SEED_PASSWORD не задан")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	for _, role := range authz.AllRoles() {
		user := entities.User{
			Name:     role + " Demo",
			Email:    UserEmail(role),
			Password: hashed,
			Role:     role,
		}
		id, err := repo.Upsert(ctx, nil, user)
		if err != nil {
			return fmt.Errorf("пользователь %s: %w", user.Email, err)
		}
		log.Printf("    - %s (id=%d, роль %s)", user.Email, id, role)
	}

	log.Println("✅ Пользователи созданы")
	return nil
}
