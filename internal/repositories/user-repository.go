package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
)

const (
	userTable  = "users"
	userFields = `id, name, email, password, role, employee_id, created_at, updated_at`
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error)
	// Upsert создаёт пользователя или обновляет по email. Используется сидером.
	Upsert(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error)
}

type userRepository struct {
	pgRepository
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &userRepository{pgRepository{storage: storage}}
}

func (r *userRepository) findOne(ctx context.Context, tx pgx.Tx, where sq.Eq) (*entities.User, error) {
	query, args, err := psql.Select(userFields).From(userTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для пользователя: %w", err)
	}
	var u entities.User
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.EmployeeID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, wrapError("поиск пользователя", err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.findOne(ctx, tx, sq.Eq{"id": id})
}

func (r *userRepository) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	return r.findOne(ctx, tx, sq.Eq{"email": email})
}

func (r *userRepository) Upsert(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error) {
	return r.insertReturningID(ctx, tx, "сохранение пользователя", psql.Insert(userTable).
		Columns("name", "email", "password", "role", "employee_id", "created_at", "updated_at").
		Values(u.Name, u.Email, u.Password, u.Role, u.EmployeeID, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password = EXCLUDED.password,
			role = EXCLUDED.role, employee_id = EXCLUDED.employee_id, updated_at = NOW()`))
}
