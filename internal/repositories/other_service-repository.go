package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
)

const (
	otherServiceTable  = "other_services"
	otherServiceFields = `id, service_name, description, amount, completion_notes, completed_at, created_at, updated_at`
)

var OtherServiceUpdatableColumns = map[string]bool{
	"service_name": true,
	"description":  true,
	"amount":       true,
}

type OtherServiceRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, s entities.OtherService) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.OtherService, error)
	Complete(ctx context.Context, tx pgx.Tx, id uint64, notes null.String, at time.Time) error
	UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error
}

type otherServiceRepository struct {
	pgRepository
}

func NewOtherServiceRepository(storage *pgxpool.Pool) OtherServiceRepositoryInterface {
	return &otherServiceRepository{pgRepository{storage: storage}}
}

func (r *otherServiceRepository) Create(ctx context.Context, tx pgx.Tx, s entities.OtherService) (uint64, error) {
	return r.insertReturningID(ctx, tx, "создание other service", psql.Insert(otherServiceTable).
		Columns("service_name", "description", "amount", "created_at", "updated_at").
		Values(s.ServiceName, s.Description, s.Amount, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *otherServiceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.OtherService, error) {
	query, args, err := psql.Select(otherServiceFields).From(otherServiceTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для other service: %w", err)
	}
	var s entities.OtherService
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.ServiceName, &s.Description, &s.Amount, &s.CompletionNotes, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, wrapError("поиск other service", err)
	}
	return &s, nil
}

func (r *otherServiceRepository) Complete(ctx context.Context, tx pgx.Tx, id uint64, notes null.String, at time.Time) error {
	return r.exec(ctx, tx, "завершение other service", psql.Update(otherServiceTable).
		Set("completion_notes", notes).
		Set("completed_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *otherServiceRepository) UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error {
	return r.updateColumns(ctx, tx, otherServiceTable, id, OtherServiceUpdatableColumns, fields)
}
