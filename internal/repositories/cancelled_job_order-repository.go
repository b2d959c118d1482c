package repositories

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
)

const cancelledJobOrderTable = "cancelled_job_orders"

type CancelledJobOrderRepositoryInterface interface {
	// Create возвращает ErrConflict, если job order уже отменён.
	Create(ctx context.Context, tx pgx.Tx, c entities.CancelledJobOrder) (uint64, error)
	FindByJobOrder(ctx context.Context, tx pgx.Tx, jobOrderID uint64) (*entities.CancelledJobOrder, error)
}

type cancelledJobOrderRepository struct {
	pgRepository
}

func NewCancelledJobOrderRepository(storage *pgxpool.Pool) CancelledJobOrderRepositoryInterface {
	return &cancelledJobOrderRepository{pgRepository{storage: storage}}
}

func (r *cancelledJobOrderRepository) Create(ctx context.Context, tx pgx.Tx, c entities.CancelledJobOrder) (uint64, error) {
	return r.insertReturningID(ctx, tx, "отмена job order", psql.Insert(cancelledJobOrderTable).
		Columns("job_order_id", "status", "reason", "cancelled_by", "created_at").
		Values(c.JobOrderID, c.Status, c.Reason, c.CancelledBy, sq.Expr("NOW()")))
}

func (r *cancelledJobOrderRepository) FindByJobOrder(ctx context.Context, tx pgx.Tx, jobOrderID uint64) (*entities.CancelledJobOrder, error) {
	query, args, err := psql.Select("id", "job_order_id", "status", "reason", "cancelled_by", "created_at").
		From(cancelledJobOrderTable).
		Where(sq.Eq{"job_order_id": jobOrderID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var c entities.CancelledJobOrder
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&c.ID, &c.JobOrderID, &c.Status, &c.Reason, &c.CancelledBy, &c.CreatedAt)
	if err != nil {
		return nil, wrapError("поиск отмены", err)
	}
	return &c, nil
}
