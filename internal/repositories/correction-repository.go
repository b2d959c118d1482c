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
	"job-order-system/internal/infrastructure/pipeline"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
)

const correctionTable = "corrections"

var correctionColumns = []string{
	"c.id", "c.job_order_id", "jo.ticket_code", "c.target", "c.changes", "c.reason", "c.status",
	"c.remarks", "c.submitted_by", "c.resolved_by", "c.resolved_at", "c.created_at", "c.updated_at",
}

var allowedCorrectionSortFields = map[string]string{
	"id":         "c.id",
	"status":     "c.status",
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
}

type CorrectionListQuery struct {
	Filter      types.Filter
	Statuses    []string
	Targets     []string
	SubmittedBy uint64
}

func CorrectionPipeline(q CorrectionListQuery) *pipeline.Pipeline {
	var visibility sq.Sqlizer
	if q.SubmittedBy != 0 {
		visibility = sq.Eq{"c.submitted_by": q.SubmittedBy}
	}
	return pipeline.New(
		pipeline.Visibility(visibility),
		pipeline.WhereIn("c.status", q.Statuses),
		pipeline.WhereIn("c.target", q.Targets),
		pipeline.Search(q.Filter.Search, "jo.ticket_code", "jo.client_name", "c.reason"),
		pipeline.OrderBy(q.Filter.Sort, allowedCorrectionSortFields, "c.created_at DESC", "c.id DESC"),
		pipeline.Paginate(q.Filter.Limit, q.Filter.Offset),
	)
}

type CorrectionRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, c entities.Correction) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Correction, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Correction, error)
	HasPending(ctx context.Context, tx pgx.Tx, jobOrderID uint64, target string) (bool, error)
	Resolve(ctx context.Context, tx pgx.Tx, id uint64, status string, remarks null.String, resolvedBy uint64, at time.Time) error
	List(ctx context.Context, q CorrectionListQuery) ([]entities.Correction, uint64, error)
}

type correctionRepository struct {
	pgRepository
}

func NewCorrectionRepository(storage *pgxpool.Pool) CorrectionRepositoryInterface {
	return &correctionRepository{pgRepository{storage: storage}}
}

func selectCorrections() sq.SelectBuilder {
	return psql.Select(correctionColumns...).
		From(correctionTable + " c").
		Join("job_orders jo ON jo.id = c.job_order_id")
}

func scanCorrection(row pgx.Row) (*entities.Correction, error) {
	var c entities.Correction
	err := row.Scan(
		&c.ID, &c.JobOrderID, &c.TicketCode, &c.Target, &c.Changes, &c.Reason, &c.Status,
		&c.Remarks, &c.SubmittedBy, &c.ResolvedBy, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *correctionRepository) Create(ctx context.Context, tx pgx.Tx, c entities.Correction) (uint64, error) {
	return r.insertReturningID(ctx, tx, "создание корректировки", psql.Insert(correctionTable).
		Columns("job_order_id", "target", "changes", "reason", "status", "submitted_by", "created_at", "updated_at").
		Values(c.JobOrderID, c.Target, c.Changes, c.Reason, constants.CorrectionPending, c.SubmittedBy, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *correctionRepository) findOne(ctx context.Context, tx pgx.Tx, id uint64, forUpdate bool) (*entities.Correction, error) {
	b := selectCorrections().Where(sq.Eq{"c.id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE OF c")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для корректировки: %w", err)
	}
	c, err := scanCorrection(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск корректировки", err)
	}
	return c, nil
}

func (r *correctionRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Correction, error) {
	return r.findOne(ctx, tx, id, false)
}

func (r *correctionRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Correction, error) {
	return r.findOne(ctx, tx, id, tx != nil)
}

func (r *correctionRepository) HasPending(ctx context.Context, tx pgx.Tx, jobOrderID uint64, target string) (bool, error) {
	var exists bool
	err := r.getQuerier(tx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM corrections WHERE job_order_id = $1 AND target = $2 AND status = $3)`,
		jobOrderID, target, constants.CorrectionPending,
	).Scan(&exists)
	if err != nil {
		return false, wrapError("проверка ожидающих корректировок", err)
	}
	return exists, nil
}

// Resolve меняет только pending запись; иначе ErrNotFound.
func (r *correctionRepository) Resolve(ctx context.Context, tx pgx.Tx, id uint64, status string, remarks null.String, resolvedBy uint64, at time.Time) error {
	return r.exec(ctx, tx, "решение по корректировке", psql.Update(correctionTable).
		Set("status", status).
		Set("remarks", remarks).
		Set("resolved_by", resolvedBy).
		Set("resolved_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": constants.CorrectionPending}))
}

func (r *correctionRepository) List(ctx context.Context, q CorrectionListQuery) ([]entities.Correction, uint64, error) {
	return listWithCount(ctx, r.storage, "корректировок", CorrectionPipeline(q),
		selectCorrections(),
		psql.Select("COUNT(*)").From(correctionTable+" c").Join("job_orders jo ON jo.id = c.job_order_id"),
		scanCorrection)
}
