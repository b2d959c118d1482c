package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"job-order-system/internal/entities"
	"job-order-system/internal/infrastructure/pipeline"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
)

const jobOrderTable = "job_orders"

var jobOrderColumns = []string{
	"jo.id", "jo.ticket_code", "jo.serviceable_type", "jo.serviceable_id",
	"jo.scheduled_date", "jo.scheduled_time", "jo.client_name", "jo.address",
	"jo.contact_person", "jo.contact_number", "jo.email", "jo.remarks",
	"jo.created_by", "COALESCE(u.name, '')", "jo.status", "jo.error_count",
	"jo.created_at", "jo.updated_at", "jo.deleted_at",
}

// allowedJobOrderSortFields - БЕЛЫЙ СПИСОК для сортировки
var allowedJobOrderSortFields = map[string]string{
	"id":             "jo.id",
	"ticket_code":    "jo.ticket_code",
	"scheduled_date": "jo.scheduled_date",
	"client_name":    "jo.client_name",
	"status":         "jo.status",
	"created_at":     "jo.created_at",
	"updated_at":     "jo.updated_at",
}

// JobOrderUpdatableColumns - колонки, которые можно менять после создания.
var JobOrderUpdatableColumns = map[string]bool{
	"scheduled_date": true,
	"scheduled_time": true,
	"client_name":    true,
	"address":        true,
	"contact_person": true,
	"contact_number": true,
	"email":          true,
	"remarks":        true,
}

var jobOrderSearchColumns = []string{
	"jo.client_name", "jo.address", "jo.contact_person", "jo.contact_number", "u.name",
}

// JobOrderVisibility - что актор может видеть в списке. Несколько условий объединяются через OR.
type JobOrderVisibility struct {
	All                  bool
	CreatedBy            uint64
	TeamLeaderEmployeeID uint64
}

func (v JobOrderVisibility) predicate() sq.Sqlizer {
	if v.All {
		return nil
	}
	var or sq.Or
	if v.CreatedBy != 0 {
		or = append(or, sq.Eq{"jo.created_by": v.CreatedBy})
	}
	if v.TeamLeaderEmployeeID != 0 {
		or = append(or, sq.Expr(
			`EXISTS (SELECT 1 FROM haulings h WHERE jo.serviceable_type = ? AND h.waste_management_id = jo.serviceable_id AND h.team_leader_id = ? AND h.checklist_completed_at IS NULL)`,
			string(constants.KindWasteManagement), v.TeamLeaderEmployeeID,
		))
	}
	if len(or) == 0 {
		return sq.Expr("1 = 0")
	}
	return or
}

type JobOrderListQuery struct {
	Filter     types.Filter
	Visibility JobOrderVisibility
	Statuses   []string
	Kinds      []string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// JobOrderPipeline - стадии списка job orders.
func JobOrderPipeline(q JobOrderListQuery) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.Archived("jo.deleted_at", q.Filter.Archived),
		pipeline.Visibility(q.Visibility.predicate()),
		pipeline.WhereIn("jo.status", q.Statuses),
		pipeline.WhereIn("jo.serviceable_type", q.Kinds),
		pipeline.DateRange("jo.scheduled_date", q.DateFrom, q.DateTo),
		pipeline.Search(q.Filter.Search, jobOrderSearchColumns...),
		pipeline.OrderBy(q.Filter.Sort, allowedJobOrderSortFields, "jo.scheduled_date DESC", "jo.id DESC"),
		pipeline.Paginate(q.Filter.Limit, q.Filter.Offset),
	)
}

type JobOrderRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, jo entities.JobOrder) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.JobOrder, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.JobOrder, error)
	FindByTicketCode(ctx context.Context, tx pgx.Tx, code string) (*entities.JobOrder, error)
	FindByServiceable(ctx context.Context, tx pgx.Tx, ref entities.ServiceableRef) (*entities.JobOrder, error)
	List(ctx context.Context, q JobOrderListQuery) ([]entities.JobOrder, uint64, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error
	IncrementErrorCount(ctx context.Context, tx pgx.Tx, id uint64) error
	Archive(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
}

type jobOrderRepository struct {
	pgRepository
	logger *zap.Logger
}

func NewJobOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) JobOrderRepositoryInterface {
	return &jobOrderRepository{pgRepository: pgRepository{storage: storage}, logger: logger}
}

func selectJobOrders() sq.SelectBuilder {
	return psql.Select(jobOrderColumns...).
		From(jobOrderTable + " jo").
		LeftJoin("users u ON u.id = jo.created_by")
}

func scanJobOrder(row pgx.Row) (*entities.JobOrder, error) {
	var jo entities.JobOrder
	var kind null.String
	var serviceableID null.Uint64
	err := row.Scan(
		&jo.ID, &jo.TicketCode, &kind, &serviceableID,
		&jo.ScheduledDate, &jo.ScheduledTime, &jo.ClientName, &jo.Address,
		&jo.ContactPerson, &jo.ContactNumber, &jo.Email, &jo.Remarks,
		&jo.CreatedBy, &jo.CreatorName, &jo.Status, &jo.ErrorCount,
		&jo.CreatedAt, &jo.UpdatedAt, &jo.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if kind.Valid && serviceableID.Valid {
		jo.Serviceable = entities.ServiceableRef{Kind: constants.ServiceableKind(kind.String), ID: serviceableID.Uint64}
	}
	return &jo, nil
}

func (r *jobOrderRepository) findOne(ctx context.Context, tx pgx.Tx, where sq.Sqlizer, forUpdate bool) (*entities.JobOrder, error) {
	b := selectJobOrders().Where(where)
	if forUpdate {
		b = b.Suffix("FOR UPDATE OF jo")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для job order: %w", err)
	}
	jo, err := scanJobOrder(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск job order", err)
	}
	return jo, nil
}

func (r *jobOrderRepository) Create(ctx context.Context, tx pgx.Tx, jo entities.JobOrder) (uint64, error) {
	var kind, serviceableID interface{}
	if jo.Serviceable.Valid() {
		kind, serviceableID = string(jo.Serviceable.Kind), jo.Serviceable.ID
	}
	return r.insertReturningID(ctx, tx, "создание job order", psql.Insert(jobOrderTable).
		Columns("ticket_code", "serviceable_type", "serviceable_id", "scheduled_date", "scheduled_time",
			"client_name", "address", "contact_person", "contact_number", "email", "remarks",
			"created_by", "status", "error_count", "created_at", "updated_at").
		Values(jo.TicketCode, kind, serviceableID, jo.ScheduledDate, jo.ScheduledTime,
			jo.ClientName, jo.Address, jo.ContactPerson, jo.ContactNumber, jo.Email, jo.Remarks,
			jo.CreatedBy, jo.Status, 0, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *jobOrderRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.JobOrder, error) {
	return r.findOne(ctx, tx, sq.Eq{"jo.id": id}, false)
}

// FindByIDForUpdate блокирует строку до конца транзакции.
func (r *jobOrderRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.JobOrder, error) {
	return r.findOne(ctx, tx, sq.Eq{"jo.id": id}, tx != nil)
}

func (r *jobOrderRepository) FindByTicketCode(ctx context.Context, tx pgx.Tx, code string) (*entities.JobOrder, error) {
	return r.findOne(ctx, tx, sq.Eq{"jo.ticket_code": code}, false)
}

func (r *jobOrderRepository) FindByServiceable(ctx context.Context, tx pgx.Tx, ref entities.ServiceableRef) (*entities.JobOrder, error) {
	return r.findOne(ctx, tx, sq.Eq{"jo.serviceable_type": string(ref.Kind), "jo.serviceable_id": ref.ID}, false)
}

func (r *jobOrderRepository) List(ctx context.Context, q JobOrderListQuery) ([]entities.JobOrder, uint64, error) {
	r.logger.Debug("список job orders",
		zap.Strings("statuses", q.Statuses),
		zap.Bool("archived", q.Filter.Archived),
		zap.String("search", q.Filter.Search))
	return listWithCount(ctx, r.storage, "job orders", JobOrderPipeline(q),
		selectJobOrders(),
		psql.Select("COUNT(*)").From(jobOrderTable+" jo").LeftJoin("users u ON u.id = jo.created_by"),
		scanJobOrder)
}

func (r *jobOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	return r.exec(ctx, tx, "смена статуса job order", psql.Update(jobOrderTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *jobOrderRepository) UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error {
	return r.updateColumns(ctx, tx, jobOrderTable, id, JobOrderUpdatableColumns, fields)
}

func (r *jobOrderRepository) IncrementErrorCount(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "увеличение error_count", psql.Update(jobOrderTable).
		Set("error_count", sq.Expr("error_count + 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *jobOrderRepository) Archive(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "архивация job order", archiveQuery(jobOrderTable, id))
}

func (r *jobOrderRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "восстановление job order", restoreQuery(jobOrderTable, id))
}
