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

const (
	incidentTable  = "incidents"
	incidentFields = `id, job_order_id, hauling_id, title, description, location, incident_date, reported_by,
		status, verified_by, verified_at, remarks, created_at, updated_at, deleted_at`
)

var allowedIncidentSortFields = map[string]string{
	"id":            "id",
	"incident_date": "incident_date",
	"status":        "status",
	"created_at":    "created_at",
}

type IncidentListQuery struct {
	Filter     types.Filter
	Statuses   []string
	DateFrom   *time.Time
	DateTo     *time.Time
	ReportedBy uint64
}

func IncidentPipeline(q IncidentListQuery) *pipeline.Pipeline {
	var visibility sq.Sqlizer
	if q.ReportedBy != 0 {
		visibility = sq.Eq{"reported_by": q.ReportedBy}
	}
	return pipeline.New(
		pipeline.Archived("deleted_at", q.Filter.Archived),
		pipeline.Visibility(visibility),
		pipeline.WhereIn("status", q.Statuses),
		pipeline.DateRange("incident_date", q.DateFrom, q.DateTo),
		pipeline.Search(q.Filter.Search, "title", "description", "location"),
		pipeline.OrderBy(q.Filter.Sort, allowedIncidentSortFields, "incident_date DESC", "id DESC"),
		pipeline.Paginate(q.Filter.Limit, q.Filter.Offset),
	)
}

type IncidentRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, i entities.Incident) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error)
	Verify(ctx context.Context, tx pgx.Tx, id uint64, status string, remarks null.String, verifiedBy uint64, at time.Time) error
	List(ctx context.Context, q IncidentListQuery) ([]entities.Incident, uint64, error)
}

type incidentRepository struct {
	pgRepository
}

func NewIncidentRepository(storage *pgxpool.Pool) IncidentRepositoryInterface {
	return &incidentRepository{pgRepository{storage: storage}}
}

func scanIncident(row pgx.Row) (*entities.Incident, error) {
	var i entities.Incident
	err := row.Scan(
		&i.ID, &i.JobOrderID, &i.HaulingID, &i.Title, &i.Description, &i.Location, &i.IncidentDate, &i.ReportedBy,
		&i.Status, &i.VerifiedBy, &i.VerifiedAt, &i.Remarks, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *incidentRepository) Create(ctx context.Context, tx pgx.Tx, i entities.Incident) (uint64, error) {
	return r.insertReturningID(ctx, tx, "создание инцидента", psql.Insert(incidentTable).
		Columns("job_order_id", "hauling_id", "title", "description", "location", "incident_date", "reported_by", "status", "created_at", "updated_at").
		Values(i.JobOrderID, i.HaulingID, i.Title, i.Description, i.Location, i.IncidentDate, i.ReportedBy,
			constants.IncidentForVerification, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *incidentRepository) findOne(ctx context.Context, tx pgx.Tx, id uint64, forUpdate bool) (*entities.Incident, error) {
	b := psql.Select(incidentFields).From(incidentTable).Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для инцидента: %w", err)
	}
	i, err := scanIncident(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск инцидента", err)
	}
	return i, nil
}

func (r *incidentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	return r.findOne(ctx, tx, id, false)
}

func (r *incidentRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	return r.findOne(ctx, tx, id, tx != nil)
}

func (r *incidentRepository) Verify(ctx context.Context, tx pgx.Tx, id uint64, status string, remarks null.String, verifiedBy uint64, at time.Time) error {
	return r.exec(ctx, tx, "проверка инцидента", psql.Update(incidentTable).
		Set("status", status).
		Set("remarks", remarks).
		Set("verified_by", verifiedBy).
		Set("verified_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": constants.IncidentForVerification}))
}

func (r *incidentRepository) List(ctx context.Context, q IncidentListQuery) ([]entities.Incident, uint64, error) {
	return listWithCount(ctx, r.storage, "инцидентов", IncidentPipeline(q),
		psql.Select(incidentFields).From(incidentTable),
		psql.Select("COUNT(*)").From(incidentTable),
		scanIncident)
}
