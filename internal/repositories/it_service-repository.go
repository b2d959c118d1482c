package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
)

const (
	itServiceTable  = "it_services"
	itServiceFields = `id, machine_type, brand, model, serial_number, problem_description, technician_id,
		initial_report, initial_report_at, final_report, final_report_at, created_at, updated_at`
)

var ITServiceUpdatableColumns = map[string]bool{
	"machine_type":        true,
	"brand":               true,
	"model":               true,
	"serial_number":       true,
	"problem_description": true,
}

type ITServiceRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, s entities.ITService) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ITService, error)
	AssignTechnician(ctx context.Context, tx pgx.Tx, id, employeeID uint64) error
	SaveInitialReport(ctx context.Context, tx pgx.Tx, id uint64, report string, at time.Time) error
	SaveFinalReport(ctx context.Context, tx pgx.Tx, id uint64, report string, at time.Time) error
	UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error
}

type itServiceRepository struct {
	pgRepository
}

func NewITServiceRepository(storage *pgxpool.Pool) ITServiceRepositoryInterface {
	return &itServiceRepository{pgRepository{storage: storage}}
}

func (r *itServiceRepository) Create(ctx context.Context, tx pgx.Tx, s entities.ITService) (uint64, error) {
	return r.insertReturningID(ctx, tx, "создание IT service", psql.Insert(itServiceTable).
		Columns("machine_type", "brand", "model", "serial_number", "problem_description", "technician_id", "created_at", "updated_at").
		Values(s.MachineType, s.Brand, s.Model, s.SerialNumber, s.ProblemDescription, s.TechnicianID, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *itServiceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ITService, error) {
	query, args, err := psql.Select(itServiceFields).From(itServiceTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для IT service: %w", err)
	}
	var s entities.ITService
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.MachineType, &s.Brand, &s.Model, &s.SerialNumber, &s.ProblemDescription, &s.TechnicianID,
		&s.InitialReport, &s.InitialReportAt, &s.FinalReport, &s.FinalReportAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, wrapError("поиск IT service", err)
	}
	return &s, nil
}

func (r *itServiceRepository) AssignTechnician(ctx context.Context, tx pgx.Tx, id, employeeID uint64) error {
	return r.exec(ctx, tx, "назначение техника", psql.Update(itServiceTable).
		Set("technician_id", employeeID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *itServiceRepository) SaveInitialReport(ctx context.Context, tx pgx.Tx, id uint64, report string, at time.Time) error {
	return r.exec(ctx, tx, "первичный отчёт", psql.Update(itServiceTable).
		Set("initial_report", report).
		Set("initial_report_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *itServiceRepository) SaveFinalReport(ctx context.Context, tx pgx.Tx, id uint64, report string, at time.Time) error {
	return r.exec(ctx, tx, "финальный отчёт", psql.Update(itServiceTable).
		Set("final_report", report).
		Set("final_report_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *itServiceRepository) UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error {
	return r.updateColumns(ctx, tx, itServiceTable, id, ITServiceUpdatableColumns, fields)
}
