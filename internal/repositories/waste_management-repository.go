package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"job-order-system/internal/entities"
)

const (
	wasteManagementTable  = "waste_managements"
	wasteManagementFields = `id, waste_type, waste_description, estimated_volume, unit, appraisal_notes, appraised_at,
		proposal_amount, proposal_notes, proposal_submitted_at, proposal_approved_at, created_at, updated_at`
	appraiserTable = "waste_management_appraisers"
)

var WasteManagementUpdatableColumns = map[string]bool{
	"waste_type":        true,
	"waste_description": true,
	"estimated_volume":  true,
	"unit":              true,
}

type WasteManagementRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, wm entities.WasteManagement) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.WasteManagement, error)
	ReplaceAppraisers(ctx context.Context, tx pgx.Tx, id uint64, employeeIDs []uint64) error
	SaveAppraisal(ctx context.Context, tx pgx.Tx, id uint64, notes string, at time.Time) error
	SaveProposal(ctx context.Context, tx pgx.Tx, id uint64, amount decimal.Decimal, notes null.String, at time.Time) error
	ApproveProposal(ctx context.Context, tx pgx.Tx, id uint64, at time.Time) error
	UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error
}

type wasteManagementRepository struct {
	pgRepository
}

func NewWasteManagementRepository(storage *pgxpool.Pool) WasteManagementRepositoryInterface {
	return &wasteManagementRepository{pgRepository{storage: storage}}
}

func (r *wasteManagementRepository) Create(ctx context.Context, tx pgx.Tx, wm entities.WasteManagement) (uint64, error) {
	return r.insertReturningID(ctx, tx, "создание waste management", psql.Insert(wasteManagementTable).
		Columns("waste_type", "waste_description", "estimated_volume", "unit", "created_at", "updated_at").
		Values(wm.WasteType, wm.WasteDescription, wm.EstimatedVolume, wm.Unit, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *wasteManagementRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.WasteManagement, error) {
	query, args, err := psql.Select(wasteManagementFields).From(wasteManagementTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для waste management: %w", err)
	}

	var wm entities.WasteManagement
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&wm.ID, &wm.WasteType, &wm.WasteDescription, &wm.EstimatedVolume, &wm.Unit,
		&wm.AppraisalNotes, &wm.AppraisedAt, &wm.ProposalAmount, &wm.ProposalNotes,
		&wm.ProposalSubmittedAt, &wm.ProposalApprovedAt, &wm.CreatedAt, &wm.UpdatedAt,
	)
	if err != nil {
		return nil, wrapError("поиск waste management", err)
	}

	wm.AppraiserIDs, err = r.appraisers(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return &wm, nil
}

func (r *wasteManagementRepository) appraisers(ctx context.Context, tx pgx.Tx, id uint64) ([]uint64, error) {
	rows, err := r.getQuerier(tx).Query(ctx,
		`SELECT employee_id FROM `+appraiserTable+` WHERE waste_management_id = $1 ORDER BY employee_id`, id)
	if err != nil {
		return nil, wrapError("список оценщиков", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uint64])
	if err != nil {
		return nil, wrapError("сканирование оценщиков", err)
	}
	return ids, nil
}

// ReplaceAppraisers заменяет весь набор оценщиков.
func (r *wasteManagementRepository) ReplaceAppraisers(ctx context.Context, tx pgx.Tx, id uint64, employeeIDs []uint64) error {
	q := r.getQuerier(tx)
	if _, err := q.Exec(ctx, `DELETE FROM `+appraiserTable+` WHERE waste_management_id = $1`, id); err != nil {
		return wrapError("удаление оценщиков", err)
	}
	if len(employeeIDs) == 0 {
		return nil
	}
	b := psql.Insert(appraiserTable).Columns("waste_management_id", "employee_id")
	for _, empID := range employeeIDs {
		b = b.Values(id, empID)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для оценщиков: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return wrapError("сохранение оценщиков", err)
	}
	return nil
}

func (r *wasteManagementRepository) SaveAppraisal(ctx context.Context, tx pgx.Tx, id uint64, notes string, at time.Time) error {
	return r.exec(ctx, tx, "сохранение оценки", psql.Update(wasteManagementTable).
		Set("appraisal_notes", notes).
		Set("appraised_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *wasteManagementRepository) SaveProposal(ctx context.Context, tx pgx.Tx, id uint64, amount decimal.Decimal, notes null.String, at time.Time) error {
	return r.exec(ctx, tx, "сохранение предложения", psql.Update(wasteManagementTable).
		Set("proposal_amount", amount).
		Set("proposal_notes", notes).
		Set("proposal_submitted_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *wasteManagementRepository) ApproveProposal(ctx context.Context, tx pgx.Tx, id uint64, at time.Time) error {
	return r.exec(ctx, tx, "утверждение предложения", psql.Update(wasteManagementTable).
		Set("proposal_approved_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

func (r *wasteManagementRepository) UpdateFields(ctx context.Context, tx pgx.Tx, id uint64, fields map[string]interface{}) error {
	return r.updateColumns(ctx, tx, wasteManagementTable, id, WasteManagementUpdatableColumns, fields)
}
