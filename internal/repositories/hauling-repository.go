package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
	"job-order-system/pkg/constants"
)

const (
	haulingTable  = "haulings"
	haulingFields = `id, waste_management_id, truck_id, team_leader_id, hauling_date, status, safety_checklist,
		checklist_completed_by, checklist_completed_at, created_at, updated_at`
	haulingPersonnelTable = "hauling_personnel"
)

type HaulingRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, h entities.Hauling) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hauling, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hauling, error)
	ListByWasteManagement(ctx context.Context, tx pgx.Tx, wasteManagementID uint64) ([]entities.Hauling, error)
	ReplacePersonnel(ctx context.Context, tx pgx.Tx, haulingID uint64, personnel []entities.HaulingPersonnel) error
	CompleteChecklist(ctx context.Context, tx pgx.Tx, id uint64, checklist map[string]bool, userID uint64, at time.Time) error
	SetStatusByWasteManagement(ctx context.Context, tx pgx.Tx, wasteManagementID uint64, status string) error
	CompleteStale(ctx context.Context, before time.Time) (int64, error)
}

type haulingRepository struct {
	pgRepository
}

func NewHaulingRepository(storage *pgxpool.Pool) HaulingRepositoryInterface {
	return &haulingRepository{pgRepository{storage: storage}}
}

func scanHauling(row pgx.Row) (*entities.Hauling, error) {
	var h entities.Hauling
	err := row.Scan(
		&h.ID, &h.WasteManagementID, &h.TruckID, &h.TeamLeaderID, &h.HaulingDate, &h.Status,
		&h.SafetyChecklist, &h.ChecklistCompletedBy, &h.ChecklistCompletedAt, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if h.SafetyChecklist == nil {
		h.SafetyChecklist = map[string]bool{}
	}
	return &h, nil
}

func (r *haulingRepository) Create(ctx context.Context, tx pgx.Tx, h entities.Hauling) (uint64, error) {
	checklist := h.SafetyChecklist
	if checklist == nil {
		checklist = map[string]bool{}
	}
	status := h.Status
	if status == "" {
		status = constants.HaulingPending
	}
	id, err := r.insertReturningID(ctx, tx, "создание hauling", psql.Insert(haulingTable).
		Columns("waste_management_id", "truck_id", "team_leader_id", "hauling_date", "status", "safety_checklist", "created_at", "updated_at").
		Values(h.WasteManagementID, h.TruckID, h.TeamLeaderID, h.HaulingDate, status, checklist, sq.Expr("NOW()"), sq.Expr("NOW()")))
	if err != nil {
		return 0, err
	}
	if err := r.ReplacePersonnel(ctx, tx, id, h.Personnel); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *haulingRepository) findOne(ctx context.Context, tx pgx.Tx, id uint64, forUpdate bool) (*entities.Hauling, error) {
	b := psql.Select(haulingFields).From(haulingTable).Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для hauling: %w", err)
	}
	h, err := scanHauling(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск hauling", err)
	}
	if h.Personnel, err = r.personnel(ctx, tx, []uint64{h.ID}, nil); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *haulingRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hauling, error) {
	return r.findOne(ctx, tx, id, false)
}

func (r *haulingRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hauling, error) {
	return r.findOne(ctx, tx, id, tx != nil)
}

func (r *haulingRepository) ListByWasteManagement(ctx context.Context, tx pgx.Tx, wasteManagementID uint64) ([]entities.Hauling, error) {
	query, args, err := psql.Select(haulingFields).From(haulingTable).
		Where(sq.Eq{"waste_management_id": wasteManagementID}).
		OrderBy("hauling_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для списка hauling: %w", err)
	}
	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, wrapError("список hauling", err)
	}
	defer rows.Close()

	list := make([]entities.Hauling, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		h, err := scanHauling(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования hauling: %w", err)
		}
		list = append(list, *h)
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	byHauling := make(map[uint64][]entities.HaulingPersonnel, len(ids))
	if _, err := r.personnel(ctx, tx, ids, byHauling); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Personnel = byHauling[list[i].ID]
	}
	return list, nil
}

// personnel загружает состав бригад; если byHauling не nil, раскладывает по hauling_id.
func (r *haulingRepository) personnel(ctx context.Context, tx pgx.Tx, haulingIDs []uint64, byHauling map[uint64][]entities.HaulingPersonnel) ([]entities.HaulingPersonnel, error) {
	query, args, err := psql.Select("hauling_id", "employee_id", "role").From(haulingPersonnelTable).
		Where(sq.Eq{"hauling_id": haulingIDs}).
		OrderBy("hauling_id", "employee_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для состава бригады: %w", err)
	}
	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, wrapError("состав бригады", err)
	}
	defer rows.Close()

	out := make([]entities.HaulingPersonnel, 0)
	for rows.Next() {
		var haulingID uint64
		var p entities.HaulingPersonnel
		if err := rows.Scan(&haulingID, &p.EmployeeID, &p.Role); err != nil {
			return nil, fmt.Errorf("ошибка сканирования состава бригады: %w", err)
		}
		out = append(out, p)
		if byHauling != nil {
			byHauling[haulingID] = append(byHauling[haulingID], p)
		}
	}
	return out, rows.Err()
}

func (r *haulingRepository) ReplacePersonnel(ctx context.Context, tx pgx.Tx, haulingID uint64, personnel []entities.HaulingPersonnel) error {
	q := r.getQuerier(tx)
	if _, err := q.Exec(ctx, `DELETE FROM `+haulingPersonnelTable+` WHERE hauling_id = $1`, haulingID); err != nil {
		return wrapError("удаление состава бригады", err)
	}
	if len(personnel) == 0 {
		return nil
	}
	b := psql.Insert(haulingPersonnelTable).Columns("hauling_id", "employee_id", "role")
	for _, p := range personnel {
		b = b.Values(haulingID, p.EmployeeID, p.Role)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для состава бригады: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return wrapError("сохранение состава бригады", err)
	}
	return nil
}

func (r *haulingRepository) CompleteChecklist(ctx context.Context, tx pgx.Tx, id uint64, checklist map[string]bool, userID uint64, at time.Time) error {
	return r.exec(ctx, tx, "завершение чек-листа", psql.Update(haulingTable).
		Set("safety_checklist", checklist).
		Set("checklist_completed_by", userID).
		Set("checklist_completed_at", at).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}))
}

// SetStatusByWasteManagement меняет статус всех незавершённых выездов.
func (r *haulingRepository) SetStatusByWasteManagement(ctx context.Context, tx pgx.Tx, wasteManagementID uint64, status string) error {
	query, args, err := psql.Update(haulingTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"waste_management_id": wasteManagementID}).
		Where(sq.NotEq{"status": constants.HaulingDone}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для статуса hauling: %w", err)
	}
	if _, err := r.getQuerier(tx).Exec(ctx, query, args...); err != nil {
		return wrapError("смена статуса hauling", err)
	}
	return nil
}

// CompleteStale закрывает выезды с датой раньше before.
func (r *haulingRepository) CompleteStale(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := psql.Update(haulingTable).
		Set("status", constants.HaulingDone).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Lt{"hauling_date": before}).
		Where(sq.NotEq{"status": constants.HaulingDone}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL для CompleteStale: %w", err)
	}
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrapError("закрытие старых hauling", err)
	}
	return tag.RowsAffected(), nil
}
