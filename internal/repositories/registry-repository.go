package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/entities"
	"job-order-system/internal/infrastructure/pipeline"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
)

// ============================================================
// TRUCKS
// ============================================================

const (
	truckTable  = "trucks"
	truckFields = `id, plate_number, model, capacity, status, created_at, updated_at, deleted_at`
)

var allowedTruckSortFields = map[string]string{
	"id":           "id",
	"plate_number": "plate_number",
	"model":        "model",
	"capacity":     "capacity",
	"created_at":   "created_at",
}

type TruckListQuery struct {
	Filter   types.Filter
	Statuses []string
}

func TruckPipeline(q TruckListQuery) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.Archived("deleted_at", q.Filter.Archived),
		pipeline.WhereIn("status", q.Statuses),
		pipeline.Search(q.Filter.Search, "plate_number", "model"),
		pipeline.OrderBy(q.Filter.Sort, allowedTruckSortFields, "plate_number ASC"),
		pipeline.Paginate(q.Filter.Limit, q.Filter.Offset),
	)
}

type TruckRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, t entities.Truck) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Truck, error)
	List(ctx context.Context, q TruckListQuery) ([]entities.Truck, uint64, error)
	Archive(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
}

type truckRepository struct {
	pgRepository
}

func NewTruckRepository(storage *pgxpool.Pool) TruckRepositoryInterface {
	return &truckRepository{pgRepository{storage: storage}}
}

func scanTruck(row pgx.Row) (*entities.Truck, error) {
	var t entities.Truck
	if err := row.Scan(&t.ID, &t.PlateNumber, &t.Model, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *truckRepository) Create(ctx context.Context, tx pgx.Tx, t entities.Truck) (uint64, error) {
	status := t.Status
	if status == "" {
		status = constants.TruckAvailable
	}
	return r.insertReturningID(ctx, tx, "создание грузовика", psql.Insert(truckTable).
		Columns("plate_number", "model", "capacity", "status", "created_at", "updated_at").
		Values(t.PlateNumber, t.Model, t.Capacity, status, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *truckRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Truck, error) {
	query, args, err := psql.Select(truckFields).From(truckTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для грузовика: %w", err)
	}
	t, err := scanTruck(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск грузовика", err)
	}
	return t, nil
}

func (r *truckRepository) List(ctx context.Context, q TruckListQuery) ([]entities.Truck, uint64, error) {
	return listWithCount(ctx, r.storage, "грузовиков", TruckPipeline(q),
		psql.Select(truckFields).From(truckTable),
		psql.Select("COUNT(*)").From(truckTable),
		scanTruck)
}

func (r *truckRepository) Archive(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "архивация грузовика", archiveQuery(truckTable, id))
}

func (r *truckRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "восстановление грузовика", restoreQuery(truckTable, id))
}

// ============================================================
// EMPLOYEES
// ============================================================

const (
	employeeTable  = "employees"
	employeeFields = `id, employee_no, first_name, last_name, position, department, contact_number, status, created_at, updated_at, deleted_at`
)

var allowedEmployeeSortFields = map[string]string{
	"id":          "id",
	"employee_no": "employee_no",
	"first_name":  "first_name",
	"last_name":   "last_name",
	"department":  "department",
	"created_at":  "created_at",
}

type EmployeeListQuery struct {
	Filter      types.Filter
	Statuses    []string
	Departments []string
}

func EmployeePipeline(q EmployeeListQuery) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.Archived("deleted_at", q.Filter.Archived),
		pipeline.WhereIn("status", q.Statuses),
		pipeline.WhereIn("department", q.Departments),
		pipeline.Search(q.Filter.Search, "employee_no", "first_name", "last_name", "position"),
		pipeline.OrderBy(q.Filter.Sort, allowedEmployeeSortFields, "last_name ASC", "first_name ASC"),
		pipeline.Paginate(q.Filter.Limit, q.Filter.Offset),
	)
}

type EmployeeRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, e entities.Employee) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error)
	// FindActiveByIDs - только активные и не архивные сотрудники из списка.
	FindActiveByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Employee, error)
	List(ctx context.Context, q EmployeeListQuery) ([]entities.Employee, uint64, error)
	Archive(ctx context.Context, tx pgx.Tx, id uint64) error
	Restore(ctx context.Context, tx pgx.Tx, id uint64) error
}

type employeeRepository struct {
	pgRepository
}

func NewEmployeeRepository(storage *pgxpool.Pool) EmployeeRepositoryInterface {
	return &employeeRepository{pgRepository{storage: storage}}
}

func scanEmployee(row pgx.Row) (*entities.Employee, error) {
	var e entities.Employee
	err := row.Scan(&e.ID, &e.EmployeeNo, &e.FirstName, &e.LastName, &e.Position, &e.Department,
		&e.ContactNumber, &e.Status, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) Create(ctx context.Context, tx pgx.Tx, e entities.Employee) (uint64, error) {
	status := e.Status
	if status == "" {
		status = constants.EmployeeActive
	}
	return r.insertReturningID(ctx, tx, "создание сотрудника", psql.Insert(employeeTable).
		Columns("employee_no", "first_name", "last_name", "position", "department", "contact_number", "status", "created_at", "updated_at").
		Values(e.EmployeeNo, e.FirstName, e.LastName, e.Position, e.Department, e.ContactNumber, status, sq.Expr("NOW()"), sq.Expr("NOW()")))
}

func (r *employeeRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error) {
	query, args, err := psql.Select(employeeFields).From(employeeTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для сотрудника: %w", err)
	}
	e, err := scanEmployee(r.getQuerier(tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapError("поиск сотрудника", err)
	}
	return e, nil
}

func (r *employeeRepository) FindActiveByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Employee, error) {
	if len(ids) == 0 {
		return []entities.Employee{}, nil
	}
	query, args, err := psql.Select(employeeFields).From(employeeTable).
		Where(sq.Eq{"id": ids, "status": constants.EmployeeActive, "deleted_at": nil}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для FindActiveByIDs: %w", err)
	}
	rows, err := r.getQuerier(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, wrapError("поиск сотрудников", err)
	}
	defer rows.Close()

	list := make([]entities.Employee, 0, len(ids))
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования сотрудника: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func (r *employeeRepository) List(ctx context.Context, q EmployeeListQuery) ([]entities.Employee, uint64, error) {
	return listWithCount(ctx, r.storage, "сотрудников", EmployeePipeline(q),
		psql.Select(employeeFields).From(employeeTable),
		psql.Select("COUNT(*)").From(employeeTable),
		scanEmployee)
}

func (r *employeeRepository) Archive(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "архивация сотрудника", archiveQuery(employeeTable, id))
}

func (r *employeeRepository) Restore(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.exec(ctx, tx, "восстановление сотрудника", restoreQuery(employeeTable, id))
}

func archiveQuery(table string, id uint64) sq.UpdateBuilder {
	return psql.Update(table).
		Set("deleted_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "deleted_at": nil})
}

func restoreQuery(table string, id uint64) sq.UpdateBuilder {
	return psql.Update(table).
		Set("deleted_at", nil).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"deleted_at": nil})
}
