package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
	"job-order-system/pkg/utils"
)

// ============================================================
// TRUCKS
// ============================================================

type TruckServiceInterface interface {
	GetTrucks(ctx context.Context, filter types.Filter) ([]entities.Truck, uint64, error)
	CreateTruck(ctx context.Context, payload dto.CreateTruckDTO) (*entities.Truck, error)
	ArchiveTruck(ctx context.Context, id uint64) error
	RestoreTruck(ctx context.Context, id uint64) error
}

type TruckService struct {
	repo   repositories.TruckRepositoryInterface
	gate   *authz.Gatekeeper
	logger *zap.Logger
}

func NewTruckService(repo repositories.TruckRepositoryInterface, gate *authz.Gatekeeper, logger *zap.Logger) *TruckService {
	return &TruckService{repo: repo, gate: gate, logger: logger}
}

func (s *TruckService) GetTrucks(ctx context.Context, filter types.Filter) ([]entities.Truck, uint64, error) {
	if err := authorizeActor(ctx, s.gate, authz.TruckView); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, repositories.TruckListQuery{Filter: filter, Statuses: filter.Values("status")})
}

func (s *TruckService) CreateTruck(ctx context.Context, payload dto.CreateTruckDTO) (*entities.Truck, error) {
	if err := authorizeActor(ctx, s.gate, authz.TruckManage); err != nil {
		return nil, err
	}
	status := payload.Status
	if status == "" {
		status = constants.TruckAvailable
	}
	id, err := s.repo.Create(ctx, nil, entities.Truck{
		PlateNumber: payload.PlateNumber,
		Model:       payload.Model,
		Capacity:    payload.Capacity,
		Status:      status,
	})
	if err != nil {
		s.logger.Error("Ошибка при создании грузовика", zap.String("plate_number", payload.PlateNumber), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Грузовик добавлен", zap.Uint64("truck_id", id))
	return s.repo.FindByID(ctx, nil, id)
}

func (s *TruckService) ArchiveTruck(ctx context.Context, id uint64) error {
	return s.setArchived(ctx, id, s.repo.Archive)
}

func (s *TruckService) RestoreTruck(ctx context.Context, id uint64) error {
	return s.setArchived(ctx, id, s.repo.Restore)
}

func (s *TruckService) setArchived(ctx context.Context, id uint64, apply func(context.Context, pgx.Tx, uint64) error) error {
	if err := authorizeActor(ctx, s.gate, authz.TruckManage); err != nil {
		return err
	}
	return apply(ctx, nil, id)
}

// ============================================================
// EMPLOYEES
// ============================================================

type EmployeeServiceInterface interface {
	GetEmployees(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error)
	CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*entities.Employee, error)
	ArchiveEmployee(ctx context.Context, id uint64) error
	RestoreEmployee(ctx context.Context, id uint64) error
}

type EmployeeService struct {
	repo   repositories.EmployeeRepositoryInterface
	gate   *authz.Gatekeeper
	logger *zap.Logger
}

func NewEmployeeService(repo repositories.EmployeeRepositoryInterface, gate *authz.Gatekeeper, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{repo: repo, gate: gate, logger: logger}
}

func (s *EmployeeService) GetEmployees(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error) {
	if err := authorizeActor(ctx, s.gate, authz.EmployeeView); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, repositories.EmployeeListQuery{
		Filter:      filter,
		Statuses:    filter.Values("status"),
		Departments: filter.Values("department"),
	})
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*entities.Employee, error) {
	if err := authorizeActor(ctx, s.gate, authz.EmployeeManage); err != nil {
		return nil, err
	}
	status := payload.Status
	if status == "" {
		status = constants.EmployeeActive
	}
	contact := payload.ContactNumber
	if contact != "" {
		contact = utils.FormatPhoneNumber(contact)
	}
	id, err := s.repo.Create(ctx, nil, entities.Employee{
		EmployeeNo:    payload.EmployeeNo,
		FirstName:     payload.FirstName,
		LastName:      payload.LastName,
		Position:      payload.Position,
		Department:    payload.Department,
		ContactNumber: contact,
		Status:        status,
	})
	if err != nil {
		s.logger.Error("Ошибка при создании сотрудника", zap.String("employee_no", payload.EmployeeNo), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Сотрудник добавлен", zap.Uint64("employee_id", id))
	return s.repo.FindByID(ctx, nil, id)
}

func (s *EmployeeService) ArchiveEmployee(ctx context.Context, id uint64) error {
	if err := authorizeActor(ctx, s.gate, authz.EmployeeManage); err != nil {
		return err
	}
	return s.repo.Archive(ctx, nil, id)
}

func (s *EmployeeService) RestoreEmployee(ctx context.Context, id uint64) error {
	if err := authorizeActor(ctx, s.gate, authz.EmployeeManage); err != nil {
		return err
	}
	return s.repo.Restore(ctx, nil, id)
}

func authorizeActor(ctx context.Context, gate *authz.Gatekeeper, permission string) error {
	actor, err := currentActor(ctx)
	if err != nil {
		return err
	}
	return gate.Authorize(actor, permission)
}
