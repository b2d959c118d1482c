package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/types"
)

type JobOrderServiceInterface interface {
	CreateWasteManagement(ctx context.Context, payload dto.CreateWasteManagementDTO) (*dto.JobOrderDTO, error)
	CreateITService(ctx context.Context, payload dto.CreateITServiceDTO) (*dto.JobOrderDTO, error)
	CreateOtherService(ctx context.Context, payload dto.CreateOtherServiceDTO) (*dto.JobOrderDTO, error)
	GetJobOrders(ctx context.Context, filter types.Filter) ([]dto.JobOrderDTO, uint64, error)
	FindJobOrder(ctx context.Context, id uint64) (*dto.JobOrderDTO, error)
	UpdateJobOrder(ctx context.Context, id uint64, payload dto.JobOrderDetailsDTO) (*dto.JobOrderDTO, error)
	UpdateJobOrderStatus(ctx context.Context, id uint64, payload dto.UpdateJobOrderStatusDTO) (*dto.JobOrderDTO, error)
	CancelJobOrder(ctx context.Context, id uint64, payload dto.CancelJobOrderDTO) (*dto.JobOrderDTO, error)
	ArchiveJobOrder(ctx context.Context, id uint64) error
	RestoreJobOrder(ctx context.Context, id uint64) error
	ExportJobOrders(ctx context.Context, filter types.Filter) ([]byte, error)
}

type JobOrderService struct {
	workflow
	registry      *ServiceableRegistry
	wasteRepo     repositories.WasteManagementRepositoryInterface
	itRepo        repositories.ITServiceRepositoryInterface
	otherRepo     repositories.OtherServiceRepositoryInterface
	haulingRepo   repositories.HaulingRepositoryInterface
	cancelledRepo repositories.CancelledJobOrderRepositoryInterface
	employeeRepo  repositories.EmployeeRepositoryInterface
	newCode       func() string
}

func NewJobOrderService(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	wasteRepo repositories.WasteManagementRepositoryInterface,
	itRepo repositories.ITServiceRepositoryInterface,
	otherRepo repositories.OtherServiceRepositoryInterface,
	haulingRepo repositories.HaulingRepositoryInterface,
	cancelledRepo repositories.CancelledJobOrderRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	registry *ServiceableRegistry,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *JobOrderService {
	return &JobOrderService{
		workflow:      newWorkflow(txManager, jobOrderRepo, gate, logger),
		registry:      registry,
		wasteRepo:     wasteRepo,
		itRepo:        itRepo,
		otherRepo:     otherRepo,
		haulingRepo:   haulingRepo,
		cancelledRepo: cancelledRepo,
		employeeRepo:  employeeRepo,
		newCode:       randomTicketSuffix,
	}
}

// randomTicketSuffix - 6 символов в верхнем регистре из UUID.
func randomTicketSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func (s *JobOrderService) ticketCode() string {
	return "JO-" + s.now().Format("20060102") + "-" + s.newCode()
}

// ============================================================
// СОЗДАНИЕ
// ============================================================

// create записывает услугу и job order в одной транзакции.
func (s *JobOrderService) create(
	ctx context.Context,
	kind constants.ServiceableKind,
	details dto.JobOrderDetailsDTO,
	requestedStatus string,
	createServiceable func(tx pgx.Tx) (uint64, error),
) (*dto.JobOrderDTO, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, authz.JobOrderCreate); err != nil {
		s.logger.Warn("Отказано в создании job order", zap.Uint64("user_id", actor.ID), zap.String("role", actor.Role))
		return nil, err
	}
	status, err := s.registry.InitialStatus(kind, requestedStatus)
	if err != nil {
		return nil, err
	}

	var created *entities.JobOrder
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		serviceableID, err := createServiceable(tx)
		if err != nil {
			return err
		}

		jo := entities.JobOrder{
			TicketCode:  s.ticketCode(),
			Serviceable: entities.ServiceableRef{Kind: kind, ID: serviceableID},
			CreatedBy:   actor.ID,
			Status:      status,
		}
		details.ApplyTo(&jo)

		id, err := s.jobOrderRepo.Create(ctx, tx, jo)
		if err != nil {
			return err
		}
		created, err = s.jobOrderRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		s.logFailure("create", 0, err)
		return nil, err
	}

	s.logger.Info("Job order создан",
		zap.Uint64("job_order_id", created.ID),
		zap.String("ticket_code", created.TicketCode),
		zap.String("type", string(kind)),
		zap.String("status", created.Status))
	result := dto.NewJobOrderDTO(created)
	return &result, nil
}

func (s *JobOrderService) CreateWasteManagement(ctx context.Context, payload dto.CreateWasteManagementDTO) (*dto.JobOrderDTO, error) {
	return s.create(ctx, constants.KindWasteManagement, payload.JobOrderDetailsDTO, payload.Status, func(tx pgx.Tx) (uint64, error) {
		return s.wasteRepo.Create(ctx, tx, entities.WasteManagement{
			WasteType:        payload.WasteType,
			WasteDescription: payload.WasteDescription,
			EstimatedVolume:  payload.EstimatedVolume,
			Unit:             payload.Unit,
		})
	})
}

func (s *JobOrderService) CreateITService(ctx context.Context, payload dto.CreateITServiceDTO) (*dto.JobOrderDTO, error) {
	return s.create(ctx, constants.KindITService, payload.JobOrderDetailsDTO, payload.Status, func(tx pgx.Tx) (uint64, error) {
		if payload.TechnicianID.Valid {
			if err := requireActiveEmployees(ctx, tx, s.employeeRepo, "technician_id", payload.TechnicianID.Uint64); err != nil {
				return 0, err
			}
		}
		return s.itRepo.Create(ctx, tx, entities.ITService{
			MachineType:        payload.MachineType,
			Brand:              payload.Brand,
			Model:              payload.Model,
			SerialNumber:       payload.SerialNumber,
			ProblemDescription: payload.ProblemDescription,
			TechnicianID:       payload.TechnicianID,
		})
	})
}

func (s *JobOrderService) CreateOtherService(ctx context.Context, payload dto.CreateOtherServiceDTO) (*dto.JobOrderDTO, error) {
	return s.create(ctx, constants.KindOtherService, payload.JobOrderDetailsDTO, payload.Status, func(tx pgx.Tx) (uint64, error) {
		return s.otherRepo.Create(ctx, tx, entities.OtherService{
			ServiceName: payload.ServiceName,
			Description: payload.Description,
			Amount:      payload.Amount,
		})
	})
}

// ============================================================
// ЧТЕНИЕ
// ============================================================

// visibility: view:job_order видит всё, остальные - свои и те, где они бригадир с открытым чек-листом.
func (s *JobOrderService) visibility(actor *entities.User) (repositories.JobOrderVisibility, error) {
	if s.gate.Can(actor, authz.JobOrderView) {
		return repositories.JobOrderVisibility{All: true}, nil
	}
	var v repositories.JobOrderVisibility
	if s.gate.Can(actor, authz.JobOrderViewOwn) {
		v.CreatedBy = actor.ID
	}
	if s.gate.Can(actor, authz.JobOrderViewChecklist) && actor.EmployeeID.Valid {
		v.TeamLeaderEmployeeID = actor.EmployeeID.Uint64
	}
	if v.CreatedBy == 0 && v.TeamLeaderEmployeeID == 0 {
		return v, apperrors.ErrForbidden
	}
	return v, nil
}

func (s *JobOrderService) listQuery(actor *entities.User, filter types.Filter) (repositories.JobOrderListQuery, error) {
	visibility, err := s.visibility(actor)
	if err != nil {
		return repositories.JobOrderListQuery{}, err
	}
	q := repositories.JobOrderListQuery{
		Filter:     filter,
		Visibility: visibility,
		Statuses:   filter.Values("status"),
		Kinds:      filter.Values("type"),
	}
	for _, st := range q.Statuses {
		if !constants.IsKnownStatus(st) {
			return q, apperrors.NewValidationError("filter[status]", "Unknown status "+st+".")
		}
	}
	for _, k := range q.Kinds {
		if !constants.ServiceableKind(k).Valid() {
			return q, apperrors.NewValidationError("filter[type]", "Unknown service type "+k+".")
		}
	}
	if q.DateFrom, err = filter.Date("date_from"); err != nil {
		return q, apperrors.NewValidationError("filter[date_from]", "The date_from filter must be a date in YYYY-MM-DD format.")
	}
	if q.DateTo, err = filter.Date("date_to"); err != nil {
		return q, apperrors.NewValidationError("filter[date_to]", "The date_to filter must be a date in YYYY-MM-DD format.")
	}
	return q, nil
}

func (s *JobOrderService) GetJobOrders(ctx context.Context, filter types.Filter) ([]dto.JobOrderDTO, uint64, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	q, err := s.listQuery(actor, filter)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.jobOrderRepo.List(ctx, q)
	if err != nil {
		s.logger.Error("Ошибка при получении списка job orders", zap.Error(err))
		return nil, 0, err
	}
	return dto.NewJobOrderDTOs(list), total, nil
}

// canView - то же правило, что и visibility, но для одной записи.
func (s *JobOrderService) canView(ctx context.Context, actor *entities.User, jo *entities.JobOrder) (bool, error) {
	if s.gate.Can(actor, authz.JobOrderView) {
		return true, nil
	}
	if s.gate.Can(actor, authz.JobOrderViewOwn) && jo.IsOwnedBy(actor.ID) {
		return true, nil
	}
	if s.gate.Can(actor, authz.JobOrderViewChecklist) && actor.EmployeeID.Valid && jo.Serviceable.Kind == constants.KindWasteManagement {
		haulings, err := s.haulingRepo.ListByWasteManagement(ctx, nil, jo.Serviceable.ID)
		if err != nil {
			return false, err
		}
		for _, h := range haulings {
			if h.TeamLeaderID == actor.EmployeeID.Uint64 && !h.ChecklistDone() {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *JobOrderService) FindJobOrder(ctx context.Context, id uint64) (*dto.JobOrderDTO, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	jo, err := s.jobOrderRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, actor, jo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	return s.withDetails(ctx, jo)
}

func (s *JobOrderService) withDetails(ctx context.Context, jo *entities.JobOrder) (*dto.JobOrderDTO, error) {
	result := dto.NewJobOrderDTO(jo)
	detail, err := s.registry.Load(ctx, nil, jo.Serviceable)
	if err != nil {
		s.logger.Error("Не удалось загрузить услугу job order", zap.Uint64("job_order_id", jo.ID), zap.Error(err))
		return nil, err
	}
	result.Detail = detail

	if constants.IsCancelledStatus(jo.Status) {
		cancellation, err := s.cancelledRepo.FindByJobOrder(ctx, nil, jo.ID)
		switch {
		case err == nil:
			result.Cancellation = cancellation
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
	}
	return &result, nil
}

// ============================================================
// ИЗМЕНЕНИЕ
// ============================================================

// UpdateJobOrder - правка деталей создателем, пока job order в начальном статусе своего типа.
func (s *JobOrderService) UpdateJobOrder(ctx context.Context, id uint64, payload dto.JobOrderDetailsDTO) (*dto.JobOrderDTO, error) {
	jo, err := s.run(ctx, id, transition{
		action: "update",
		guard: func(jo *entities.JobOrder) bool {
			return jo.Serviceable.Kind.IsInitialStatus(jo.Status)
		},
		authorize: func(_ context.Context, _ pgx.Tx, actor *entities.User, jo *entities.JobOrder) error {
			return s.gate.AuthorizeOwner(actor, authz.JobOrderUpdate, authz.OwnedByUser(jo.CreatedBy))
		},
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			if err := s.jobOrderRepo.UpdateFields(ctx, tx, jo.ID, payload.Columns()); err != nil {
				return err
			}
			payload.ApplyTo(jo)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	result := dto.NewJobOrderDTO(jo)
	return &result, nil
}

// UpdateJobOrderStatus - ручная смена статуса в пределах статусов типа. Отмена идёт через CancelJobOrder.
func (s *JobOrderService) UpdateJobOrderStatus(ctx context.Context, id uint64, payload dto.UpdateJobOrderStatusDTO) (*dto.JobOrderDTO, error) {
	jo, err := s.run(ctx, id, transition{
		action:    "status",
		to:        payload.Status,
		authorize: s.permit(authz.JobOrderUpdateStatus),
		mutate: func(_ context.Context, _ pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			kind := jo.Serviceable.Kind
			if constants.IsCancelledStatus(payload.Status) {
				return apperrors.NewValidationError("status", "Use the cancel action to set a cancelled status.")
			}
			if !kind.HasStatus(payload.Status) {
				return apperrors.NewValidationError("status",
					"The status "+payload.Status+" is not valid for "+kind.Label()+".")
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	result := dto.NewJobOrderDTO(jo)
	return &result, nil
}

// CancelJobOrder пишет CancelledJobOrder и статус в одной транзакции.
func (s *JobOrderService) CancelJobOrder(ctx context.Context, id uint64, payload dto.CancelJobOrderDTO) (*dto.JobOrderDTO, error) {
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "The reason field is required.")
	}
	if !constants.IsCancelledStatus(payload.Status) {
		return nil, apperrors.NewValidationError("status", "The status must be one of: failed dropped closed.")
	}

	var cancellation entities.CancelledJobOrder
	jo, err := s.run(ctx, id, transition{
		action: "cancel",
		to:     payload.Status,
		authorize: func(_ context.Context, _ pgx.Tx, actor *entities.User, jo *entities.JobOrder) error {
			return s.gate.Authorize(actor, authz.JobOrderCancel, authz.OwnedByUser(jo.CreatedBy))
		},
		mutate: func(ctx context.Context, tx pgx.Tx, actor *entities.User, jo *entities.JobOrder) error {
			cancellation = entities.CancelledJobOrder{
				JobOrderID:  jo.ID,
				Status:      payload.Status,
				Reason:      reason,
				CancelledBy: actor.ID,
				CreatedAt:   s.now(),
			}
			newID, err := s.cancelledRepo.Create(ctx, tx, cancellation)
			cancellation.ID = newID
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	result := dto.NewJobOrderDTO(jo)
	result.Cancellation = &cancellation
	return &result, nil
}

func (s *JobOrderService) ArchiveJobOrder(ctx context.Context, id uint64) error {
	return s.toggleArchive(ctx, id, authz.JobOrderArchive, s.jobOrderRepo.Archive)
}

func (s *JobOrderService) RestoreJobOrder(ctx context.Context, id uint64) error {
	return s.toggleArchive(ctx, id, authz.JobOrderRestore, s.jobOrderRepo.Restore)
}

func (s *JobOrderService) toggleArchive(ctx context.Context, id uint64, permission string, apply func(context.Context, pgx.Tx, uint64) error) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(actor, permission); err != nil {
		s.logger.Warn("Отказано в доступе", zap.String("permission", permission), zap.Uint64("user_id", actor.ID))
		return err
	}
	if err := apply(ctx, nil, id); err != nil {
		s.logFailure(permission, id, err)
		return err
	}
	s.logger.Info("Архивный статус job order изменён", zap.String("permission", permission), zap.Uint64("job_order_id", id))
	return nil
}

// requireActiveEmployees - все переданные сотрудники существуют и активны.
func requireActiveEmployees(ctx context.Context, tx pgx.Tx, repo repositories.EmployeeRepositoryInterface, field string, ids ...uint64) error {
	unique := make(map[uint64]struct{}, len(ids))
	list := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		list = append(list, id)
	}
	found, err := repo.FindActiveByIDs(ctx, tx, list)
	if err != nil {
		return err
	}
	if len(found) != len(list) {
		return apperrors.NewValidationError(field, "Every selected employee must exist and be active.")
	}
	return nil
}
