package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
)

type ITServiceServiceInterface interface {
	AssignTechnician(ctx context.Context, jobOrderID uint64, payload dto.AssignTechnicianDTO) (*dto.JobOrderDTO, error)
	SubmitInitialReport(ctx context.Context, jobOrderID uint64, payload dto.OnsiteReportDTO) (*dto.JobOrderDTO, error)
	SubmitFinalReport(ctx context.Context, jobOrderID uint64, payload dto.OnsiteReportDTO) (*dto.JobOrderDTO, error)
}

type ITServiceService struct {
	workflow
	itRepo       repositories.ITServiceRepositoryInterface
	employeeRepo repositories.EmployeeRepositoryInterface
}

func NewITServiceService(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	itRepo repositories.ITServiceRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *ITServiceService {
	return &ITServiceService{
		workflow:     newWorkflow(txManager, jobOrderRepo, gate, logger),
		itRepo:       itRepo,
		employeeRepo: employeeRepo,
	}
}

func (s *ITServiceService) AssignTechnician(ctx context.Context, jobOrderID uint64, payload dto.AssignTechnicianDTO) (*dto.JobOrderDTO, error) {
	jo, err := s.run(ctx, jobOrderID, transition{
		action:    "assign_technician",
		kind:      constants.KindITService,
		from:      []string{constants.StatusForCheckUp, constants.StatusForFinalService},
		authorize: s.permit(authz.TechnicianAssign),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			if err := requireActiveEmployees(ctx, tx, s.employeeRepo, "technician_id", payload.TechnicianID); err != nil {
				return err
			}
			return s.itRepo.AssignTechnician(ctx, tx, jo.Serviceable.ID, payload.TechnicianID)
		},
	})
	return jobOrderResult(jo, err)
}

// authorizeTechnician: submit:onsite_report или назначенный техник.
func (s *ITServiceService) authorizeTechnician(ctx context.Context, tx pgx.Tx, actor *entities.User, jo *entities.JobOrder) error {
	if s.gate.Can(actor, authz.OnsiteReportSubmit) {
		return nil
	}
	it, err := s.itRepo.FindByID(ctx, tx, jo.Serviceable.ID)
	if err != nil {
		return err
	}
	if !it.TechnicianID.Valid {
		return apperrors.ErrForbidden
	}
	return s.gate.Authorize(actor, authz.OnsiteReportSubmit, authz.OwnedByEmployee(it.TechnicianID.Uint64))
}

func (s *ITServiceService) SubmitInitialReport(ctx context.Context, jobOrderID uint64, payload dto.OnsiteReportDTO) (*dto.JobOrderDTO, error) {
	report := strings.TrimSpace(payload.Report)
	if report == "" {
		return nil, apperrors.NewValidationError("report", "The report field is required.")
	}
	jo, err := s.run(ctx, jobOrderID, transition{
		action:    "onsite_initial_report",
		kind:      constants.KindITService,
		from:      []string{constants.StatusForCheckUp},
		to:        constants.StatusForFinalService,
		authorize: s.authorizeTechnician,
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.itRepo.SaveInitialReport(ctx, tx, jo.Serviceable.ID, report, s.now())
		},
	})
	return jobOrderResult(jo, err)
}

func (s *ITServiceService) SubmitFinalReport(ctx context.Context, jobOrderID uint64, payload dto.OnsiteReportDTO) (*dto.JobOrderDTO, error) {
	report := strings.TrimSpace(payload.Report)
	if report == "" {
		return nil, apperrors.NewValidationError("report", "The report field is required.")
	}
	jo, err := s.run(ctx, jobOrderID, transition{
		action:    "onsite_final_report",
		kind:      constants.KindITService,
		from:      []string{constants.StatusForFinalService},
		to:        constants.StatusCompleted,
		authorize: s.authorizeTechnician,
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.itRepo.SaveFinalReport(ctx, tx, jo.Serviceable.ID, report, s.now())
		},
	})
	return jobOrderResult(jo, err)
}

func jobOrderResult(jo *entities.JobOrder, err error) (*dto.JobOrderDTO, error) {
	if err != nil {
		return nil, err
	}
	out := dto.NewJobOrderDTO(jo)
	return &out, nil
}
