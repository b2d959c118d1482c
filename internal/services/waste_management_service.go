package services

import (
	"context"
	"errors"
	"net/http"
	"time"

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

type WasteManagementServiceInterface interface {
	AssignAppraisers(ctx context.Context, jobOrderID uint64, payload dto.AssignAppraisersDTO) (*dto.JobOrderDTO, error)
	SubmitAppraisal(ctx context.Context, jobOrderID uint64, payload dto.SubmitAppraisalDTO) (*dto.JobOrderDTO, error)
	SubmitProposal(ctx context.Context, jobOrderID uint64, payload dto.SubmitProposalDTO) (*dto.JobOrderDTO, error)
	ApproveProposal(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error)
	AssignHaulingPersonnel(ctx context.Context, jobOrderID uint64, payload dto.AssignHaulingPersonnelDTO) (*entities.Hauling, error)
	CompleteSafetyChecklist(ctx context.Context, haulingID uint64, payload dto.CompleteSafetyChecklistDTO) (*entities.Hauling, error)
	MarkInProgress(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error)
	Hold(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error)
	Resume(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error)
	Complete(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error)
}

type WasteManagementService struct {
	workflow
	wasteRepo    repositories.WasteManagementRepositoryInterface
	haulingRepo  repositories.HaulingRepositoryInterface
	truckRepo    repositories.TruckRepositoryInterface
	employeeRepo repositories.EmployeeRepositoryInterface
}

func NewWasteManagementService(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	wasteRepo repositories.WasteManagementRepositoryInterface,
	haulingRepo repositories.HaulingRepositoryInterface,
	truckRepo repositories.TruckRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *WasteManagementService {
	return &WasteManagementService{
		workflow:     newWorkflow(txManager, jobOrderRepo, gate, logger),
		wasteRepo:    wasteRepo,
		haulingRepo:  haulingRepo,
		truckRepo:    truckRepo,
		employeeRepo: employeeRepo,
	}
}

// AssignAppraisers заменяет набор оценщиков.
func (s *WasteManagementService) AssignAppraisers(ctx context.Context, jobOrderID uint64, payload dto.AssignAppraisersDTO) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "assign_appraisers",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusForViewing},
		authorize: s.permit(authz.AppraisersAssign),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			if err := requireActiveEmployees(ctx, tx, s.employeeRepo, "employee_ids", payload.EmployeeIDs...); err != nil {
				return err
			}
			return s.wasteRepo.ReplaceAppraisers(ctx, tx, jo.Serviceable.ID, payload.EmployeeIDs)
		},
	}))
}

// SubmitAppraisal - право submit:appraisal или назначенный оценщик.
func (s *WasteManagementService) SubmitAppraisal(ctx context.Context, jobOrderID uint64, payload dto.SubmitAppraisalDTO) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action: "submit_appraisal",
		kind:   constants.KindWasteManagement,
		from:   []string{constants.StatusForViewing},
		to:     constants.StatusForProposal,
		authorize: func(ctx context.Context, tx pgx.Tx, actor *entities.User, jo *entities.JobOrder) error {
			if s.gate.Can(actor, authz.AppraisalSubmit) {
				return nil
			}
			wm, err := s.wasteRepo.FindByID(ctx, tx, jo.Serviceable.ID)
			if err != nil {
				return err
			}
			owners := make([]authz.Owner, 0, len(wm.AppraiserIDs))
			for _, id := range wm.AppraiserIDs {
				owners = append(owners, authz.OwnedByEmployee(id))
			}
			return s.gate.Authorize(actor, authz.AppraisalSubmit, owners...)
		},
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.wasteRepo.SaveAppraisal(ctx, tx, jo.Serviceable.ID, payload.Notes, s.now())
		},
	}))
}

func (s *WasteManagementService) SubmitProposal(ctx context.Context, jobOrderID uint64, payload dto.SubmitProposalDTO) (*dto.JobOrderDTO, error) {
	if !payload.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("proposal_amount", "The proposal_amount field must be greater than 0.")
	}
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "submit_proposal",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusForProposal},
		to:        constants.StatusForApproval,
		authorize: s.permit(authz.ProposalSubmit),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.wasteRepo.SaveProposal(ctx, tx, jo.Serviceable.ID, payload.Amount, payload.Notes, s.now())
		},
	}))
}

func (s *WasteManagementService) ApproveProposal(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "approve_proposal",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusForApproval},
		to:        constants.StatusSuccessful,
		authorize: s.permit(authz.ProposalApprove),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.wasteRepo.ApproveProposal(ctx, tx, jo.Serviceable.ID, s.now())
		},
	}))
}

// AssignHaulingPersonnel создаёт выезд с грузовиком, бригадиром и составом.
func (s *WasteManagementService) AssignHaulingPersonnel(ctx context.Context, jobOrderID uint64, payload dto.AssignHaulingPersonnelDTO) (*entities.Hauling, error) {
	date, err := time.Parse(types.DateLayout, payload.HaulingDate)
	if err != nil {
		return nil, apperrors.NewValidationError("hauling_date", "The hauling_date field must be a date in YYYY-MM-DD format.")
	}
	personnel := make([]entities.HaulingPersonnel, 0, len(payload.Personnel))
	employeeIDs := []uint64{payload.TeamLeaderID}
	seen := make(map[uint64]bool, len(payload.Personnel))
	for _, p := range payload.Personnel {
		if seen[p.EmployeeID] {
			return nil, apperrors.NewValidationError("personnel", "An employee may appear only once in the crew.")
		}
		seen[p.EmployeeID] = true
		personnel = append(personnel, entities.HaulingPersonnel{EmployeeID: p.EmployeeID, Role: p.Role})
		employeeIDs = append(employeeIDs, p.EmployeeID)
	}

	var hauling *entities.Hauling
	_, err = s.run(ctx, jobOrderID, transition{
		action:    "assign_hauling_personnel",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusSuccessful, constants.StatusInProgress, constants.StatusOnHold},
		authorize: s.permit(authz.HaulingPersonnelAssign),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			truck, err := s.truckRepo.FindByID(ctx, tx, payload.TruckID)
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewValidationError("truck_id", "The selected truck does not exist.")
			}
			if err != nil {
				return err
			}
			if truck.DeletedAt != nil || truck.Status == constants.TruckMaintenance {
				return apperrors.NewValidationError("truck_id", "The selected truck is not available.")
			}
			if err := requireActiveEmployees(ctx, tx, s.employeeRepo, "personnel", employeeIDs...); err != nil {
				return err
			}

			h := entities.Hauling{
				WasteManagementID: jo.Serviceable.ID,
				TruckID:           payload.TruckID,
				TeamLeaderID:      payload.TeamLeaderID,
				HaulingDate:       date,
				Status:            constants.HaulingPending,
				Personnel:         personnel,
			}
			if jo.Status == constants.StatusInProgress {
				h.Status = constants.HaulingInProgress
			}
			id, err := s.haulingRepo.Create(ctx, tx, h)
			if err != nil {
				return err
			}
			hauling, err = s.haulingRepo.FindByID(ctx, tx, id)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return hauling, nil
}

// CompleteSafetyChecklist - все пункты должны быть отмечены. Закрывается один раз.
func (s *WasteManagementService) CompleteSafetyChecklist(ctx context.Context, haulingID uint64, payload dto.CompleteSafetyChecklistDTO) (*entities.Hauling, error) {
	fields := map[string]string{}
	for _, item := range constants.SafetyChecklistItems {
		if !payload.Checklist[item] {
			fields["safety_checklist."+item] = "This checklist item must be confirmed."
		}
	}
	for item := range payload.Checklist {
		if !isChecklistItem(item) {
			fields["safety_checklist."+item] = "Unknown checklist item."
		}
	}
	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	hauling, err := s.haulingRepo.FindByID(ctx, nil, haulingID)
	if err != nil {
		return nil, err
	}
	jo, err := s.jobOrderRepo.FindByServiceable(ctx, nil, entities.WasteManagementRef(hauling.WasteManagementID))
	if err != nil {
		return nil, err
	}

	var locked *entities.Hauling
	_, err = s.run(ctx, jo.ID, transition{
		action: "complete_safety_checklist",
		kind:   constants.KindWasteManagement,
		from:   []string{constants.StatusSuccessful, constants.StatusInProgress},
		// бригадир из строки под блокировкой
		authorize: func(ctx context.Context, tx pgx.Tx, actor *entities.User, _ *entities.JobOrder) error {
			var err error
			locked, err = s.haulingRepo.FindByIDForUpdate(ctx, tx, haulingID)
			if err != nil {
				return err
			}
			if locked.WasteManagementID != hauling.WasteManagementID {
				return apperrors.ErrConflict
			}
			return s.gate.Authorize(actor, authz.SafetyChecklistComplete, authz.OwnedByEmployee(locked.TeamLeaderID))
		},
		mutate: func(ctx context.Context, tx pgx.Tx, actor *entities.User, _ *entities.JobOrder) error {
			if locked.ChecklistDone() {
				return apperrors.ErrConflict
			}
			if err := s.haulingRepo.CompleteChecklist(ctx, tx, haulingID, payload.Checklist, actor.ID, s.now()); err != nil {
				return err
			}
			var err error
			hauling, err = s.haulingRepo.FindByID(ctx, tx, haulingID)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return hauling, nil
}

func isChecklistItem(item string) bool {
	for _, known := range constants.SafetyChecklistItems {
		if known == item {
			return true
		}
	}
	return false
}

// MarkInProgress - нужен хотя бы один выезд с закрытым чек-листом.
func (s *WasteManagementService) MarkInProgress(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "start_hauling",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusSuccessful},
		to:        constants.StatusInProgress,
		authorize: s.permit(authz.HaulingStart),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			haulings, err := s.haulingRepo.ListByWasteManagement(ctx, tx, jo.Serviceable.ID)
			if err != nil {
				return err
			}
			ready := false
			for _, h := range haulings {
				if h.ChecklistDone() {
					ready = true
					break
				}
			}
			if !ready {
				return apperrors.NewHttpError(http.StatusConflict, "At least one hauling must have a completed safety checklist.", apperrors.ErrInvalidTransition, nil)
			}
			return s.haulingRepo.SetStatusByWasteManagement(ctx, tx, jo.Serviceable.ID, constants.HaulingInProgress)
		},
	}))
}

func (s *WasteManagementService) Hold(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "hold",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusInProgress},
		to:        constants.StatusOnHold,
		authorize: s.permit(authz.HaulingStart),
	}))
}

func (s *WasteManagementService) Resume(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "resume",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusOnHold},
		to:        constants.StatusInProgress,
		authorize: s.permit(authz.HaulingStart),
	}))
}

func (s *WasteManagementService) Complete(ctx context.Context, jobOrderID uint64) (*dto.JobOrderDTO, error) {
	return jobOrderResult(s.run(ctx, jobOrderID, transition{
		action:    "complete",
		kind:      constants.KindWasteManagement,
		from:      []string{constants.StatusInProgress},
		to:        constants.StatusCompleted,
		authorize: s.permit(authz.JobOrderComplete),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.haulingRepo.SetStatusByWasteManagement(ctx, tx, jo.Serviceable.ID, constants.HaulingDone)
		},
	}))
}
