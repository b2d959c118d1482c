package services

import (
	"context"
	"net/http"
	"strings"

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

type CorrectionServiceInterface interface {
	GetCorrections(ctx context.Context, filter types.Filter) ([]entities.Correction, uint64, error)
	SubmitCorrection(ctx context.Context, ticketCode string, payload dto.SubmitCorrectionDTO) (*entities.Correction, error)
	ResolveCorrection(ctx context.Context, id uint64, payload dto.ResolveCorrectionDTO) (*entities.Correction, error)
}

type CorrectionService struct {
	workflow
	correctionRepo repositories.CorrectionRepositoryInterface
	registry       *ServiceableRegistry
}

func NewCorrectionService(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	correctionRepo repositories.CorrectionRepositoryInterface,
	registry *ServiceableRegistry,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *CorrectionService {
	return &CorrectionService{
		workflow:       newWorkflow(txManager, jobOrderRepo, gate, logger),
		correctionRepo: correctionRepo,
		registry:       registry,
	}
}

func (s *CorrectionService) GetCorrections(ctx context.Context, filter types.Filter) ([]entities.Correction, uint64, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	q := repositories.CorrectionListQuery{
		Filter:   filter,
		Statuses: filter.Values("status"),
		Targets:  filter.Values("target"),
	}
	switch {
	case s.gate.Can(actor, authz.CorrectionView):
	case s.gate.Can(actor, authz.CorrectionCreate):
		q.SubmittedBy = actor.ID
	default:
		return nil, 0, apperrors.ErrForbidden
	}
	list, total, err := s.correctionRepo.List(ctx, q)
	if err != nil {
		s.logger.Error("Ошибка при получении списка корректировок", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// SubmitCorrection сохраняет только изменившиеся поля из списка разрешённых.
func (s *CorrectionService) SubmitCorrection(ctx context.Context, ticketCode string, payload dto.SubmitCorrectionDTO) (*entities.Correction, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	target := payload.Target
	if target == "" {
		target = constants.CorrectionTargetJobOrder
	}
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "The reason field is required.")
	}

	var created *entities.Correction
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		found, err := s.jobOrderRepo.FindByTicketCode(ctx, tx, ticketCode)
		if err != nil {
			return err
		}
		jo, err := s.jobOrderRepo.FindByIDForUpdate(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		if err := s.gate.AuthorizeOwner(actor, authz.CorrectionCreate, authz.OwnedByUser(jo.CreatedBy)); err != nil {
			s.logger.Warn("Отказано в создании корректировки", zap.Uint64("job_order_id", jo.ID), zap.Uint64("user_id", actor.ID))
			return err
		}
		if jo.IsArchived() {
			return apperrors.ErrArchived
		}
		if constants.IsCancelledStatus(jo.Status) || jo.Serviceable.Kind.IsInitialStatus(jo.Status) {
			s.logger.Warn("Корректировка в текущем статусе невозможна", zap.Uint64("job_order_id", jo.ID), zap.String("status", jo.Status))
			return apperrors.ErrInvalidTransition
		}

		fields, before, err := s.current(ctx, tx, jo, target)
		if err != nil {
			return err
		}
		changes, err := diffChanges(fields, before, payload.Changes)
		if err != nil {
			return err
		}

		pending, err := s.correctionRepo.HasPending(ctx, tx, jo.ID, target)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.NewHttpError(http.StatusConflict, "A pending correction already exists for this job order.", apperrors.ErrConflict, nil)
		}

		id, err := s.correctionRepo.Create(ctx, tx, entities.Correction{
			JobOrderID:  jo.ID,
			Target:      target,
			Changes:     changes,
			Reason:      reason,
			SubmittedBy: actor.ID,
		})
		if err != nil {
			return err
		}
		created, err = s.correctionRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		s.logFailure("submit_correction", 0, err)
		return nil, err
	}

	s.logger.Info("Корректировка создана",
		zap.Uint64("correction_id", created.ID),
		zap.String("ticket_code", created.TicketCode),
		zap.Strings("fields", created.Changes.Fields()))
	return created, nil
}

// current - исправляемые поля цели и их текущие значения.
func (s *CorrectionService) current(ctx context.Context, tx pgx.Tx, jo *entities.JobOrder, target string) (fieldSet, map[string]interface{}, error) {
	if target == constants.CorrectionTargetJobOrder {
		return jobOrderCorrectableFields, jobOrderSnapshot(jo), nil
	}
	before, err := s.registry.Snapshot(ctx, tx, jo.Serviceable)
	if err != nil {
		return nil, nil, err
	}
	return s.registry.Fields(jo.Serviceable.Kind), before, nil
}

// ResolveCorrection: при approve значения after применяются к записи и растёт error_count.
func (s *CorrectionService) ResolveCorrection(ctx context.Context, id uint64, payload dto.ResolveCorrectionDTO) (*entities.Correction, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if payload.Status != constants.CorrectionApproved && payload.Status != constants.CorrectionRejected {
		return nil, apperrors.NewValidationError("status", "The status field must be one of: approved rejected.")
	}
	if !s.gate.Can(actor, authz.CorrectionApprove) {
		s.logger.Warn("Отказано в решении по корректировке", zap.Uint64("correction_id", id), zap.Uint64("user_id", actor.ID), zap.String("role", actor.Role))
		return nil, apperrors.ErrForbidden
	}

	var resolved *entities.Correction
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		c, err := s.correctionRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.gate.AuthorizeResolution(actor, authz.CorrectionApprove, c.SubmittedBy); err != nil {
			s.logger.Warn("Попытка утвердить собственную корректировку", zap.Uint64("correction_id", c.ID), zap.Uint64("user_id", actor.ID))
			return err
		}
		if c.Status != constants.CorrectionPending {
			return apperrors.ErrAlreadyResolved
		}

		if payload.Status == constants.CorrectionApproved {
			if err := s.apply(ctx, tx, c); err != nil {
				return err
			}
		}
		if err := s.correctionRepo.Resolve(ctx, tx, c.ID, payload.Status, payload.Remarks, actor.ID, s.now()); err != nil {
			return err
		}
		resolved, err = s.correctionRepo.FindByID(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		s.logFailure("resolve_correction", 0, err)
		return nil, err
	}

	s.logger.Info("Корректировка рассмотрена",
		zap.Uint64("correction_id", resolved.ID),
		zap.String("status", resolved.Status),
		zap.Uint64("resolved_by", actor.ID))
	return resolved, nil
}

func (s *CorrectionService) apply(ctx context.Context, tx pgx.Tx, c *entities.Correction) error {
	jo, err := s.jobOrderRepo.FindByIDForUpdate(ctx, tx, c.JobOrderID)
	if err != nil {
		return err
	}
	if jo.IsArchived() {
		return apperrors.ErrArchived
	}

	if c.Target == constants.CorrectionTargetJobOrder {
		columns, err := jobOrderCorrectableFields.columns(c.Changes.After)
		if err != nil {
			return err
		}
		if err := s.jobOrderRepo.UpdateFields(ctx, tx, jo.ID, columns); err != nil {
			return err
		}
	} else if err := s.registry.Apply(ctx, tx, jo.Serviceable, c.Changes.After); err != nil {
		return err
	}
	return s.jobOrderRepo.IncrementErrorCount(ctx, tx, jo.ID)
}

func jobOrderSnapshot(jo *entities.JobOrder) map[string]interface{} {
	return map[string]interface{}{
		"scheduled_date": jo.ScheduledDate.Format(types.DateLayout),
		"scheduled_time": jo.ScheduledTime,
		"client_name":    jo.ClientName,
		"address":        jo.Address,
		"contact_person": jo.ContactPerson,
		"contact_number": jo.ContactNumber,
		"email":          nullableText(jo.Email),
		"remarks":        nullableText(jo.Remarks),
	}
}

// diffChanges: before и after содержат одни и те же ключи - только реально изменённые поля.
func diffChanges(fields fieldSet, before, requested map[string]interface{}) (entities.CorrectionChanges, error) {
	changes := entities.CorrectionChanges{
		Before: make(map[string]interface{}, len(requested)),
		After:  make(map[string]interface{}, len(requested)),
	}
	problems := make(map[string]string)
	for name, raw := range requested {
		ft, ok := fields[name]
		if !ok {
			problems["changes."+name] = "This field cannot be corrected."
			continue
		}
		after, err := ft.normalize(raw)
		if err != nil {
			problems["changes."+name] = "The value " + err.Error() + "."
			continue
		}
		if before[name] == after {
			continue
		}
		changes.Before[name] = before[name]
		changes.After[name] = after
	}
	if len(problems) > 0 {
		return changes, &apperrors.ValidationError{Fields: problems}
	}
	if len(changes.After) == 0 {
		return changes, apperrors.NewValidationError("changes", "No field differs from its current value.")
	}
	return changes, nil
}
