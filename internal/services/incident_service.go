package services

import (
	"context"
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

type IncidentServiceInterface interface {
	GetIncidents(ctx context.Context, filter types.Filter) ([]entities.Incident, uint64, error)
	CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (*entities.Incident, error)
	VerifyIncident(ctx context.Context, id uint64, payload dto.VerifyIncidentDTO) (*entities.Incident, error)
}

type IncidentService struct {
	txManager    repositories.TxManagerInterface
	incidentRepo repositories.IncidentRepositoryInterface
	jobOrderRepo repositories.JobOrderRepositoryInterface
	haulingRepo  repositories.HaulingRepositoryInterface
	gate         *authz.Gatekeeper
	logger       *zap.Logger
	now          func() time.Time
}

func NewIncidentService(
	txManager repositories.TxManagerInterface,
	incidentRepo repositories.IncidentRepositoryInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	haulingRepo repositories.HaulingRepositoryInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *IncidentService {
	return &IncidentService{
		txManager:    txManager,
		incidentRepo: incidentRepo,
		jobOrderRepo: jobOrderRepo,
		haulingRepo:  haulingRepo,
		gate:         gate,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *IncidentService) GetIncidents(ctx context.Context, filter types.Filter) ([]entities.Incident, uint64, error) {
	actor, err := currentActor(ctx)
	if err != nil {
		return nil, 0, err
	}
	q := repositories.IncidentListQuery{Filter: filter, Statuses: filter.Values("status")}
	switch {
	case s.gate.Can(actor, authz.IncidentView):
	case s.gate.Can(actor, authz.IncidentCreate):
		q.ReportedBy = actor.ID
	default:
		return nil, 0, apperrors.ErrForbidden
	}
	if q.DateFrom, err = filter.Date("date_from"); err != nil {
		return nil, 0, apperrors.NewValidationError("filter[date_from]", "The date_from filter must be a date in YYYY-MM-DD format.")
	}
	if q.DateTo, err = filter.Date("date_to"); err != nil {
		return nil, 0, apperrors.NewValidationError("filter[date_to]", "The date_to filter must be a date in YYYY-MM-DD format.")
	}
	return s.incidentRepo.List(ctx, q)
}

func (s *IncidentService) CreateIncident(ctx context.Context, payload dto.CreateIncidentDTO) (*entities.Incident, error) {
	actor, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, authz.IncidentCreate); err != nil {
		return nil, err
	}
	date, err := time.Parse(types.DateLayout, payload.IncidentDate)
	if err != nil {
		return nil, apperrors.NewValidationError("incident_date", "The incident_date field must be a date in YYYY-MM-DD format.")
	}

	var created *entities.Incident
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if payload.JobOrderID.Valid {
			if _, err := s.jobOrderRepo.FindByID(ctx, tx, payload.JobOrderID.Uint64); err != nil {
				return apperrors.NewValidationError("job_order_id", "The selected job order does not exist.")
			}
		}
		if payload.HaulingID.Valid {
			if _, err := s.haulingRepo.FindByID(ctx, tx, payload.HaulingID.Uint64); err != nil {
				return apperrors.NewValidationError("hauling_id", "The selected hauling does not exist.")
			}
		}
		id, err := s.incidentRepo.Create(ctx, tx, entities.Incident{
			JobOrderID:   payload.JobOrderID,
			HaulingID:    payload.HaulingID,
			Title:        payload.Title,
			Description:  payload.Description,
			Location:     payload.Location,
			IncidentDate: date,
			ReportedBy:   actor.ID,
		})
		if err != nil {
			return err
		}
		created, err = s.incidentRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Инцидент зарегистрирован", zap.Uint64("incident_id", created.ID), zap.Uint64("reported_by", actor.ID))
	return created, nil
}

// VerifyIncident: for verification -> verified | dropped | no incident, один раз.
func (s *IncidentService) VerifyIncident(ctx context.Context, id uint64, payload dto.VerifyIncidentDTO) (*entities.Incident, error) {
	actor, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, authz.IncidentVerify); err != nil {
		s.logger.Warn("Отказано в проверке инцидента", zap.Uint64("incident_id", id), zap.Uint64("user_id", actor.ID))
		return nil, err
	}
	if !constants.IsIncidentVerdict(payload.Status) {
		return nil, apperrors.NewValidationError("status", "The status field must be one of: verified, dropped, no incident.")
	}

	var verified *entities.Incident
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		incident, err := s.incidentRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if incident.Status != constants.IncidentForVerification {
			return apperrors.ErrInvalidTransition
		}
		if err := s.incidentRepo.Verify(ctx, tx, id, payload.Status, payload.Remarks, actor.ID, s.now()); err != nil {
			return err
		}
		verified, err = s.incidentRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Инцидент проверен", zap.Uint64("incident_id", id), zap.String("status", verified.Status))
	return verified, nil
}
