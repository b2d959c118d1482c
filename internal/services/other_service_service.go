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
)

type OtherServiceServiceInterface interface {
	Complete(ctx context.Context, jobOrderID uint64, payload dto.CompleteOtherServiceDTO) (*dto.JobOrderDTO, error)
}

type OtherServiceService struct {
	workflow
	otherRepo repositories.OtherServiceRepositoryInterface
}

func NewOtherServiceService(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	otherRepo repositories.OtherServiceRepositoryInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) *OtherServiceService {
	return &OtherServiceService{
		workflow:  newWorkflow(txManager, jobOrderRepo, gate, logger),
		otherRepo: otherRepo,
	}
}

func (s *OtherServiceService) Complete(ctx context.Context, jobOrderID uint64, payload dto.CompleteOtherServiceDTO) (*dto.JobOrderDTO, error) {
	jo, err := s.run(ctx, jobOrderID, transition{
		action:    "complete",
		kind:      constants.KindOtherService,
		from:      []string{constants.StatusInProgress},
		to:        constants.StatusCompleted,
		authorize: s.permit(authz.JobOrderComplete),
		mutate: func(ctx context.Context, tx pgx.Tx, _ *entities.User, jo *entities.JobOrder) error {
			return s.otherRepo.Complete(ctx, tx, jo.Serviceable.ID, payload.CompletionNotes, s.now())
		},
	})
	return jobOrderResult(jo, err)
}
