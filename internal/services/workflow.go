package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/utils"
)

// transition описывает одно бизнес-событие над job order.
// from == nil: допускается любой нетерминальный статус (или решает guard). to == "": статус не меняется.
type transition struct {
	action    string
	kind      constants.ServiceableKind
	from      []string
	guard     func(jo *entities.JobOrder) bool
	to        string
	authorize func(ctx context.Context, tx pgx.Tx, actor *entities.User, jo *entities.JobOrder) error
	mutate    func(ctx context.Context, tx pgx.Tx, actor *entities.User, jo *entities.JobOrder) error
}

func (t transition) allowed(jo *entities.JobOrder) bool {
	if t.guard != nil {
		return t.guard(jo)
	}
	if t.from == nil {
		return !constants.IsTerminalStatus(jo.Status)
	}
	for _, s := range t.from {
		if s == jo.Status {
			return true
		}
	}
	return false
}

// workflow - общая часть сервисов, меняющих job order.
type workflow struct {
	txManager    repositories.TxManagerInterface
	jobOrderRepo repositories.JobOrderRepositoryInterface
	gate         *authz.Gatekeeper
	logger       *zap.Logger
	now          func() time.Time
}

func newWorkflow(
	txManager repositories.TxManagerInterface,
	jobOrderRepo repositories.JobOrderRepositoryInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) workflow {
	return workflow{
		txManager:    txManager,
		jobOrderRepo: jobOrderRepo,
		gate:         gate,
		logger:       logger,
		now:          time.Now,
	}
}

func (w *workflow) actor(ctx context.Context) (*entities.User, error) {
	return currentActor(ctx)
}

func currentActor(ctx context.Context) (*entities.User, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return actor, nil
}

// permit - проверка права без привязки к записи.
func (w *workflow) permit(permission string) func(context.Context, pgx.Tx, *entities.User, *entities.JobOrder) error {
	return func(_ context.Context, _ pgx.Tx, actor *entities.User, _ *entities.JobOrder) error {
		return w.gate.Authorize(actor, permission)
	}
}

// run: блокировка строки, проверки, побочная мутация и новый статус в одной транзакции.
func (w *workflow) run(ctx context.Context, jobOrderID uint64, t transition) (*entities.JobOrder, error) {
	actor, err := w.actor(ctx)
	if err != nil {
		return nil, err
	}

	var result *entities.JobOrder
	err = w.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		jo, err := w.jobOrderRepo.FindByIDForUpdate(ctx, tx, jobOrderID)
		if err != nil {
			return err
		}
		if t.kind != "" && jo.Serviceable.Kind != t.kind {
			return apperrors.ErrKindMismatch
		}
		if jo.IsArchived() {
			return apperrors.ErrArchived
		}
		// отказ в доступе приоритетнее конфликта статуса
		if t.authorize != nil {
			if err := t.authorize(ctx, tx, actor, jo); err != nil {
				w.logger.Warn("Отказано в доступе",
					zap.String("action", t.action),
					zap.Uint64("job_order_id", jo.ID),
					zap.Uint64("user_id", actor.ID),
					zap.String("role", actor.Role))
				return err
			}
		}
		if !t.allowed(jo) {
			w.logger.Warn("Переход из текущего статуса невозможен",
				zap.String("action", t.action),
				zap.Uint64("job_order_id", jo.ID),
				zap.String("status", jo.Status))
			return apperrors.ErrInvalidTransition
		}
		if t.mutate != nil {
			if err := t.mutate(ctx, tx, actor, jo); err != nil {
				return err
			}
		}
		if t.to != "" && t.to != jo.Status {
			if err := w.jobOrderRepo.UpdateStatus(ctx, tx, jo.ID, t.to); err != nil {
				return err
			}
			jo.Status = t.to
		}
		result = jo
		return nil
	})
	if err != nil {
		w.logFailure(t.action, jobOrderID, err)
		return nil, err
	}

	w.logger.Info("Job order обновлён",
		zap.String("action", t.action),
		zap.Uint64("job_order_id", result.ID),
		zap.String("status", result.Status),
		zap.Uint64("user_id", actor.ID))
	return result, nil
}

// logFailure пишет в error только то, что не является ожидаемым отказом.
func (w *workflow) logFailure(action string, id uint64, err error) {
	if isExpected(err) {
		return
	}
	w.logger.Error("Ошибка транзакции",
		zap.String("action", action),
		zap.Uint64("job_order_id", id),
		zap.Error(err))
}

func isExpected(err error) bool {
	if _, ok := utils.StatusCodeFor(err); ok {
		return true
	}
	var validationErr *apperrors.ValidationError
	var inputErr *apperrors.InvalidInputError
	return errors.As(err, &validationErr) || errors.As(err, &inputErr)
}
