package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxManagerInterface открывает транзакцию для сервисов, которым нужно
// несколько репозиториев в одной единице работы.
type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TxManager struct {
	db txBeginner
}

func NewTxManager(db txBeginner) TxManagerInterface {
	return &TxManager{db: db}
}

// RunInTransaction коммитит, только если fn вернула nil. Паника откатывает
// транзакцию и пробрасывается дальше.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось открыть транзакцию: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// ошибка отката не перекрывает исходную
		_ = tx.Rollback(ctx)
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	committed = true
	return nil
}
