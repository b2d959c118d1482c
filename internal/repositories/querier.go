package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-order-system/internal/infrastructure/pipeline"
	apperrors "job-order-system/pkg/errors"
)

// Querier - общий интерфейс пула и транзакции.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type pgRepository struct {
	storage *pgxpool.Pool
}

// getQuerier - возвращает транзакцию или пул соединений
func (r pgRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

// wrapError переводит ошибки драйвера в ошибки приложения.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ExclusionViolation:
			return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, apperrors.NewInvalidInputError("referenced record does not exist"))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectAffected превращает 0 затронутых строк в ErrNotFound.
func expectAffected(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return wrapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r pgRepository) exec(ctx context.Context, tx pgx.Tx, op string, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для %s: %w", op, err)
	}
	tag, err := r.getQuerier(tx).Exec(ctx, query, args...)
	return expectAffected(tag, err, op)
}

func (r pgRepository) insertReturningID(ctx context.Context, tx pgx.Tx, op string, b sq.InsertBuilder) (uint64, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL для %s: %w", op, err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapError(op, err)
	}
	return id, nil
}

// updateColumns обновляет только разрешённые колонки записи.
func (r pgRepository) updateColumns(ctx context.Context, tx pgx.Tx, table string, id uint64, allowed map[string]bool, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	b := psql.Update(table).Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id})
	for col, val := range fields {
		if !allowed[col] {
			return fmt.Errorf("колонка %s.%s не обновляется", table, col)
		}
		b = b.Set(col, val)
	}
	return r.exec(ctx, tx, "обновление "+table, b)
}

// listWithCount выполняет COUNT и страницу одним и тем же набором стадий.
func listWithCount[T any](ctx context.Context, q Querier, op string, p *pipeline.Pipeline, sel, cnt sq.SelectBuilder, scan func(pgx.Row) (*T, error)) ([]T, uint64, error) {
	countQuery, countArgs, err := p.ApplyCount(cnt).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для подсчёта %s: %w", op, err)
	}
	var total uint64
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, wrapError("подсчёт "+op, err)
	}
	list := make([]T, 0)
	if total == 0 {
		return list, 0, nil
	}

	query, args, err := p.Apply(sel).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для списка %s: %w", op, err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("список "+op, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования %s: %w", op, err)
		}
		list = append(list, *item)
	}
	return list, total, rows.Err()
}
