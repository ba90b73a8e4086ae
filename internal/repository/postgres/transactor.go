package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Transactor runs a function inside one database transaction. Repositories
// pick the transaction up from the context, so a batch of repo calls commits
// or rolls back as a unit.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Transactor = (*transactorImpl)(nil)

type transactorImpl struct {
	db     *DB
	logger *zap.Logger
}

func NewTransactor(db *DB, logger *zap.Logger) *transactorImpl {
	return &transactorImpl{db: db, logger: logger}
}

func (t *transactorImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) (txErr error) {
	ctxTx, tx, err := injectTx(ctx, t.db)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if txErr != nil {
			if err := tx.Rollback(ctxTx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				t.logger.Error("rollback", zap.Error(err))
			}
			return
		}
		if err := tx.Commit(ctxTx); err != nil {
			txErr = fmt.Errorf("commit: %w", err)
		}
	}()

	return fn(ctxTx)
}

type txInjector struct{}

var errTxNotFound = errors.New("tx not found in context")

func injectTx(ctx context.Context, db *DB) (context.Context, pgx.Tx, error) {
	if tx, err := extractTx(ctx); err == nil {
		return ctx, tx, nil
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	return context.WithValue(ctx, txInjector{}, tx), tx, nil
}

func extractTx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txInjector{}).(pgx.Tx)
	if !ok {
		return nil, errTxNotFound
	}
	return tx, nil
}

type execQueryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (db *DB) execQueryer(ctx context.Context) execQueryer {
	if tx, err := extractTx(ctx); err == nil && tx != nil {
		return tx
	}
	return db.Pool
}
